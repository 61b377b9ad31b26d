package http

import (
	"net/http"

	"github.com/go-auth-api/internal/application/auth"
	"github.com/go-auth-api/internal/application/notify"
	"github.com/go-auth-api/internal/application/otp"
	"github.com/go-auth-api/internal/application/token"
	"github.com/go-auth-api/internal/config"
	"github.com/go-auth-api/internal/transport/http/handler"
	appmiddleware "github.com/go-auth-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	notifier := notify.New(deps.Mailer, deps.SMSSender)
	otpSvc := otp.NewService(otp.ServiceDeps{
		Repo:     deps.OTPRepo,
		Notifier: notifier,
		Config: otp.Config{
			CodeLength:      cfg.OTPCodeLength,
			Expiry:          cfg.OTPExpiry,
			ResendCooldown:  cfg.OTPResendCooldown,
			DebugExposeCode: cfg.OTPDebugExposeCode,
		},
	})
	tokenSvc := token.NewService(token.ServiceDeps{
		Repo:   deps.RefreshTokenRepo,
		Users:  deps.UserRepo,
		Signer: deps.JWTProvider,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		OTP:    otpSvc,
		Tokens: tokenSvc,
		Users:  deps.UserRepo,
		Mailer: deps.Mailer,
	})

	healthH := handler.NewHealthHandler()
	otpH := handler.NewOTPHandler(otpSvc)
	registerH := handler.NewRegisterHandler(authSvc)
	loginH := handler.NewLoginHandler(authSvc)
	recoveryH := handler.NewPasswordRecoveryHandler(authSvc)
	tokenH := handler.NewTokenHandler(tokenSvc, authSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/otp/send", otpH.Send)
		r.With(sensitiveRL.Limit).Post("/otp/verify", otpH.Verify)
		r.With(sensitiveRL.Limit).Post("/register/{action}", registerH.Action)
		r.With(sensitiveRL.Limit).Post("/login", loginH.Password)
		r.With(sensitiveRL.Limit).Post("/login/otp/{action}", loginH.OTPAction)
		r.With(sensitiveRL.Limit).Post("/password-recovery/{action}", recoveryH.Action)
		r.Post("/token/refresh", tokenH.Refresh)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/logout", tokenH.Logout)
		})
	})

	return r
}
