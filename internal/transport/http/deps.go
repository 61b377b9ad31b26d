package http

import (
	"context"

	"github.com/go-auth-api/internal/domain"
	jwtinfra "github.com/go-auth-api/internal/infrastructure/jwt"
	"github.com/go-auth-api/internal/infrastructure/smtp"
	"github.com/go-auth-api/internal/infrastructure/sns"
)

// OTPRepository is the minimal interface the router requires from the OTP store.
type OTPRepository interface {
	Put(ctx context.Context, rec *domain.OTPRecord) error
	Get(ctx context.Context, identifier string, purpose domain.Purpose) (*domain.OTPRecord, error)
	Update(ctx context.Context, identifier string, purpose domain.Purpose, updates map[string]interface{}) error
	IncrementAttempts(ctx context.Context, identifier string, purpose domain.Purpose) (int, error)
	Delete(ctx context.Context, identifier string, purpose domain.Purpose) error
	DeleteExpired(ctx context.Context, now int64) (int, error)
}

// RefreshTokenRepository is the minimal interface the router requires from the
// refresh token store.
type RefreshTokenRepository interface {
	Put(ctx context.Context, t *domain.RefreshToken) error
	Get(ctx context.Context, token string) (*domain.RefreshToken, error)
	Delete(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, now int64) (int, error)
}

// UserRepository is the minimal interface the router requires from the user
// directory.
type UserRepository interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	OTPRepo          OTPRepository
	RefreshTokenRepo RefreshTokenRepository
	UserRepo         UserRepository
	Mailer           smtp.Mailer
	SMSSender        sns.SMSSender
	JWTProvider      *jwtinfra.Provider
}
