// Package auth composes the OTP engine and the token issuer into the four
// user-facing flows: registration, OTP login, password login, password reset.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-auth-api/internal/application/otp"
	"github.com/go-auth-api/internal/application/token"
	"github.com/go-auth-api/internal/domain"
	"github.com/go-auth-api/internal/infrastructure/smtp"
	"github.com/go-auth-api/internal/pkg/id"
	"github.com/go-auth-api/internal/pkg/password"
)

// Metadata keys the flow endpoints write on the records they issue. The raw
// /otp/send surface strips these from client-supplied context so a caller
// cannot plant them; the confirm steps never read them for ownership anyway.
const (
	MetaKeyName   = "name"
	MetaKeyUserID = "user_id"
)

type RegisterRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required"`
}

type RegisterConfirmRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type PasswordLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ResetConfirmRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// UserDirectory is the external user-identity store the flows read and write.
// Accounts are always resolved by the flow identifier, so there is no lookup
// by id here.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type Service interface {
	RegisterRequest(ctx context.Context, req RegisterRequest) (*otp.IssueResult, error)
	RegisterConfirm(ctx context.Context, req RegisterConfirmRequest) (*token.Pair, *domain.User, error)
	LoginOTPRequest(ctx context.Context, email string) (*otp.IssueResult, error)
	LoginOTPConfirm(ctx context.Context, email, code string) (*token.Pair, *domain.User, error)
	LoginPassword(ctx context.Context, req PasswordLoginRequest) (*token.Pair, *domain.User, error)
	// PasswordResetRequest never reveals whether the identifier exists: an
	// unknown email yields the same nil-error, nil-result outcome as a sent
	// code. Handlers must render both identically.
	PasswordResetRequest(ctx context.Context, email string) (*otp.IssueResult, error)
	PasswordResetConfirm(ctx context.Context, req ResetConfirmRequest) error
	Logout(ctx context.Context, userID, refreshToken string) error
}

type ServiceDeps struct {
	OTP    otp.Service
	Tokens token.Service
	Users  UserDirectory
	Mailer smtp.Mailer
	Now    func() time.Time // defaults to time.Now
}

type service struct {
	otp    otp.Service
	tokens token.Service
	users  UserDirectory
	mailer smtp.Mailer
	now    func() time.Time
}

func NewService(deps ServiceDeps) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{
		otp:    deps.OTP,
		tokens: deps.Tokens,
		users:  deps.Users,
		mailer: deps.Mailer,
		now:    deps.Now,
	}
}

func (s *service) RegisterRequest(ctx context.Context, req RegisterRequest) (*otp.IssueResult, error) {
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("account already exists: %w", domain.ErrConflict)
	}
	// The pending profile rides in the record's metadata until confirmation.
	return s.otp.Issue(ctx, req.Email, domain.PurposeVerification, map[string]string{MetaKeyName: req.Name})
}

func (s *service) RegisterConfirm(ctx context.Context, req RegisterConfirmRequest) (*token.Pair, *domain.User, error) {
	res, err := s.otp.Verify(ctx, req.Email, req.Code, domain.PurposeVerification)
	if err != nil {
		return nil, nil, err
	}
	// Re-check: someone may have registered between request and confirm.
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, nil, fmt.Errorf("account already exists: %w", domain.ErrConflict)
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, nil, err
	}
	now := s.now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Email:        req.Email,
		Name:         res.Metadata[MetaKeyName],
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, nil, err
	}
	// Registration completed: the verification code is spent.
	if err := s.otp.Consume(ctx, req.Email, domain.PurposeVerification); err != nil {
		slog.Warn("failed to consume verification otp", "email", req.Email, "err", err)
	}
	pair, err := s.tokens.Mint(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	if err := s.mailer.SendEmail(u.Email, "Welcome", "Your account is ready."); err != nil {
		slog.Warn("failed to send welcome email", "email", u.Email, "err", err)
	}
	return pair, u, nil
}

func (s *service) LoginOTPRequest(ctx context.Context, email string) (*otp.IssueResult, error) {
	// Revealing non-existence here is deliberate: creating the account
	// already required verified ownership of the identifier.
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("no account for this email: %w", domain.ErrBadRequest)
	}
	if u.Status != domain.StatusActive {
		return nil, fmt.Errorf("account is not active: %w", domain.ErrBadRequest)
	}
	return s.otp.Issue(ctx, email, domain.PurposeLogin, map[string]string{MetaKeyUserID: u.UserID})
}

func (s *service) LoginOTPConfirm(ctx context.Context, email, code string) (*token.Pair, *domain.User, error) {
	if _, err := s.otp.Verify(ctx, email, code, domain.PurposeLogin); err != nil {
		return nil, nil, err
	}
	// Ownership is resolved from the identifier the code was delivered to.
	// Record metadata is client-observable and must never decide the account.
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("account no longer exists: %w", domain.ErrUnauthorized)
	}
	if u.Status != domain.StatusActive {
		return nil, nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	pair, err := s.tokens.Mint(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	s.touchLastLogin(ctx, u)
	return pair, u, nil
}

func (s *service) LoginPassword(ctx context.Context, req PasswordLoginRequest) (*token.Pair, *domain.User, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !password.Verify(u.PasswordHash, req.Password) {
		return nil, nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if u.Status != domain.StatusActive {
		return nil, nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	pair, err := s.tokens.Mint(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	s.touchLastLogin(ctx, u)
	return pair, u, nil
}

func (s *service) PasswordResetRequest(ctx context.Context, email string) (*otp.IssueResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// Unknown identifier: pretend success, send nothing.
		return nil, nil
	}
	return s.otp.Issue(ctx, email, domain.PurposePasswordReset, map[string]string{MetaKeyUserID: u.UserID})
}

func (s *service) PasswordResetConfirm(ctx context.Context, req ResetConfirmRequest) error {
	if _, err := s.otp.Verify(ctx, req.Email, req.Code, domain.PurposePasswordReset); err != nil {
		return err
	}
	// Same rule as OTP login: the account comes from the identifier, not from
	// anything stored on the record.
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("account no longer exists: %w", domain.ErrUnauthorized)
	}
	hash, err := password.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{"password_hash": hash}); err != nil {
		return err
	}
	// Password changed: every existing session is invalidated.
	if err := s.tokens.Revoke(ctx, u.UserID, ""); err != nil {
		slog.Warn("failed to revoke sessions after password reset", "user_id", u.UserID, "err", err)
	}
	if err := s.otp.Consume(ctx, req.Email, domain.PurposePasswordReset); err != nil {
		slog.Warn("failed to consume reset otp", "email", req.Email, "err", err)
	}
	return nil
}

func (s *service) Logout(ctx context.Context, userID, refreshToken string) error {
	if refreshToken == "" && userID == "" {
		return fmt.Errorf("nothing to log out: %w", domain.ErrBadRequest)
	}
	return s.tokens.Revoke(ctx, userID, refreshToken)
}

func (s *service) touchLastLogin(ctx context.Context, u *domain.User) {
	now := s.now().UTC()
	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{"last_login_at": now.Format(time.RFC3339)}); err != nil {
		slog.Warn("failed to update last login", "user_id", u.UserID, "err", err)
	}
	u.LastLoginAt = &now
}
