// Package token mints, rotates and revokes the session token pair. The access
// token is stateless; the refresh token is the only persisted credential.
package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-auth-api/internal/domain"
)

// Repository is the minimal store contract for refresh tokens. Delete must be
// conditional on existence so concurrent rotations of the same token have
// exactly one winner.
type Repository interface {
	Put(ctx context.Context, t *domain.RefreshToken) error
	Get(ctx context.Context, token string) (*domain.RefreshToken, error)
	Delete(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID string) error
}

// UserDirectory resolves the owner of a rotated token so claims are rebuilt
// from the current directory record, not the stale ones baked into the token.
type UserDirectory interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// Signer mints the two halves of a session pair with distinct secrets.
type Signer interface {
	SignAccess(userID, email, role string) (string, error)
	SignRefresh(userID string) (string, time.Time, error)
}

// Pair is the session pair returned to callers. It is never persisted as an
// entity; only the refresh half has a backing record.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Service interface {
	Mint(ctx context.Context, u *domain.User) (*Pair, error)
	Rotate(ctx context.Context, presented string) (*Pair, error)
	// Revoke deletes one refresh token (scoped logout) or, with an empty
	// token, every token the user owns (logout-everywhere).
	Revoke(ctx context.Context, userID, token string) error
}

type ServiceDeps struct {
	Repo   Repository
	Users  UserDirectory
	Signer Signer
	Now    func() time.Time // defaults to time.Now
}

type service struct {
	repo   Repository
	users  UserDirectory
	signer Signer
	now    func() time.Time
}

func NewService(deps ServiceDeps) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{
		repo:   deps.Repo,
		users:  deps.Users,
		signer: deps.Signer,
		now:    deps.Now,
	}
}

func (s *service) Mint(ctx context.Context, u *domain.User) (*Pair, error) {
	refresh, exp, err := s.signer.SignRefresh(u.UserID)
	if err != nil {
		return nil, err
	}
	rec := &domain.RefreshToken{
		Token:     refresh,
		UserID:    u.UserID,
		ExpiresAt: exp.Unix(),
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Put(ctx, rec); err != nil {
		return nil, err
	}
	access, err := s.signer.SignAccess(u.UserID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	return &Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *service) Rotate(ctx context.Context, presented string) (*Pair, error) {
	rec, err := s.repo.Get(ctx, presented)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
		}
		// A store outage is not a bad credential.
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	if rec.ExpiresAt < s.now().Unix() {
		if err := s.repo.Delete(ctx, presented); err != nil && !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("failed to delete stale refresh token", "user_id", rec.UserID, "err", err)
		}
		return nil, fmt.Errorf("refresh token expired: %w", domain.ErrUnauthorized)
	}
	// Single-use enforcement: delete before re-minting. If a concurrent
	// rotation got here first, the conditional delete reports not-found and
	// this caller loses.
	if err := s.repo.Delete(ctx, presented); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("delete refresh token: %w", err)
	}
	u, err := s.users.Get(ctx, rec.UserID)
	if err != nil {
		return nil, fmt.Errorf("token owner no longer exists: %w", domain.ErrUnauthorized)
	}
	if u.Status != domain.StatusActive {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	return s.Mint(ctx, u)
}

func (s *service) Revoke(ctx context.Context, userID, token string) error {
	if token != "" {
		err := s.repo.Delete(ctx, token)
		if errors.Is(err, domain.ErrNotFound) {
			// Already gone — logout is idempotent.
			return nil
		}
		return err
	}
	if userID == "" {
		return fmt.Errorf("user id or token required: %w", domain.ErrBadRequest)
	}
	return s.repo.DeleteByUser(ctx, userID)
}
