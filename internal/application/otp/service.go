// Package otp owns the one-time-passcode state machine: issue with cooldown,
// verify with an attempt ceiling, expiry cleanup.
package otp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-auth-api/internal/application/notify"
	"github.com/go-auth-api/internal/domain"
	"github.com/go-auth-api/internal/pkg/otpcode"
)

// maxAttempts is the brute-force ceiling: a 6-digit space is 10^6, capped at
// 5 guesses per issued code. Reaching it destroys the record.
const maxAttempts = 5

// Config parametrises the OTP engine.
type Config struct {
	CodeLength     int
	Expiry         time.Duration
	ResendCooldown time.Duration
	// DebugExposeCode copies the plaintext code into IssueResult for test
	// automation. Explicit opt-in; must never be set in production.
	DebugExposeCode bool
}

// Repository is the minimal store contract for OTP records. The store keys
// records by (identifier, purpose) and Put replaces any prior record for the
// pair atomically.
type Repository interface {
	Put(ctx context.Context, rec *domain.OTPRecord) error
	Get(ctx context.Context, identifier string, purpose domain.Purpose) (*domain.OTPRecord, error)
	Update(ctx context.Context, identifier string, purpose domain.Purpose, updates map[string]interface{}) error
	// IncrementAttempts adds one to the attempt counter in a single atomic
	// write and returns the new count, so concurrent wrong guesses cannot
	// lose increments and slip past the ceiling.
	IncrementAttempts(ctx context.Context, identifier string, purpose domain.Purpose) (int, error)
	Delete(ctx context.Context, identifier string, purpose domain.Purpose) error
	DeleteExpired(ctx context.Context, now int64) (int, error)
}

type IssueResult struct {
	ExpiresAt time.Time
	// DebugCode is the plaintext code, set only when Config.DebugExposeCode
	// is on. Serialized at exactly one call site (the /otp/send handler).
	DebugCode string
}

type VerifyResult struct {
	Metadata map[string]string
}

type Service interface {
	Issue(ctx context.Context, identifier string, purpose domain.Purpose, metadata map[string]string) (*IssueResult, error)
	Verify(ctx context.Context, identifier, code string, purpose domain.Purpose) (*VerifyResult, error)
	// Consume deletes a verified record once its flow completed (single-use).
	Consume(ctx context.Context, identifier string, purpose domain.Purpose) error
	CleanupExpired(ctx context.Context) (int, error)
}

type ServiceDeps struct {
	Repo     Repository
	Notifier notify.Notifier
	Config   Config
	Now      func() time.Time // defaults to time.Now
}

type service struct {
	repo     Repository
	notifier notify.Notifier
	cfg      Config
	now      func() time.Time
}

func NewService(deps ServiceDeps) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{
		repo:     deps.Repo,
		notifier: deps.Notifier,
		cfg:      deps.Config,
		now:      deps.Now,
	}
}

func (s *service) Issue(ctx context.Context, identifier string, purpose domain.Purpose, metadata map[string]string) (*IssueResult, error) {
	now := s.now().UTC()

	// Cooldown is anchored on the previous record's creation, whatever its
	// state. A store failure here is an outage, not an absent record.
	prev, err := s.repo.Get(ctx, identifier, purpose)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load otp record: %w", err)
	}
	if prev != nil {
		if wait := prev.CreatedAt.Add(s.cfg.ResendCooldown).Sub(now); wait > 0 {
			secs := int(wait.Seconds()) + 1
			return nil, fmt.Errorf("please wait %d seconds before requesting a new code: %w", secs, domain.ErrTooManyRequests)
		}
	}

	code, err := otpcode.Generate(s.cfg.CodeLength)
	if err != nil {
		return nil, err
	}
	rec := &domain.OTPRecord{
		Identifier: identifier,
		Purpose:    purpose,
		CodeHash:   otpcode.Hash(code),
		ExpiresAt:  now.Add(s.cfg.Expiry).Unix(),
		Verified:   false,
		Attempts:   0,
		Metadata:   metadata,
		CreatedAt:  now,
	}
	// Put replaces any prior unverified record for the pair in one write.
	if err := s.repo.Put(ctx, rec); err != nil {
		return nil, err
	}

	// A code the user never receives is useless: delivery failure fails the
	// whole call. The record stays; the cooldown gates the re-request.
	if err := s.notifier.SendOTP(ctx, identifier, code, purpose, s.cfg.Expiry); err != nil {
		return nil, fmt.Errorf("send otp: %w", err)
	}

	res := &IssueResult{ExpiresAt: time.Unix(rec.ExpiresAt, 0).UTC()}
	if s.cfg.DebugExposeCode {
		res.DebugCode = code
	}
	return res, nil
}

func (s *service) Verify(ctx context.Context, identifier, code string, purpose domain.Purpose) (*VerifyResult, error) {
	rec, err := s.repo.Get(ctx, identifier, purpose)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// No record for this (identifier, purpose).
			return nil, fmt.Errorf("no matching code: %w", domain.ErrInvalidCode)
		}
		return nil, fmt.Errorf("load otp record: %w", err)
	}
	if rec.Verified {
		// Already used once.
		return nil, fmt.Errorf("no matching code: %w", domain.ErrInvalidCode)
	}

	if !otpcode.Match(rec.CodeHash, code) {
		attempts, err := s.repo.IncrementAttempts(ctx, identifier, purpose)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Record vanished under us: ceiling or sweep on another request.
				return nil, fmt.Errorf("no matching code: %w", domain.ErrInvalidCode)
			}
			return nil, fmt.Errorf("count otp attempt: %w", err)
		}
		if attempts >= maxAttempts {
			// Destructive ceiling: even the correct code is dead now.
			if err := s.repo.Delete(ctx, identifier, purpose); err != nil {
				slog.Warn("failed to delete otp record at attempt ceiling", "identifier", identifier, "purpose", purpose, "err", err)
			}
			return nil, fmt.Errorf("attempt limit reached, request a new code: %w", domain.ErrTooManyAttempts)
		}
		return nil, fmt.Errorf("no matching code: %w", domain.ErrInvalidCode)
	}

	if s.now().Unix() > rec.ExpiresAt {
		if err := s.repo.Delete(ctx, identifier, purpose); err != nil {
			slog.Warn("failed to delete expired otp record", "identifier", identifier, "purpose", purpose, "err", err)
		}
		return nil, fmt.Errorf("code expired, request a new one: %w", domain.ErrCodeExpired)
	}

	// Flip verified exactly once; the record is no longer re-matchable.
	if err := s.repo.Update(ctx, identifier, purpose, map[string]interface{}{"verified": true}); err != nil {
		return nil, err
	}
	return &VerifyResult{Metadata: rec.Metadata}, nil
}

func (s *service) Consume(ctx context.Context, identifier string, purpose domain.Purpose) error {
	err := s.repo.Delete(ctx, identifier, purpose)
	if err != nil && errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

func (s *service) CleanupExpired(ctx context.Context) (int, error) {
	return s.repo.DeleteExpired(ctx, s.now().Unix())
}
