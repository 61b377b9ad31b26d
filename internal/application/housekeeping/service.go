// Package housekeeping periodically deletes expired OTP records and refresh
// tokens so the tables don't grow without bound. It has no correctness role:
// verify and rotate re-check expiry on their own.
package housekeeping

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper deletes all records expiring before now and reports the count.
// Both the OTP and refresh token repositories satisfy it.
type Sweeper interface {
	DeleteExpired(ctx context.Context, now int64) (int, error)
}

// Service runs the sweep on a fixed interval and once at start.
type Service struct {
	otps     Sweeper
	tokens   Sweeper
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewService creates the sweeper. An interval <= 0 defaults to 1 hour.
func NewService(otps, tokens Sweeper, logger *slog.Logger, interval time.Duration) *Service {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Service{
		otps:     otps,
		tokens:   tokens,
		logger:   logger,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background worker. Non-blocking; call Stop to shut down.
func (s *Service) Start() {
	go s.run()
	s.logger.Info("housekeeping started", "interval", s.interval)
}

// Stop shuts the worker down, blocking until any in-progress sweep finishes.
func (s *Service) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.logger.Info("housekeeping stopped")
}

func (s *Service) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep deletes expired records once. Each deletion is independent; a failure
// in one table does not stop the other. Safe to run concurrently with live
// verify/rotate traffic — deletes are by expiry predicate and idempotent.
func (s *Service) Sweep(ctx context.Context) {
	now := s.now().Unix()
	otps, err := s.otps.DeleteExpired(ctx, now)
	if err != nil {
		s.logger.Error("failed to sweep expired otp records", "err", err)
	}
	tokens, err := s.tokens.DeleteExpired(ctx, now)
	if err != nil {
		s.logger.Error("failed to sweep expired refresh tokens", "err", err)
	}
	s.logger.Info("housekeeping sweep completed", "otps_deleted", otps, "tokens_deleted", tokens)
}
