package poolmfa

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poolctl/cognito-admin/pkg/cognito"
)

const (
	defaultMaxAttempts = 10
	defaultInterval    = time.Second
)

// Service reads and writes the single pool-wide MFA mode and provides a
// bounded-wait convergence check. The mode is shared mutable state with no
// locking: concurrent operators race, last writer wins, and WaitForMode only
// gives the initiating session its own causal ordering.
type Service struct {
	client      cognito.Client
	maxAttempts int
	interval    time.Duration
}

type Option func(*Service)

// WithMaxAttempts overrides the convergence poll bound.
func WithMaxAttempts(attempts int) Option {
	return func(s *Service) {
		s.maxAttempts = attempts
	}
}

// WithInterval overrides the sleep between convergence polls.
func WithInterval(interval time.Duration) Option {
	return func(s *Service) {
		s.interval = interval
	}
}

// NewService creates a pool policy coordinator.
func NewService(client cognito.Client, opts ...Option) *Service {
	s := &Service{
		client:      client,
		maxAttempts: defaultMaxAttempts,
		interval:    defaultInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetConfig returns the current pool MFA mode and enabled methods. Always a
// provider read, never a cache.
func (s *Service) GetConfig(ctx context.Context) (*cognito.PoolMFAConfig, error) {
	cfg, err := s.client.PoolMFAConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool MFA config: %w", err)
	}
	return cfg, nil
}

// SetConfig writes the pool MFA mode. The write is eventually consistent:
// callers that depend on the new mode must follow with WaitForMode.
func (s *Service) SetConfig(ctx context.Context, mode string) error {
	if err := ValidateMode(mode); err != nil {
		return err
	}
	if err := s.client.SetPoolMFAConfig(ctx, mode); err != nil {
		return fmt.Errorf("failed to set pool MFA config: %w", err)
	}
	slog.Info("Pool MFA config updated", "mode", mode)
	return nil
}

// WaitForMode polls the pool config until the observed mode equals expected,
// sleeping between attempts. Returns ConvergenceTimeoutError after the bound
// is exhausted, or the context error if the caller gives up first.
func (s *Service) WaitForMode(ctx context.Context, expected string) error {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.interval):
		}

		cfg, err := s.client.PoolMFAConfig(ctx)
		if err != nil {
			return fmt.Errorf("failed to poll pool MFA config: %w", err)
		}
		if cfg.Mode == expected {
			slog.Info("Pool MFA mode converged", "mode", expected, "attempts", attempt+1)
			return nil
		}
	}
	return ConvergenceTimeoutError{Mode: expected, Attempts: s.maxAttempts}
}

// ValidateMode checks that mode is one of OFF, OPTIONAL or ON.
func ValidateMode(mode string) error {
	switch mode {
	case cognito.MFAModeOff, cognito.MFAModeOptional, cognito.MFAModeOn:
		return nil
	default:
		return ErrInvalidMode{Mode: mode}
	}
}
