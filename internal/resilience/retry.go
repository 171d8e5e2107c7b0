package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"sanctum/internal/apperrors"
)

// RetryConfig tunes RetryPolicy per spec.md §4.B: exponential backoff
// starting at BaseDelay, doubling by Multiplier, jittered by JitterPct,
// capped at MaxAttempts. Authentication, authorization, and validation
// failures are never retried regardless of these settings.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	JitterPct   float64
}

// RetryPolicy wraps cenkalti/backoff/v5's generic Retry helper.
type RetryPolicy struct {
	cfg RetryConfig
}

// NewRetryPolicy builds a RetryPolicy from cfg.
func NewRetryPolicy(cfg RetryConfig) *RetryPolicy {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = 2
	}
	return &RetryPolicy{cfg: cfg}
}

// Do retries fn until it succeeds, returns a non-retryable apperrors.AppError,
// or MaxAttempts is exhausted.
func (r *RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.BaseDelay
	b.Multiplier = r.cfg.Multiplier
	b.RandomizationFactor = r.cfg.JitterPct

	op := func() (struct{}, error) {
		err := fn(ctx)
		if err == nil {
			return struct{}{}, nil
		}
		if !apperrors.IsRetryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(r.cfg.MaxAttempts)),
	)
	return err
}
