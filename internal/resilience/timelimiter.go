package resilience

import (
	"context"
	"time"

	"sanctum/internal/apperrors"
)

// TimeLimiter bounds how long a single call may run before it is treated
// as failed, independent of any deadline already on ctx. Per spec.md §6
// this defaults to 5s, with notification calls allowed up to 10s.
type TimeLimiter struct {
	timeout time.Duration
}

// NewTimeLimiter builds a TimeLimiter enforcing the given timeout.
func NewTimeLimiter(timeout time.Duration) *TimeLimiter {
	return &TimeLimiter{timeout: timeout}
}

// Do runs fn with ctx bounded by the configured timeout, translating a
// timeout into an apperrors transient failure so the retry layer above it
// can decide whether to try again.
func (t *TimeLimiter) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(callCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-callCtx.Done():
		return apperrors.NewTransient("call exceeded time limit", callCtx.Err())
	}
}
