package resilience

import (
	"context"

	"sanctum/internal/apperrors"
	"sanctum/internal/observability"
)

// Executor composes the full per-dependency resilience fabric described
// in spec.md §4.B, applied outermost to innermost: rate limiter, bulkhead,
// time limiter, circuit breaker, retry, around the primary call.
type Executor struct {
	Dependency string
	Rate       *RateLimiter
	Bulkhead   *Bulkhead
	TimeLimit  *TimeLimiter
	Breaker    *CircuitBreaker
	Retry      *RetryPolicy
}

// Do runs fn through every configured layer, outermost to innermost: rate
// limiter, bulkhead, time limiter, circuit breaker, retry, primary call. A
// nil layer is skipped, letting callers omit whichever stage the dependency
// doesn't need.
//
// Retry sits inside the breaker, not outside it: a breaker-open rejection
// (or a rate-limit rejection, checked before any of this) must fail fast
// rather than be replayed up to MaxAttempts times, which would both defeat
// the breaker's open state and pollute its failure counts with multiple
// samples per logical call.
func (e *Executor) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	call := fn

	if e.Retry != nil {
		inner := call
		call = func(ctx context.Context) error { return e.Retry.Do(ctx, inner) }
	}
	if e.Breaker != nil {
		inner := call
		call = func(ctx context.Context) error { return e.Breaker.Execute(ctx, inner) }
	}
	if e.TimeLimit != nil {
		inner := call
		call = func(ctx context.Context) error { return e.TimeLimit.Do(ctx, inner) }
	}
	if e.Bulkhead != nil {
		inner := call
		call = func(ctx context.Context) error { return e.Bulkhead.Do(ctx, inner) }
	}

	run := func(ctx context.Context) error {
		if e.Rate != nil && !e.Rate.Allow() {
			observability.ResilienceCallsTotal.WithLabelValues(e.Dependency, "rate_limited").Inc()
			return apperrors.NewDependencyUnavailable(e.Dependency, nil)
		}
		return call(ctx)
	}

	err := run(ctx)

	if err == nil {
		observability.ResilienceCallsTotal.WithLabelValues(e.Dependency, "success").Inc()
	} else {
		observability.ResilienceCallsTotal.WithLabelValues(e.Dependency, "failure").Inc()
	}
	return err
}
