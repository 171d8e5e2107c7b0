package resilience

import (
	"context"
	"errors"

	"sanctum/internal/apperrors"
	"sanctum/internal/observability"
)

// Fallback supplies a degraded response when a dependency is unavailable.
// A fallback invocation is recorded in the resilience call metric as
// "breaker_open_fallback" when the primary call failed with
// DEPENDENCY_UNAVAILABLE and as "fallback" otherwise. Fallback reports
// nothing to any CircuitBreaker; the breaker's counts are not changed by
// a fallback invocation.
type Fallback[T any] struct {
	dependency string
	fn         func(ctx context.Context, cause error) (T, error)
}

// NewFallback builds a Fallback for dependency, invoking fn when the
// primary call fails.
func NewFallback[T any](dependency string, fn func(ctx context.Context, cause error) (T, error)) *Fallback[T] {
	return &Fallback[T]{dependency: dependency, fn: fn}
}

// Apply runs primary; on failure it invokes the fallback function and
// records the appropriate resilience outcome metric.
func (f *Fallback[T]) Apply(ctx context.Context, primary func(ctx context.Context) (T, error)) (T, error) {
	result, err := primary(ctx)
	if err == nil {
		observability.ResilienceCallsTotal.WithLabelValues(f.dependency, "success").Inc()
		return result, nil
	}

	outcome := "fallback"
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code == apperrors.CodeDependencyUnavailable {
		outcome = "breaker_open_fallback"
	}
	observability.ResilienceCallsTotal.WithLabelValues(f.dependency, outcome).Inc()

	return f.fn(ctx, err)
}
