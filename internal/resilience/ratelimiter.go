// Package resilience implements spec.md §4.B: one resilience instance per
// downstream dependency (identity, notification, buddy), layering
// rate-limiter → bulkhead → time-limiter → circuit-breaker → retry →
// primary call → fallback, outermost first.
package resilience

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter is the outermost layer: a local token bucket guarding a
// dependency's outbound call rate. Inbound API request throttling
// (RATE_LIMIT_PUBLIC/AUTHENTICATED/ADMIN, spec.md §6) is distributed and
// lives in BucketLimiter instead, since it must agree across instances.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter builds a RateLimiter allowing ratePerSec sustained calls
// with a burst of burst.
func NewRateLimiter(ratePerSec float64, burst int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst)}
}

// Allow reports whether a call may proceed right now without blocking.
// A rejected call fails fast per spec.md §4.B rather than queueing.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
