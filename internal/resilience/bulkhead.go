package resilience

import (
	"context"

	"golang.org/x/sync/semaphore"

	"sanctum/internal/apperrors"
)

// Bulkhead caps concurrent in-flight calls to a dependency. Unlike
// RateLimiter it bounds concurrency rather than throughput: a call that
// cannot acquire a slot fails fast instead of queueing, per spec.md §4.B.
type Bulkhead struct {
	sem           *semaphore.Weighted
	maxConcurrent int64
}

// NewBulkhead builds a Bulkhead permitting at most maxConcurrent
// simultaneous calls (default 25 per spec.md §6's BH_MAX_CONCURRENT).
func NewBulkhead(maxConcurrent int) *Bulkhead {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Bulkhead{sem: semaphore.NewWeighted(int64(maxConcurrent)), maxConcurrent: int64(maxConcurrent)}
}

// Do runs fn if a slot is free, else returns an apperrors dependency-
// unavailable error without invoking fn.
func (b *Bulkhead) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if !b.sem.TryAcquire(1) {
		return apperrors.NewDependencyUnavailable("bulkhead capacity exhausted", nil)
	}
	defer b.sem.Release(1)
	return fn(ctx)
}
