package platform

import (
	"context"
	"time"
)

// KeyValueStore abstracts the Redis-backed ephemeral state used by the
// presence core (device sessions), the auth gateway (revocation set,
// verdict cache), and the resilience fabric (rate-limit
// buckets). Production code is backed by go-redis; tests use an in-memory
// fake so the cores never need a live Redis instance to be exercised.
type KeyValueStore interface {
	// Get returns the value stored under key, or ErrNotFound if absent or expired.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key with an optional TTL (zero means no expiry).
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX stores value under key only if key is absent, reporting whether it set.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Delete removes key, no error if absent.
	Delete(ctx context.Context, key string) error
	// Incr atomically increments the integer stored at key (creating it at 0 first)
	// and returns the new value. Used by the rate limiter's fixed-window counters.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// Expire sets or refreshes key's TTL, reporting whether key existed.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
