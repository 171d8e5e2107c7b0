package authgateway

import (
	"context"
	"errors"
	"time"

	"sanctum/internal/apperrors"
	"sanctum/internal/platform"
)

// RevocationChecker maintains the shared revoke:<jti> namespace described
// in spec.md §6. Entries expire at the token's own exp, so the set never
// grows unboundedly.
type RevocationChecker struct {
	kv platform.KeyValueStore
}

// NewRevocationChecker constructs a RevocationChecker over kv.
func NewRevocationChecker(kv platform.KeyValueStore) *RevocationChecker {
	return &RevocationChecker{kv: kv}
}

func revocationKey(jti string) string { return "revoke:" + jti }

// Revoke marks jti as revoked until exp, per spec.md §4.A's revocation semantics.
func (c *RevocationChecker) Revoke(ctx context.Context, jti string, exp, now time.Time) error {
	ttl := exp.Sub(now)
	if ttl <= 0 {
		return nil // already expired naturally; nothing to revoke
	}
	return c.kv.Set(ctx, revocationKey(jti), "1", ttl)
}

// IsRevoked reports whether jti is currently in the revocation set.
func (c *RevocationChecker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, err := c.kv.Get(ctx, revocationKey(jti))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	return false, err
}
