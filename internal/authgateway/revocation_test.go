package authgateway

import (
	"context"
	"testing"
	"time"

	"sanctum/internal/platform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevocationChecker_RevokeAndCheck(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	kv := platform.NewMemoryKVStoreWithClock(clock)
	checker := NewRevocationChecker(kv)
	ctx := context.Background()

	revoked, err := checker.IsRevoked(ctx, "jti-a")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, checker.Revoke(ctx, "jti-a", clock.Now().Add(time.Hour), clock.Now()))

	revoked, err = checker.IsRevoked(ctx, "jti-a")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRevocationChecker_SelfExpires(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	kv := platform.NewMemoryKVStoreWithClock(clock)
	checker := NewRevocationChecker(kv)
	ctx := context.Background()

	require.NoError(t, checker.Revoke(ctx, "jti-b", clock.Now().Add(time.Minute), clock.Now()))
	clock.Advance(2 * time.Minute)

	revoked, err := checker.IsRevoked(ctx, "jti-b")
	require.NoError(t, err)
	assert.False(t, revoked, "entry must self-expire at the token's own exp")
}
