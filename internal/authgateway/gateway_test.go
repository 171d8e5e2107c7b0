package authgateway

import (
	"context"
	"testing"
	"time"

	"sanctum/internal/platform"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLegacySecret = "test-legacy-secret-1234567890123456"

func newTestGateway(t *testing.T, clock platform.Clock) (*Gateway, platform.KeyValueStore) {
	kv := platform.NewMemoryKVStoreWithClock(clock)
	cfg := DefaultConfig()
	cfg.LegacySecret = testLegacySecret
	gw := NewGateway(cfg, StaticKeyResolver{}, kv, clock)
	return gw, kv
}

func generateLegacyToken(t *testing.T, userID uuid.UUID, jti string, exp time.Time, roles []string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"jti": jti,
		"exp": exp.Unix(),
	}
	if roles != nil {
		anyRoles := make([]any, len(roles))
		for i, r := range roles {
			anyRoles[i] = r
		}
		claims["roles"] = anyRoles
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	s, err := token.SignedString([]byte(testLegacySecret))
	require.NoError(t, err)
	return s
}

func TestGateway_Verify_HappyPath(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	gw, _ := newTestGateway(t, clock)
	userID := uuid.New()

	cred := generateLegacyToken(t, userID, "jti-1", clock.Now().Add(time.Hour), []string{"USER"})

	verified, err := gw.Verify(context.Background(), cred)
	require.NoError(t, err)
	assert.Equal(t, userID, verified.UserRef.UserID)
	assert.Equal(t, "jti-1", verified.TokenID)
	assert.True(t, verified.UserRef.HasRole("USER"))
}

func TestGateway_Verify_Expired(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	gw, _ := newTestGateway(t, clock)
	cred := generateLegacyToken(t, uuid.New(), "jti-2", clock.Now().Add(-time.Minute), nil)

	_, err := gw.Verify(context.Background(), cred)
	assert.Error(t, err)
}

func TestGateway_Verify_ClockSkewTolerance(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	gw, _ := newTestGateway(t, clock)
	// Expired 10s ago, within the default 30s skew tolerance.
	cred := generateLegacyToken(t, uuid.New(), "jti-3", clock.Now().Add(-10*time.Second), nil)

	_, err := gw.Verify(context.Background(), cred)
	assert.NoError(t, err)
}

func TestGateway_Verify_Revoked(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	gw, _ := newTestGateway(t, clock)
	userID := uuid.New()
	exp := clock.Now().Add(time.Hour)
	cred := generateLegacyToken(t, userID, "jti-4", exp, nil)

	require.NoError(t, gw.Revoke(context.Background(), "jti-4", exp))

	_, err := gw.Verify(context.Background(), cred)
	assert.Error(t, err)
}

func TestGateway_Verify_VerdictCacheShortCircuitsRevocation(t *testing.T) {
	// Once cached, a verdict is trusted for its TTL even if the token is
	// later revoked — this documents current behavior (see DESIGN.md's
	// Open Question on verdict cache vs. revocation ordering), it isn't a
	// requirement the cache itself should change.
	clock := platform.NewFakeClock(time.Now())
	gw, _ := newTestGateway(t, clock)
	userID := uuid.New()
	exp := clock.Now().Add(time.Hour)
	cred := generateLegacyToken(t, userID, "jti-5", exp, nil)

	_, err := gw.Verify(context.Background(), cred)
	require.NoError(t, err)

	require.NoError(t, gw.Revoke(context.Background(), "jti-5", exp))

	verified, err := gw.Verify(context.Background(), cred)
	require.NoError(t, err)
	assert.Equal(t, userID, verified.UserRef.UserID)
}

func TestGateway_Verify_MalformedCredential(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	gw, _ := newTestGateway(t, clock)

	_, err := gw.Verify(context.Background(), "not-a-jwt")
	assert.Error(t, err)
}

func TestGateway_Verify_NoLegacySecretRejectsHS512(t *testing.T) {
	clock := platform.NewFakeClock(time.Now())
	kv := platform.NewMemoryKVStoreWithClock(clock)
	cfg := DefaultConfig()
	gw := NewGateway(cfg, StaticKeyResolver{}, kv, clock)

	cred := generateLegacyToken(t, uuid.New(), "jti-6", clock.Now().Add(time.Hour), nil)
	_, err := gw.Verify(context.Background(), cred)
	assert.Error(t, err)
}
