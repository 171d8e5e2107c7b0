package authgateway

import (
	"context"
	"encoding/json"
	"time"

	"sanctum/internal/models"
	"sanctum/internal/platform"

	"github.com/google/uuid"
)

func parseUserID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// VerdictCache caches a successful verification keyed by token hash, so a
// cache hit short-circuits the JWKS lookup, signature check, exp check,
// and revocation lookup on repeat presentation of the same credential
// (spec.md §4.A step 6).
type VerdictCache struct {
	kv  platform.KeyValueStore
	ttl time.Duration
}

// NewVerdictCache constructs a VerdictCache with the given default ceiling TTL.
func NewVerdictCache(kv platform.KeyValueStore, ttl time.Duration) *VerdictCache {
	return &VerdictCache{kv: kv, ttl: ttl}
}

func verdictKey(hash string) string { return "authverdict:" + hash }

type cachedVerdict struct {
	UserID      string       `json:"userId"`
	DisplayName string       `json:"displayName"`
	Roles       []models.Role `json:"roles"`
	TokenID     string       `json:"tokenId"`
	Exp         time.Time    `json:"exp"`
}

// Get returns the cached verdict for hash, if present and unexpired.
func (c *VerdictCache) Get(ctx context.Context, hash string) (*models.VerifiedCredential, bool) {
	raw, err := c.kv.Get(ctx, verdictKey(hash))
	if err != nil {
		return nil, false
	}
	var v cachedVerdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, false
	}
	userID, err := parseUserID(v.UserID)
	if err != nil {
		return nil, false
	}
	return &models.VerifiedCredential{
		UserRef: models.UserRef{UserID: userID, DisplayName: v.DisplayName, Roles: v.Roles},
		TokenID: v.TokenID,
		Exp:     v.Exp,
	}, true
}

// Set stores verified under hash for ttl (capped by the cache's ceiling).
func (c *VerdictCache) Set(ctx context.Context, hash string, verified *models.VerifiedCredential, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if ttl > c.ttl {
		ttl = c.ttl
	}
	v := cachedVerdict{
		UserID:      verified.UserRef.UserID.String(),
		DisplayName: verified.UserRef.DisplayName,
		Roles:       verified.UserRef.Roles,
		TokenID:     verified.TokenID,
		Exp:         verified.Exp,
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.kv.Set(ctx, verdictKey(hash), string(raw), ttl)
}
