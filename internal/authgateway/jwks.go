package authgateway

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// jwksEntry caches a resolved key, positive or negative (NotFound), along
// with the expiry after which the cache must refresh.
type jwksEntry struct {
	key       *rsa.PublicKey
	found     bool
	expiresAt time.Time
}

// JWKSCache is the process-local KeyResolver backing spec.md §4.A step 2:
// resolve by kid with TTL 1h positive / 1m negative, single-flighted so
// concurrent misses for the same kid coalesce into one fetch.
type JWKSCache struct {
	url        string
	httpClient *http.Client
	positiveTTL time.Duration
	negativeTTL time.Duration

	mu      sync.RWMutex
	entries map[string]jwksEntry

	group singleflight.Group
}

// NewJWKSCache constructs a JWKSCache that fetches from url on miss.
func NewJWKSCache(url string, httpClient *http.Client) *JWKSCache {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &JWKSCache{
		url:         url,
		httpClient:  httpClient,
		positiveTTL: time.Hour,
		negativeTTL: time.Minute,
		entries:     make(map[string]jwksEntry),
	}
}

type jwkKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwksDocument struct {
	Keys []jwkKey `json:"keys"`
}

// ResolveKey implements KeyResolver. On a cache miss it fetches the whole
// JWKS document and populates every key found in it, not just the
// requested kid, since one fetch is expected to serve subsequent lookups.
func (c *JWKSCache) ResolveKey(ctx context.Context, kid string) (any, error) {
	if key, ok := c.lookup(kid); ok {
		if key == nil {
			return nil, fmt.Errorf("kid %q not present in JWKS (negative-cached)", kid)
		}
		return key, nil
	}

	v, err, _ := c.group.Do(kid, func() (any, error) {
		if err := c.refresh(ctx); err != nil {
			return nil, err
		}
		if key, ok := c.lookup(kid); ok && key != nil {
			return key, nil
		}
		c.markMissing(kid)
		return nil, fmt.Errorf("kid %q not present in JWKS", kid)
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (c *JWKSCache) lookup(kid string) (*rsa.PublicKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[kid]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	if !e.found {
		return nil, true
	}
	return e.key, true
}

func (c *JWKSCache) markMissing(kid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[kid] = jwksEntry{found: false, expiresAt: time.Now().Add(c.negativeTTL)}
}

func (c *JWKSCache) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("jwks fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks fetch: unexpected status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("jwks decode: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	expiresAt := time.Now().Add(c.positiveTTL)
	for _, k := range doc.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := decodeRSAPublicKey(k.N, k.E)
		if err != nil {
			continue
		}
		c.entries[k.Kid] = jwksEntry{key: pub, found: true, expiresAt: expiresAt}
	}
	return nil
}

func decodeRSAPublicKey(nB64, eB64 string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nB64)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eB64)
	if err != nil {
		return nil, err
	}
	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

// StaticKeyResolver is a fixed-key KeyResolver for tests and for the local
// fallback mode when JWKS_URL is unset but a single trusted key is known.
type StaticKeyResolver struct {
	Key *rsa.PublicKey
}

// ResolveKey always returns the configured static key.
func (s StaticKeyResolver) ResolveKey(ctx context.Context, kid string) (any, error) {
	if s.Key == nil {
		return nil, fmt.Errorf("no static key configured")
	}
	return s.Key, nil
}
