package platform

import (
	"context"
	"strconv"
	"sync"
	"time"

	"sanctum/internal/apperrors"
)

type memEntry struct {
	value     string
	expiresAt time.Time
	hasTTL    bool
}

func (e memEntry) expired(now time.Time) bool {
	return e.hasTTL && now.After(e.expiresAt)
}

// MemoryKVStore is an in-memory KeyValueStore for tests: it never touches
// a real Redis instance, so the auth gateway, presence core, and
// resilience fabric can be exercised in unit tests without one.
type MemoryKVStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

// NewMemoryKVStore returns an empty MemoryKVStore using wall-clock time
// for TTL expiry.
func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{entries: make(map[string]memEntry), now: time.Now}
}

// NewMemoryKVStoreWithClock returns a MemoryKVStore whose TTL expiry is
// driven by clock, so tests can advance time deterministically.
func NewMemoryKVStoreWithClock(clock Clock) *MemoryKVStore {
	return &MemoryKVStore{entries: make(map[string]memEntry), now: clock.Now}
}

func (s *MemoryKVStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || e.expired(s.now()) {
		delete(s.entries, key)
		return "", apperrors.ErrNotFound
	}
	return e.value, nil
}

func (s *MemoryKVStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memEntry{value: value}
	if ttl > 0 {
		e.hasTTL = true
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

func (s *MemoryKVStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && !e.expired(s.now()) {
		return false, nil
	}
	e := memEntry{value: value}
	if ttl > 0 {
		e.hasTTL = true
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = e
	return true, nil
}

func (s *MemoryKVStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemoryKVStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	var n int64
	if ok && !e.expired(s.now()) {
		n = parseInt64(e.value) + 1
	} else {
		n = 1
	}
	newEntry := memEntry{value: formatInt64(n)}
	if ttl > 0 {
		newEntry.hasTTL = true
		newEntry.expiresAt = s.now().Add(ttl)
	} else if ok && e.hasTTL {
		newEntry.hasTTL = true
		newEntry.expiresAt = e.expiresAt
	}
	s.entries[key] = newEntry
	return n, nil
}

func (s *MemoryKVStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || e.expired(s.now()) {
		return false, nil
	}
	e.hasTTL = true
	e.expiresAt = s.now().Add(ttl)
	s.entries[key] = e
	return true, nil
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func formatInt64(n int64) string {
	return strconv.FormatInt(n, 10)
}
