package platform

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"sanctum/internal/apperrors"
)

// RedisKVStore is the production KeyValueStore, backed by the teacher's
// go-redis/v9 client (internal/cache.GetClient). It realizes spec.md §6's
// "distributed key-value store" for presence records, revocation sets,
// the verdict cache, and rate-limit buckets.
type RedisKVStore struct {
	client *redis.Client
}

// NewRedisKVStore wraps client as a KeyValueStore.
func NewRedisKVStore(client *redis.Client) *RedisKVStore {
	return &RedisKVStore{client: client}
}

func (s *RedisKVStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", apperrors.ErrNotFound
	}
	if err != nil {
		return "", apperrors.NewDependencyUnavailable("redis", err)
	}
	return v, nil
}

func (s *RedisKVStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return apperrors.NewDependencyUnavailable("redis", err)
	}
	return nil
}

func (s *RedisKVStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, apperrors.NewDependencyUnavailable("redis", err)
	}
	return ok, nil
}

func (s *RedisKVStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return apperrors.NewDependencyUnavailable("redis", err)
	}
	return nil
}

func (s *RedisKVStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, apperrors.NewDependencyUnavailable("redis", err)
	}
	return incr.Val(), nil
}

func (s *RedisKVStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.Expire(ctx, key, ttl).Result()
	if err != nil {
		return false, apperrors.NewDependencyUnavailable("redis", err)
	}
	return ok, nil
}
