package analytics

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache is a best-effort TTL cache. Unavailability degrades to direct reads,
// never to a hard failure.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// RedisCache backs the cache with redis. All errors are treated as misses.
type RedisCache struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisCache(client *redis.Client, log *zap.Logger) *RedisCache {
	return &RedisCache{client: client, log: log}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Debug("cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return raw, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Debug("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Fetch is a read-through helper: return the cached value when present,
// otherwise load, store, and return.
func Fetch(ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if raw, ok := c.Get(ctx, key); ok {
		return raw, nil
	}
	raw, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.Set(ctx, key, raw, ttl)
	return raw, nil
}
