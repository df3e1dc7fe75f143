package cache

import (
	"context"
	"time"

	rediscommon "github.com/vestacare/credops/common/redis"
)

// RedisCache is a Cache backed by Redis, for multi-instance deployments
// where identity lookups should be shared across replicas.
type RedisCache struct {
	client *rediscommon.Client
	prefix string
}

// NewRedisCache creates a Redis-backed cache. All keys are namespaced
// with the given prefix.
func NewRedisCache(client *rediscommon.Client, prefix string) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: prefix,
	}
}

// Get retrieves a value from Redis
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, ok, err := c.client.Get(ctx, c.prefix+key)
	if err != nil || !ok {
		return nil, false, err
	}
	return []byte(val), true, nil
}

// Set stores a value in Redis with TTL
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.SetWithExpiry(ctx, c.prefix+key, string(value), ttl)
}

// Delete removes a value from Redis
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Delete(ctx, c.prefix+key)
}

// Close is a no-op; the underlying client is owned by the container
func (c *RedisCache) Close() error {
	return nil
}
