package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the single-key store backing one-time codes and login sessions.
// Each operation is atomic per key; GetDel is the atomic "take" used to
// consume a one-time code exactly once.
type Cache interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns ("", nil) when the key does not exist.
	Get(ctx context.Context, key string) (string, error)
	// GetDel returns the value and removes the key in one operation.
	// Returns ("", nil) when the key does not exist.
	GetDel(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisCache implements Cache on go-redis.
type RedisCache struct {
	rdb *redis.Client
}

// Connect creates a Redis-backed cache and verifies connectivity.
func Connect(url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisCache{rdb: rdb}, nil
}

// Raw returns the underlying redis client for advanced usage.
func (c *RedisCache) Raw() *redis.Client { return c.rdb }

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (c *RedisCache) GetDel(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.GetDel(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}
