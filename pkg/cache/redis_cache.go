package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisLayer = "redis"

// RedisCache is a Cache shared by every replica using the same Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache creates a Redis cache whose keys are prefix+shortURL.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if ttl == 0 {
		ttl = 5 * time.Minute // default
	}
	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (r *RedisCache) Lookup(ctx context.Context, shortURL string) (string, error) {
	v, err := r.client.Get(ctx, r.prefix+shortURL).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (r *RedisCache) Store(ctx context.Context, shortURL, fullURL string) error {
	return r.client.Set(ctx, r.prefix+shortURL, fullURL, r.ttl).Err()
}

func (r *RedisCache) Layer() string { return redisLayer }
