package idgen

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
)

// Counter hands out strictly increasing values. No two calls, concurrent or
// not, observe the same value.
type Counter interface {
	NextValue(ctx context.Context) (uint64, error)
}

// AtomicCounter is a process-local Counter seeded from the wall clock so a
// restarted process does not replay the previous instance's values.
type AtomicCounter struct {
	next atomic.Uint64
	step uint64
}

// NewAtomicCounter starts at seed and advances by step on every call.
// A zero seed means "now in milliseconds"; a zero step means 1.
func NewAtomicCounter(seed, step uint64) *AtomicCounter {
	if seed == 0 {
		seed = uint64(time.Now().UnixMilli())
	}
	if step == 0 {
		step = 1
	}
	c := &AtomicCounter{step: step}
	c.next.Store(seed)
	return c
}

// NextValue returns the current value and advances the counter.
func (c *AtomicCounter) NextValue(_ context.Context) (uint64, error) {
	return c.next.Add(c.step) - c.step, nil
}

// RedisCounter shares one counter between every replica pointed at the same
// Redis key. INCRBY is atomic on the server, so replicas never collide.
type RedisCounter struct {
	redis *redis.Client
	key   string
	step  int64
}

// NewRedisCounter seeds key with the current time in milliseconds unless it
// already holds a value from an earlier process.
func NewRedisCounter(ctx context.Context, redisClient *redis.Client, key string, step int64) (*RedisCounter, error) {
	if key == "" {
		return nil, errors.New("idgen: redis counter key must not be empty")
	}
	if step <= 0 {
		step = 1
	}
	if err := redisClient.SetNX(ctx, key, time.Now().UnixMilli(), 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to seed counter %s: %w", key, err)
	}
	return &RedisCounter{redis: redisClient, key: key, step: step}, nil
}

// NextValue returns the value the counter held before this call's INCRBY.
func (c *RedisCounter) NextValue(ctx context.Context) (uint64, error) {
	val, err := c.redis.IncrBy(ctx, c.key, c.step).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter: %w", err)
	}
	return uint64(val - c.step), nil
}
