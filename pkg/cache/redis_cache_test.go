package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisCache(client, "short:", time.Minute)
}

func TestRedisCache_LookupStore(t *testing.T) {
	mr, c := newRedisCache(t)
	ctx := context.Background()

	_, err := c.Lookup(ctx, "abc")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Store(ctx, "abc", "https://www.example.com"))
	got, err := c.Lookup(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "https://www.example.com", got)

	assert.True(t, mr.Exists("short:abc"))
	assert.Equal(t, time.Minute, mr.TTL("short:abc"))
	assert.Equal(t, "redis", c.Layer())
}

func TestRedisCache_Expires(t *testing.T) {
	mr, c := newRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, "abc", "https://www.example.com"))
	mr.FastForward(2 * time.Minute)

	_, err := c.Lookup(ctx, "abc")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_ServerDown(t *testing.T) {
	mr, c := newRedisCache(t)
	mr.Close()

	_, err := c.Lookup(context.Background(), "abc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
