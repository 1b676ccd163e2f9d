package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCacheWithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 20*time.Second))
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", string(got))

	now = now.Add(19 * time.Second)
	_, ok = c.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok, "entry expires exactly at ttl")
}

func TestMemoryCacheTakeIsSingleUse(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "state", []byte("1"), time.Minute))

	_, ok := c.Take(ctx, "state")
	assert.True(t, ok)
	_, ok = c.Take(ctx, "state")
	assert.False(t, ok)
}

func TestMemoryCacheCopiesValue(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	buf := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'x'

	got, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(got))
}

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	return NewRedisCache(rc, "test:"), mr
}

func TestRedisCacheRoundTripAndExpiry(t *testing.T) {
	c, mr := newTestRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "index", []byte("<html>"), 20*time.Second))
	assert.True(t, mr.Exists("test:index"))

	got, ok := c.Get(ctx, "index")
	require.True(t, ok)
	assert.Equal(t, "<html>", string(got))

	mr.FastForward(21 * time.Second)
	_, ok = c.Get(ctx, "index")
	assert.False(t, ok)
}

func TestRedisCacheTake(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "s", []byte("1"), time.Minute))

	v, ok := c.Take(ctx, "s")
	require.True(t, ok)
	assert.Equal(t, "1", string(v))
	_, ok = c.Take(ctx, "s")
	assert.False(t, ok)
}

func TestRedisCacheBackendDownIsMiss(t *testing.T) {
	c, mr := newTestRedisCache(t)
	mr.Close()

	_, ok := c.Get(context.Background(), "anything")
	assert.False(t, ok)
}
