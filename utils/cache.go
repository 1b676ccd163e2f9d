package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a byte store with per-key expiry. It backs the index page cache,
// the token blacklist, oauth state and captcha answers.
type Cache interface {
	// Get returns the value for key, or false on a miss or backend error.
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Take returns the value and removes it in one step.
	Take(ctx context.Context, key string) ([]byte, bool)
}

// RedisCache stores entries in redis under a common key prefix.
type RedisCache struct {
	rc     *redis.Client
	prefix string
}

func NewRedisCache(rc *redis.Client, prefix string) *RedisCache {
	return &RedisCache{rc: rc, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := c.rc.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			Sugar.Debugf("cache get failed key=%s err=%v", key, err)
		}
		return nil, false
	}
	return b, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rc.Set(ctx, c.prefix+key, value, ttl).Err()
}

func (c *RedisCache) Take(ctx context.Context, key string) ([]byte, bool) {
	b, err := c.rc.GetDel(ctx, c.prefix+key).Bytes()
	if err == nil {
		return b, true
	}
	if err == redis.Nil {
		return nil, false
	}
	// GETDEL needs redis >= 6.2
	script := `local v=redis.call('GET', KEYS[1]); if v then redis.call('DEL', KEYS[1]); end; return v`
	res, err := c.rc.Eval(ctx, script, []string{c.prefix + key}).Result()
	if err != nil || res == nil {
		return nil, false
	}
	s, ok := res.(string)
	return []byte(s), ok
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is a single-process Cache. Expired entries are dropped lazily on read
// and swept on write.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithClock(time.Now)
}

// NewMemoryCacheWithClock lets tests control expiry.
func NewMemoryCacheWithClock(now func() time.Time) *MemoryCache {
	return &MemoryCache{entries: map[string]memoryEntry{}, now: now}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookupLocked(key)
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	if ttl <= 0 {
		return nil
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	c.entries[key] = memoryEntry{value: stored, expiresAt: now.Add(ttl)}
	return nil
}

func (c *MemoryCache) Take(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lookupLocked(key)
	delete(c.entries, key)
	return v, ok
}

func (c *MemoryCache) lookupLocked(key string) ([]byte, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}
