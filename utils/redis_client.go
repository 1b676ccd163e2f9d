package utils

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/yatube/config"
)

// NewRedisClient builds a client from config and pings it. The client is
// returned even when the ping fails so callers can decide whether to fall back.
func NewRedisClient(ctx context.Context, cfg config.AppConfig) (*redis.Client, error) {
	rc := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return rc, rc.Ping(pingCtx).Err()
}

// NewCache picks the cache backend named by cfg.CacheBackend. A redis backend
// that cannot be reached degrades to the in-memory cache with a warning.
func NewCache(ctx context.Context, cfg config.AppConfig) Cache {
	if cfg.CacheBackend != "redis" {
		return NewMemoryCache()
	}
	rc, err := NewRedisClient(ctx, cfg)
	if err != nil {
		Sugar.Warnf("redis unavailable (%v), using in-memory cache", err)
		_ = rc.Close()
		return NewMemoryCache()
	}
	return NewRedisCache(rc, "yatube:")
}
