package utils

import (
	"context"
	"time"

	"github.com/mojocn/base64Captcha"
)

// cacheCaptchaStore implements base64Captcha.Store on top of Cache so answers
// survive across instances when the cache is redis.
type cacheCaptchaStore struct {
	cache Cache
	ttl   time.Duration
}

func newCacheCaptchaStore(cache Cache, ttl time.Duration) base64Captcha.Store {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &cacheCaptchaStore{cache: cache, ttl: ttl}
}

func (s *cacheCaptchaStore) key(id string) string {
	return "captcha:" + id
}

func (s *cacheCaptchaStore) Set(id string, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.cache.Set(ctx, s.key(id), []byte(value), s.ttl)
}

func (s *cacheCaptchaStore) Get(id string, clear bool) string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var (
		v  []byte
		ok bool
	)
	if clear {
		v, ok = s.cache.Take(ctx, s.key(id))
	} else {
		v, ok = s.cache.Get(ctx, s.key(id))
	}
	if !ok {
		return ""
	}
	return string(v)
}

func (s *cacheCaptchaStore) Verify(id, answer string, clear bool) bool {
	v := s.Get(id, clear)
	return v != "" && v == answer
}
