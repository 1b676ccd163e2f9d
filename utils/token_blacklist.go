package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// TokenBlacklist remembers revoked JWTs until they would have expired anyway.
type TokenBlacklist struct {
	cache Cache
}

func NewTokenBlacklist(cache Cache) *TokenBlacklist {
	return &TokenBlacklist{cache: cache}
}

// Revoke stores the token until expiresAt. Already expired tokens are ignored.
func (b *TokenBlacklist) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return b.cache.Set(ctx, blacklistKey(token), []byte("1"), ttl)
}

// IsRevoked fails open: a cache error reads as not revoked.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, token string) bool {
	_, ok := b.cache.Get(ctx, blacklistKey(token))
	return ok
}

func blacklistKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "jwt:blacklist:" + hex.EncodeToString(sum[:])
}
