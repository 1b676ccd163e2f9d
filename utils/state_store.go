package utils

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StateStore issues single-use oauth state tokens to mitigate CSRF.
type StateStore struct {
	cache Cache
	ttl   time.Duration
}

func NewStateStore(cache Cache, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateStore{cache: cache, ttl: ttl}
}

// Issue creates and stores a fresh state token.
func (s *StateStore) Issue(ctx context.Context) (string, error) {
	state := uuid.NewString()
	if err := s.cache.Set(ctx, "oauth:state:"+state, []byte("1"), s.ttl); err != nil {
		return "", err
	}
	return state, nil
}

// Consume validates and removes a state token.
func (s *StateStore) Consume(ctx context.Context, state string) bool {
	if state == "" {
		return false
	}
	_, ok := s.cache.Take(ctx, "oauth:state:"+state)
	return ok
}
