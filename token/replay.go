package token

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// ReplayCache remembers token signatures until the tokens expire
type ReplayCache struct {
	seen *cache.Cache
}

// NewReplayCache creates a cache that purges expired signatures every cleanupInterval
func NewReplayCache(cleanupInterval time.Duration) *ReplayCache {
	return &ReplayCache{
		seen: cache.New(DefaultLifetime, cleanupInterval),
	}
}

// Use records a signature, failing with ErrTokenReplayed if it was already recorded.
func (r *ReplayCache) Use(signature string, ttl time.Duration) error {
	if ttl < time.Second {
		ttl = time.Second
	}
	if err := r.seen.Add(signature, struct{}{}, ttl); err != nil {
		return ErrTokenReplayed
	}
	return nil
}

// Len returns the number of remembered signatures, including expired ones not yet purged
func (r *ReplayCache) Len() int {
	return r.seen.ItemCount()
}
