package memory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Deduplicator holds dedup keys in a process-local expiring cache.
type Deduplicator struct {
	cache *cache.Cache
}

// NewDeduplicator creates a Deduplicator; expired keys are swept every cleanup interval.
func NewDeduplicator(cleanup time.Duration) *Deduplicator {
	return &Deduplicator{cache: cache.New(cache.NoExpiration, cleanup)}
}

// Claim is atomic: go-cache's Add fails when an unexpired entry exists.
func (d *Deduplicator) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return true, nil
	}
	return d.cache.Add(key, struct{}{}, ttl) == nil, nil
}

func (d *Deduplicator) Release(ctx context.Context, key string) error {
	d.cache.Delete(key)
	return nil
}

//Personal.AI order the ending
