package redis

import (
	"context"
	"errors"
	"time"

	"github.com/quickksynkk/synk-hub/internal/domain/recommendation"
)

// RecommendationCache implements recommendation.Cache on top of Cache.
type RecommendationCache struct {
	cache *Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewRecommendationCache creates a RecommendationCache. A non-positive ttl
// falls back to TTLRecommendations.
func NewRecommendationCache(cache *Cache, ttl time.Duration) *RecommendationCache {
	if ttl <= 0 {
		ttl = TTLRecommendations
	}
	return &RecommendationCache{cache: cache, ttl: ttl, now: time.Now}
}

var _ recommendation.Cache = (*RecommendationCache)(nil)

// Get returns the cached batch or nil on a miss.
func (r *RecommendationCache) Get(ctx context.Context, userID string) (*recommendation.Batch, error) {
	var batch recommendation.Batch
	err := r.cache.Get(ctx, RecommendationsKey(userID), &batch)
	if errors.Is(err, ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// Set caches batch until the earlier of the cache TTL and the batch expiry.
// Already expired batches are not cached.
func (r *RecommendationCache) Set(ctx context.Context, batch *recommendation.Batch) error {
	if batch == nil {
		return ErrCacheNilValue
	}

	ttl := r.ttl
	if remaining := batch.ExpiresAt.Sub(r.now()); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return nil
	}

	return r.cache.Set(ctx, RecommendationsKey(batch.UserID), batch, ttl)
}

// Invalidate drops the cached batch of userID.
func (r *RecommendationCache) Invalidate(ctx context.Context, userID string) error {
	return r.cache.Delete(ctx, RecommendationsKey(userID))
}
