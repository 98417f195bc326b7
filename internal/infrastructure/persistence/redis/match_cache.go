package redis

import (
	"context"
	"errors"
	"time"

	"github.com/quickksynkk/synk-hub/internal/domain/matching"
)

// MatchCache implements matching.Cache on top of Cache.
type MatchCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewMatchCache creates a MatchCache. A non-positive ttl falls back to TTLMatches.
func NewMatchCache(cache *Cache, ttl time.Duration) *MatchCache {
	if ttl <= 0 {
		ttl = TTLMatches
	}
	return &MatchCache{cache: cache, ttl: ttl}
}

var _ matching.Cache = (*MatchCache)(nil)

// Get returns a cached ranking or nil on a miss.
func (m *MatchCache) Get(ctx context.Context, key matching.RankingKey) (*matching.Ranking, error) {
	var ranking matching.Ranking
	err := m.cache.Get(ctx, matchesKey(key), &ranking)
	if errors.Is(err, ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ranking, nil
}

// Set caches a ranking for the configured TTL.
func (m *MatchCache) Set(ctx context.Context, key matching.RankingKey, ranking *matching.Ranking) error {
	if ranking == nil {
		return ErrCacheNilValue
	}
	return m.cache.Set(ctx, matchesKey(key), ranking, m.ttl)
}

// InvalidateUser drops every cached query of userID.
func (m *MatchCache) InvalidateUser(ctx context.Context, userID string) error {
	_, err := m.cache.DeleteByPattern(ctx, MatchesPattern(userID))
	return err
}

func matchesKey(k matching.RankingKey) string {
	return MatchesKey(k.UserID, k.Limit, k.MinScore, k.NarrowBySkills)
}
