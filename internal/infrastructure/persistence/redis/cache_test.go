package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickksynkk/synk-hub/internal/domain/matching"
	"github.com/quickksynkk/synk-hub/internal/domain/profile"
	"github.com/quickksynkk/synk-hub/internal/domain/recommendation"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCacheFromClient(client), mr
}

func TestCache_SetGetDelete(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Name  string   `json:"name"`
		Items []string `json:"items"`
	}

	require.NoError(t, cache.Set(ctx, "k", payload{Name: "swift", Items: []string{"a", "b"}}, time.Minute))

	var got payload
	require.NoError(t, cache.Get(ctx, "k", &got))
	assert.Equal(t, "swift", got.Name)
	assert.Equal(t, []string{"a", "b"}, got.Items)
	assert.Equal(t, time.Minute, mr.TTL("k"))

	require.NoError(t, cache.Delete(ctx, "k"))
	assert.ErrorIs(t, cache.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestCache_Validation(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	assert.ErrorIs(t, cache.Set(ctx, "", 1, time.Minute), ErrCacheKeyEmpty)
	assert.ErrorIs(t, cache.Set(ctx, "k", nil, time.Minute), ErrCacheNilValue)
	assert.ErrorIs(t, cache.Set(ctx, "k", 1, -time.Second), ErrCacheInvalidTTL)

	require.NoError(t, cache.Set(ctx, "bad", 1, time.Minute))
	var dest struct{ A string }
	assert.ErrorIs(t, cache.Get(ctx, "bad", &dest), ErrCacheSerialization)
}

func TestCache_DeleteByPattern(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	for _, key := range []string{"matches:u1:20", "matches:u1:5", "matches:u2:20"} {
		require.NoError(t, mr.Set(key, "{}"))
	}

	deleted, err := cache.DeleteByPattern(ctx, MatchesPattern("u1"))
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.False(t, mr.Exists("matches:u1:20"))
	assert.True(t, mr.Exists("matches:u2:20"))
}

func TestMatchesPattern_ScopedToOneUser(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	users := []string{"a", "a:b", "*", "x?", "[ab]", `back\slash`}
	for _, id := range users {
		require.NoError(t, mr.Set(MatchesKey(id, 20, 0.5, false), "{}"))
	}

	for _, id := range []string{"*", "a"} {
		deleted, err := cache.DeleteByPattern(ctx, MatchesPattern(id))
		require.NoError(t, err)
		assert.Equal(t, 1, deleted, "user %q", id)
		assert.False(t, mr.Exists(MatchesKey(id, 20, 0.5, false)))
	}
	for _, id := range []string{"a:b", "x?", "[ab]", `back\slash`} {
		assert.True(t, mr.Exists(MatchesKey(id, 20, 0.5, false)), "user %q", id)
	}
}

func TestMatchesKey(t *testing.T) {
	assert.Equal(t, "matches:u1:20:0.5:true", MatchesKey("u1", 20, 0.5, true))
	assert.Equal(t, "matches:u1:20:0:false", MatchesKey("u1", 20, 0, false))
	assert.NotEqual(t, MatchesKey("u1", 20, 0.12341, false), MatchesKey("u1", 20, 0.12344, false))
	assert.NotContains(t, MatchesKey("a:b", 20, 0, false), "a:b")
}

func TestMatchCache(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	mc := NewMatchCache(cache, 0)

	key := matching.RankingKey{UserID: "u1", Limit: 20}
	got, err := mc.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got, "miss is not an error")

	ranking := &matching.Ranking{
		UserID: "u1",
		Results: matching.MatchResultList{{
			Candidate:    &profile.UserProfile{ID: "u2", Skills: []string{"Go"}},
			MatchScore:   0.76,
			Reasons:      []string{"Shared skills: Go"},
			SharedSkills: []string{"Go"},
		}},
		TotalCandidates: 3,
		RankedAt:        time.Now().UTC(),
	}
	require.NoError(t, mc.Set(ctx, key, ranking))

	got, err = mc.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.TotalCandidates)
	assert.Equal(t, []string{"u2"}, got.Results.CandidateIDs())
	assert.InDelta(t, 0.76, got.Results[0].MatchScore, 1e-9)

	// другой лимит - другой ключ
	other, err := mc.Get(ctx, matching.RankingKey{UserID: "u1", Limit: 5})
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, mc.InvalidateUser(ctx, "u1"))
	got, err = mc.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRecommendationCache(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rc := NewRecommendationCache(cache, time.Hour)
	rc.now = func() time.Time { return now }

	batch := recommendation.NewBatch("b1", "u1", []recommendation.Recommendation{
		{Type: recommendation.TypeSkill, Title: "Master SwiftUI", Score: 0.68, Reasons: []string{"Natural progression from Swift"}},
	}, now)

	require.NoError(t, rc.Set(ctx, batch))
	assert.Equal(t, time.Hour, mr.TTL(RecommendationsKey("u1")))

	got, err := rc.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "b1", got.ID)
	assert.Equal(t, batch.Items, got.Items)
	assert.True(t, got.ExpiresAt.Equal(batch.ExpiresAt))

	require.NoError(t, rc.Invalidate(ctx, "u1"))
	got, err = rc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRecommendationCache_TTLBoundedByExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	generated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	batch := recommendation.NewBatch("b1", "u1", nil, generated)

	rc := NewRecommendationCache(cache, time.Hour)

	rc.now = func() time.Time { return batch.ExpiresAt.Add(-10 * time.Minute) }
	require.NoError(t, rc.Set(ctx, batch))
	assert.Equal(t, 10*time.Minute, mr.TTL(RecommendationsKey("u1")))

	mr.FlushAll()
	rc.now = func() time.Time { return batch.ExpiresAt }
	require.NoError(t, rc.Set(ctx, batch))
	assert.False(t, mr.Exists(RecommendationsKey("u1")), "expired batch is not cached")
}
