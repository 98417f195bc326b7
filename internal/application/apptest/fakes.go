// Package apptest provides in-memory stores and caches for application
// handler tests.
package apptest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/quickksynkk/synk-hub/internal/domain/matching"
	"github.com/quickksynkk/synk-hub/internal/domain/profile"
	"github.com/quickksynkk/synk-hub/internal/domain/recommendation"
	"github.com/quickksynkk/synk-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILES
// ══════════════════════════════════════════════════════════════════════════════

// Profiles is an in-memory profile.Repository. Err, when set, is returned by
// every call.
type Profiles struct {
	mu       sync.Mutex
	profiles map[string]*profile.UserProfile
	Err      error
	Calls    map[string]int
}

// NewProfiles creates a repository holding copies of ps.
func NewProfiles(ps ...*profile.UserProfile) *Profiles {
	r := &Profiles{profiles: make(map[string]*profile.UserProfile), Calls: make(map[string]int)}
	for _, p := range ps {
		r.profiles[p.ID] = p.Clone()
	}
	return r
}

func (r *Profiles) call(op string) error {
	r.Calls[op]++
	return r.Err
}

// CallCount returns how many times op was called.
func (r *Profiles) CallCount(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Calls[op]
}

func (r *Profiles) GetByID(_ context.Context, id string) (*profile.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.call("GetByID"); err != nil {
		return nil, err
	}
	p, ok := r.profiles[id]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (r *Profiles) GetAll(_ context.Context) ([]*profile.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.call("GetAll"); err != nil {
		return nil, err
	}
	return r.list(func(*profile.UserProfile) bool { return true }), nil
}

func (r *Profiles) FindBySkills(_ context.Context, skills []string) ([]*profile.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.call("FindBySkills"); err != nil {
		return nil, err
	}
	return r.list(func(p *profile.UserProfile) bool {
		for _, s := range skills {
			if p.HasSkill(s) {
				return true
			}
		}
		return false
	}), nil
}

func (r *Profiles) Save(_ context.Context, p *profile.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.call("Save"); err != nil {
		return err
	}
	r.profiles[p.ID] = p.Clone()
	return nil
}

func (r *Profiles) UpdateAvailability(_ context.Context, id string, slots []profile.AvailabilitySlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.call("UpdateAvailability"); err != nil {
		return err
	}
	p, ok := r.profiles[id]
	if !ok {
		return shared.ErrProfileNotFound
	}
	p.Availability = append([]profile.AvailabilitySlot(nil), slots...)
	return nil
}

func (r *Profiles) ModifyAvailability(_ context.Context, id string, fn func([]profile.AvailabilitySlot) []profile.AvailabilitySlot) ([]profile.AvailabilitySlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.call("ModifyAvailability"); err != nil {
		return nil, err
	}
	p, ok := r.profiles[id]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	current := append([]profile.AvailabilitySlot(nil), p.Availability...)
	p.Availability = fn(current)
	return append([]profile.AvailabilitySlot(nil), p.Availability...), nil
}

// Get returns the stored profile without counting a call.
func (r *Profiles) Get(id string) *profile.UserProfile {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[id]; ok {
		return p.Clone()
	}
	return nil
}

// list returns clones in reverse ID order so callers cannot rely on storage order.
func (r *Profiles) list(keep func(*profile.UserProfile) bool) []*profile.UserProfile {
	out := make([]*profile.UserProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// RECOMMENDATION BATCHES
// ══════════════════════════════════════════════════════════════════════════════

// Batches is an in-memory recommendation.Repository keeping the latest batch
// per user.
type Batches struct {
	mu      sync.Mutex
	batches map[string]*recommendation.Batch
	Err     error
	Saved   int
}

// NewBatches creates an empty repository.
func NewBatches() *Batches {
	return &Batches{batches: make(map[string]*recommendation.Batch)}
}

func (r *Batches) SaveBatch(_ context.Context, batch *recommendation.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	cp := *batch
	r.batches[batch.UserID] = &cp
	r.Saved++
	return nil
}

func (r *Batches) GetLatestBatch(_ context.Context, userID string) (*recommendation.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	b, ok := r.batches[userID]
	if !ok {
		return nil, shared.ErrRecommendationsNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *Batches) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	var n int64
	for id, b := range r.batches {
		if b.IsExpired(now) {
			delete(r.batches, id)
			n++
		}
	}
	return n, nil
}

// Latest returns the stored batch of a user or nil.
func (r *Batches) Latest(userID string) *recommendation.Batch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches[userID]
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHES
// ══════════════════════════════════════════════════════════════════════════════

// MatchCache is an in-memory matching.Cache.
type MatchCache struct {
	mu          sync.Mutex
	entries     map[matching.RankingKey]*matching.Ranking
	Err         error
	Invalidated []string
}

// NewMatchCache creates an empty cache.
func NewMatchCache() *MatchCache {
	return &MatchCache{entries: make(map[matching.RankingKey]*matching.Ranking)}
}

func (c *MatchCache) Get(_ context.Context, key matching.RankingKey) (*matching.Ranking, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	return c.entries[key], nil
}

func (c *MatchCache) Set(_ context.Context, key matching.RankingKey, ranking *matching.Ranking) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.entries[key] = ranking
	return nil
}

func (c *MatchCache) InvalidateUser(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	for key := range c.entries {
		if key.UserID == userID {
			delete(c.entries, key)
		}
	}
	c.Invalidated = append(c.Invalidated, userID)
	return nil
}

// Len returns the number of cached rankings.
func (c *MatchCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// RecommendationCache is an in-memory recommendation.Cache.
type RecommendationCache struct {
	mu          sync.Mutex
	entries     map[string]*recommendation.Batch
	Err         error
	Invalidated []string
}

// NewRecommendationCache creates an empty cache.
func NewRecommendationCache() *RecommendationCache {
	return &RecommendationCache{entries: make(map[string]*recommendation.Batch)}
}

func (c *RecommendationCache) Get(_ context.Context, userID string) (*recommendation.Batch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	return c.entries[userID], nil
}

func (c *RecommendationCache) Set(_ context.Context, batch *recommendation.Batch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.entries[batch.UserID] = batch
	return nil
}

func (c *RecommendationCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	delete(c.entries, userID)
	c.Invalidated = append(c.Invalidated, userID)
	return nil
}

// Cached returns the cached batch of a user or nil.
func (c *RecommendationCache) Cached(userID string) *recommendation.Batch {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[userID]
}

// ══════════════════════════════════════════════════════════════════════════════
// FEATURES
// ══════════════════════════════════════════════════════════════════════════════

// Features enables every feature except the disabled ones.
type Features map[string]bool

// Disabled returns a Features set with the given features turned off.
func Disabled(features ...string) Features {
	f := make(Features, len(features))
	for _, name := range features {
		f[name] = false
	}
	return f
}

func (f Features) IsEnabled(feature, _ string) bool {
	enabled, ok := f[feature]
	return !ok || enabled
}
