package recommendation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickksynkk/synk-hub/internal/domain/profile"
)

func TestFallback(t *testing.T) {
	p := &profile.UserProfile{
		ID:        "u1",
		Skills:    []string{"Rust", "Elixir", "Go"},
		Interests: []string{"Robotics"},
	}

	items := Fallback(p)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"Find Rust Collaborators", "Find Elixir Collaborators", "Robotics Projects"}, titles(items))
	assert.Equal(t, TypeTeammate, items[0].Type)
	assert.InDelta(t, 0.85, items[0].Score, eps)
	assert.Equal(t, TypeProject, items[2].Type)
	assert.InDelta(t, 0.80, items[2].Score, eps)

	assert.Empty(t, Fallback(&profile.UserProfile{ID: "empty"}))
	assert.Empty(t, Fallback(nil))
}

func TestGenerateWithFallback(t *testing.T) {
	g := NewGenerator()

	unknown := &profile.UserProfile{ID: "u1", Skills: []string{"Rust"}, Experience: profile.ExperienceExpert}
	items, used := GenerateWithFallback(g, unknown)
	assert.True(t, used)
	assert.Equal(t, []string{"Find Rust Collaborators"}, titles(items))

	known := &profile.UserProfile{ID: "u2", Skills: []string{"Swift"}, Experience: profile.ExperienceExpert}
	items, used = GenerateWithFallback(g, known)
	assert.False(t, used)
	assert.NotEmpty(t, items)

	items, used = GenerateWithFallback(g, &profile.UserProfile{ID: "u3"})
	assert.False(t, used)
	assert.Empty(t, items)
}

func TestParseType(t *testing.T) {
	assert.Equal(t, TypeEvent, ParseType("Event"))
	assert.Equal(t, TypeLearning, ParseType(" learning "))
	assert.Equal(t, DefaultType, ParseType("bogus"))
	assert.Len(t, Types(), 5)
}

func TestBatch_Expiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := NewBatch("b1", "u1", nil, now)

	assert.NotNil(t, b.Items)
	assert.Equal(t, now.Add(7*24*time.Hour), b.ExpiresAt)
	assert.False(t, b.IsExpired(now.Add(6*24*time.Hour)))
	assert.True(t, b.IsExpired(now.Add(BatchTTL)))
}

func TestBatch_CountByType(t *testing.T) {
	b := NewBatch("b1", "u1", []Recommendation{
		{Type: TypeTeammate}, {Type: TypeTeammate}, {Type: TypeEvent},
	}, time.Now())

	counts := b.CountByType()
	assert.Equal(t, 2, counts[TypeTeammate])
	assert.Equal(t, 1, counts[TypeEvent])
	assert.Equal(t, 0, counts[TypeSkill])
}

func TestBuildBatch(t *testing.T) {
	g := NewGenerator()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := &profile.UserProfile{ID: "u1", Skills: []string{"Rust"}}

	batch, used := BuildBatch(g, p, "b1", now, true)
	assert.True(t, used)
	assert.Equal(t, "b1", batch.ID)
	assert.Equal(t, "u1", batch.UserID)
	assert.Equal(t, now.Add(BatchTTL), batch.ExpiresAt)
	assert.Equal(t, []string{"Find Rust Collaborators"}, titles(batch.Items))

	batch, used = BuildBatch(g, p, "b2", now, false)
	assert.False(t, used)
	assert.NotNil(t, batch.Items)
	assert.Empty(t, batch.Items)
}
