package matching

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickksynkk/synk-hub/internal/domain/profile"
)

const eps = 1e-9

func user(id string, skills, interests []string, exp profile.ExperienceLevel, slots []profile.AvailabilitySlot) *profile.UserProfile {
	return &profile.UserProfile{
		ID:           id,
		Skills:       skills,
		Interests:    interests,
		Experience:   exp,
		Availability: slots,
	}
}

func TestScore_EndToEnd(t *testing.T) {
	reference := user("ref", []string{"Frontend Development"}, []string{"Hackathon"},
		profile.ExperienceIntermediate, profile.WeekdaysAvailability())
	candidate := user("cand", []string{"Backend Development"}, []string{"Hackathon"},
		profile.ExperienceIntermediate, profile.WeekdaysAvailability())

	results := RankMatches(reference, []*profile.UserProfile{candidate})
	require.Len(t, results, 1)

	r := results[0]
	assert.Same(t, candidate, r.Candidate)
	assert.Empty(t, r.SharedSkills)
	assert.Equal(t, []string{"Backend Development"}, r.ComplementarySkills)
	assert.InDelta(t, 0.4, r.Breakdown.Skills, eps)
	assert.InDelta(t, 1.0, r.Breakdown.Interests, eps)
	assert.InDelta(t, 1.0, r.Breakdown.Experience, eps)
	assert.InDelta(t, 1.0, r.AvailabilityOverlap, eps)
	assert.InDelta(t, 0.76, r.MatchScore, eps)
	assert.Equal(t, MatchQualityGood, r.Quality())

	assert.Equal(t, []string{
		"Common interests: Hackathon",
		"Complementary skills: Backend Development",
		"Same experience: intermediate",
		"Good schedule compatibility",
	}, r.Reasons)
}

func TestScore_AllReasonsInOrder(t *testing.T) {
	reference := user("ref", []string{"Swift", "Python"}, []string{"AI/ML"},
		profile.ExperienceExpert, profile.FullWeekAvailability())
	candidate := user("cand", []string{"Python", "UI/UX Design"}, []string{"AI/ML", "Design"},
		profile.ExperienceExpert, profile.FullWeekAvailability())

	r := NewScorer().Score(reference, candidate)

	assert.Equal(t, []string{"Python"}, r.SharedSkills)
	assert.Equal(t, []string{"UI/UX Design"}, r.ComplementarySkills)
	require.Len(t, r.Reasons, 5)
	assert.Equal(t, "Shared skills: Python", r.Reasons[0])
	assert.Equal(t, "Common interests: AI/ML", r.Reasons[1])
	assert.Equal(t, "Complementary skills: UI/UX Design", r.Reasons[2])
	assert.Equal(t, "Same experience: expert", r.Reasons[3])
	assert.Equal(t, "Good schedule compatibility", r.Reasons[4])
}

// Справочник дополняющих навыков общий с генератором рекомендаций, поэтому
// ключи вроде iOS Development дают дополняющие навыки и при подборе.
func TestScore_UsesSharedComplementaryTable(t *testing.T) {
	reference := user("ref", []string{"iOS Development"}, nil, profile.ExperienceBeginner, nil)
	candidate := user("cand", []string{"UI/UX Design"}, nil, profile.ExperienceBeginner, nil)

	r := NewScorer().Score(reference, candidate)
	assert.Equal(t, []string{"UI/UX Design"}, r.ComplementarySkills)

	reverse := NewScorer().Score(candidate, reference)
	assert.Empty(t, reverse.ComplementarySkills)
}

func TestRankMatches_ExcludesReference(t *testing.T) {
	reference := user("ref", []string{"Swift"}, nil, profile.ExperienceBeginner, nil)
	self := reference.Clone()
	other := user("other", []string{"Swift"}, nil, profile.ExperienceBeginner, nil)

	results := RankMatches(reference, []*profile.UserProfile{self, other, nil})

	assert.Equal(t, []string{"other"}, results.CandidateIDs())
}

func TestRankMatches_SortedAndStable(t *testing.T) {
	reference := user("ref", []string{"Swift", "Python"}, []string{"Design"},
		profile.ExperienceIntermediate, profile.WeekdaysAvailability())

	weak := user("weak", nil, nil, profile.ExperienceExpert, nil)
	twinB := user("twin-b", []string{"Swift"}, []string{"Design"}, profile.ExperienceIntermediate, nil)
	strong := user("strong", []string{"Swift", "Python"}, []string{"Design"},
		profile.ExperienceIntermediate, profile.WeekdaysAvailability())
	twinA := user("twin-a", []string{"Swift"}, []string{"Design"}, profile.ExperienceIntermediate, nil)

	results := RankMatches(reference, []*profile.UserProfile{weak, twinB, strong, twinA})

	require.Len(t, results, 4)
	assert.Equal(t, []string{"strong", "twin-b", "twin-a", "weak"}, results.CandidateIDs())
	assert.Equal(t, results[1].MatchScore, results[2].MatchScore)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].MatchScore, results[i].MatchScore)
	}
}

func TestRankMatches_EmptyInputs(t *testing.T) {
	assert.Empty(t, RankMatches(user("ref", nil, nil, "", nil), nil))
	assert.Empty(t, RankMatches(nil, []*profile.UserProfile{user("a", nil, nil, "", nil)}))

	blank := user("ref", nil, nil, profile.ExperienceBeginner, nil)
	results := RankMatches(blank, []*profile.UserProfile{user("a", nil, nil, profile.ExperienceBeginner, nil)})
	require.Len(t, results, 1)
	assert.InDelta(t, WeightExperience, results[0].MatchScore, eps)
	assert.Equal(t, []string{"Same experience: beginner"}, results[0].Reasons)
	assert.Empty(t, results[0].SharedSkills)
	assert.Equal(t, MatchQualityNone, results[0].Quality())
}

func TestScore_Bounds(t *testing.T) {
	pool := []string{"Swift", "Python", "React", "UI/UX Design", "Backend Development", "Machine Learning", "DevOps"}
	levels := profile.ExperienceLevels()

	reference := user("ref", pool[:4], []string{"Hackathon", "Design"}, profile.ExperienceAdvanced, profile.FullWeekAvailability())
	candidates := make([]*profile.UserProfile, 0, len(pool))
	for i := range pool {
		candidates = append(candidates, user(
			fmt.Sprintf("c%d", i),
			pool[i:],
			[]string{"Design"},
			levels[i%len(levels)],
			profile.WeekdaysAvailability()[:i%5],
		))
	}

	for _, r := range RankMatches(reference, candidates) {
		assert.GreaterOrEqual(t, r.MatchScore, 0.0)
		assert.LessOrEqual(t, r.MatchScore, 1.0)
		assert.GreaterOrEqual(t, r.AvailabilityOverlap, 0.0)
		assert.LessOrEqual(t, r.AvailabilityOverlap, 1.0)
	}
}

func TestSkillsScore(t *testing.T) {
	assert.Equal(t, 0.0, SkillsScore(nil, nil))
	assert.Equal(t, 0.0, SkillsScore([]string{"Cooking"}, nil))
	assert.InDelta(t, 0.6, SkillsScore([]string{"Swift"}, []string{"Swift"}), eps)
	// shared=1 (Swift), complementary=1 (UI/UX Design), denom=2
	assert.InDelta(t, 0.5, SkillsScore([]string{"Swift"}, []string{"Swift", "UI/UX Design"}), eps)
}

func TestInterestsScore(t *testing.T) {
	assert.Equal(t, 0.0, InterestsScore(nil, nil))
	assert.InDelta(t, 0.5, InterestsScore([]string{"Design", "AI/ML"}, []string{"Design"}), eps)
	assert.InDelta(t, 1.0, InterestsScore([]string{"Design"}, []string{"Design"}), eps)
}

// Уровней четыре, поэтому расстояние не больше 3 и ветка 0.2 недостижима:
// beginner против expert даёт 0.4, как в исходной таблице расстояний.
func TestExperienceScore(t *testing.T) {
	tests := []struct {
		a, b profile.ExperienceLevel
		want float64
	}{
		{profile.ExperienceBeginner, profile.ExperienceExpert, 0.4},
		{profile.ExperienceExpert, profile.ExperienceBeginner, 0.4},
		{profile.ExperienceIntermediate, profile.ExperienceAdvanced, 0.8},
		{profile.ExperienceBeginner, profile.ExperienceBeginner, 1.0},
		{profile.ExperienceBeginner, profile.ExperienceAdvanced, 0.6},
		{"guru", profile.ExperienceBeginner, 1.0},
		{"guru", profile.ExperienceExpert, 0.4},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s-%s", tt.a, tt.b), func(t *testing.T) {
			assert.Equal(t, tt.want, ExperienceScore(tt.a, tt.b))
		})
	}
}

func TestAvailabilityOverlap(t *testing.T) {
	slots := profile.WeekdaysAvailability()
	same := append([]profile.AvailabilitySlot(nil), slots...)

	assert.Equal(t, 1.0, AvailabilityOverlap(slots, same))
	assert.Equal(t, 0.0, AvailabilityOverlap(slots, nil))
	assert.Equal(t, 0.0, AvailabilityOverlap(nil, nil))

	morning := []profile.AvailabilitySlot{{DayOfWeek: 1, StartHour: 9, EndHour: 17, IsAvailable: true}}
	evening := []profile.AvailabilitySlot{{DayOfWeek: 1, StartHour: 13, EndHour: 21, IsAvailable: true}}
	// union 12 часов, общих 4
	assert.InDelta(t, 1.0/3.0, AvailabilityOverlap(morning, evening), eps)

	busy := []profile.AvailabilitySlot{{DayOfWeek: 1, StartHour: 9, EndHour: 17, IsAvailable: false}}
	assert.Equal(t, 0.0, AvailabilityOverlap(morning, busy))
}

func TestAvailabilityOverlap_ConflictingSlots(t *testing.T) {
	conflicting := []profile.AvailabilitySlot{
		{DayOfWeek: 2, StartHour: 10, EndHour: 12, IsAvailable: true},
		{DayOfWeek: 2, StartHour: 11, EndHour: 12, IsAvailable: false},
	}
	other := []profile.AvailabilitySlot{{DayOfWeek: 2, StartHour: 10, EndHour: 12, IsAvailable: true}}

	assert.InDelta(t, 0.5, AvailabilityOverlap(conflicting, other), eps)
}
