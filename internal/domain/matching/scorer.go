package matching

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quickksynkk/synk-hub/internal/domain/profile"
	"github.com/quickksynkk/synk-hub/internal/domain/skills"
)

// ══════════════════════════════════════════════════════════════════════════════
// WEIGHTS
// Веса факторов фиксированы и в сумме дают 1.0.
// ══════════════════════════════════════════════════════════════════════════════

const (
	WeightSkills       = 0.40
	WeightInterests    = 0.25
	WeightExperience   = 0.15
	WeightAvailability = 0.20

	// Внутри фактора навыков: общие 60%, дополняющие 40%.
	sharedSkillsShare        = 0.6
	complementarySkillsShare = 0.4

	// goodScheduleThreshold - порог причины "Good schedule compatibility".
	goodScheduleThreshold = 0.5
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORER
// ══════════════════════════════════════════════════════════════════════════════

// Scorer оценивает совместимость кандидатов. Не хранит состояния, безопасен
// для конкурентного использования.
type Scorer struct{}

// NewScorer создаёт Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// RankMatches оценивает всех кандидатов, кроме самого reference (по ID),
// и возвращает их по убыванию оценки. При равных оценках сохраняется
// исходный порядок кандидатов.
func (s *Scorer) RankMatches(reference *profile.UserProfile, candidates []*profile.UserProfile) MatchResultList {
	results := make(MatchResultList, 0, len(candidates))
	if reference == nil {
		return results
	}

	for _, c := range candidates {
		if c == nil || c.ID == reference.ID {
			continue
		}
		results = append(results, s.Score(reference, c))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchScore > results[j].MatchScore
	})

	return results
}

// Score оценивает одного кандидата относительно reference.
func (s *Scorer) Score(reference, candidate *profile.UserProfile) MatchResult {
	shared := intersect(reference.Skills, candidate.Skills)
	complementary := skills.ComplementaryFor(reference.Skills, candidate.Skills)
	commonInterests := intersect(reference.Interests, candidate.Interests)

	breakdown := ScoreBreakdown{
		Skills:       skillsScore(reference.Skills, candidate.Skills, len(shared), len(complementary)),
		Interests:    ratio(len(commonInterests), maxInt(countUnique(reference.Interests), countUnique(candidate.Interests))),
		Experience:   ExperienceScore(reference.Experience, candidate.Experience),
		Availability: AvailabilityOverlap(reference.Availability, candidate.Availability),
	}

	total := breakdown.Skills*WeightSkills +
		breakdown.Interests*WeightInterests +
		breakdown.Experience*WeightExperience +
		breakdown.Availability*WeightAvailability
	if total > 1.0 {
		total = 1.0
	}

	return MatchResult{
		Candidate:           candidate,
		MatchScore:          total,
		Reasons:             buildReasons(reference, candidate, shared, commonInterests, complementary, breakdown.Availability),
		SharedSkills:        shared,
		ComplementarySkills: complementary,
		AvailabilityOverlap: breakdown.Availability,
		Breakdown:           breakdown,
	}
}

// RankMatches - RankMatches со Scorer по умолчанию.
func RankMatches(reference *profile.UserProfile, candidates []*profile.UserProfile) MatchResultList {
	return NewScorer().RankMatches(reference, candidates)
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORS
// ══════════════════════════════════════════════════════════════════════════════

// SkillsScore - оценка навыков: 0.6·shared/denom + 0.4·complementary/denom,
// где denom = max(|A|, |B|). Для двух пустых наборов - 0.
func SkillsScore(reference, candidate []string) float64 {
	shared := intersect(reference, candidate)
	complementary := skills.ComplementaryFor(reference, candidate)
	return skillsScore(reference, candidate, len(shared), len(complementary))
}

func skillsScore(reference, candidate []string, shared, complementary int) float64 {
	denom := maxInt(countUnique(reference), countUnique(candidate))
	if denom == 0 {
		return 0
	}
	return sharedSkillsShare*float64(shared)/float64(denom) +
		complementarySkillsShare*float64(complementary)/float64(denom)
}

// InterestsScore - |A∩B| / max(|A|, |B|), 0 для двух пустых наборов.
func InterestsScore(reference, candidate []string) float64 {
	return ratio(len(intersect(reference, candidate)), maxInt(countUnique(reference), countUnique(candidate)))
}

// ExperienceScore - оценка по расстоянию между уровнями опыта.
// Неизвестный уровень трактуется как profile.DefaultExperience.
func ExperienceScore(a, b profile.ExperienceLevel) float64 {
	ia, _ := a.OrDefault().Index()
	ib, _ := b.OrDefault().Index()

	d := ia - ib
	if d < 0 {
		d = -d
	}

	switch d {
	case 0:
		return 1.0
	case 1:
		return 0.8
	case 2:
		return 0.6
	case 3:
		return 0.4
	default:
		return 0.2
	}
}

// AvailabilityOverlap - доля часов, отмеченных доступными у обоих, среди всех
// часов, о которых высказался хотя бы один из пользователей.
func AvailabilityOverlap(a, b []profile.AvailabilitySlot) float64 {
	gridA := profile.ExpandAvailability(a)
	gridB := profile.ExpandAvailability(b)

	union := len(gridA)
	both := 0
	for key, availableA := range gridA {
		availableB, ok := gridB[key]
		if availableA && ok && availableB {
			both++
		}
	}
	for key := range gridB {
		if _, ok := gridA[key]; !ok {
			union++
		}
	}

	return ratio(both, union)
}

// ══════════════════════════════════════════════════════════════════════════════
// REASONS
// ══════════════════════════════════════════════════════════════════════════════

func buildReasons(
	reference, candidate *profile.UserProfile,
	shared, interests, complementary []string,
	availability float64,
) []string {
	reasons := make([]string, 0, 5)

	if len(shared) > 0 {
		reasons = append(reasons, "Shared skills: "+strings.Join(shared, ", "))
	}
	if len(interests) > 0 {
		reasons = append(reasons, "Common interests: "+strings.Join(interests, ", "))
	}
	if len(complementary) > 0 {
		reasons = append(reasons, "Complementary skills: "+strings.Join(complementary, ", "))
	}
	if reference.Experience == candidate.Experience {
		reasons = append(reasons, fmt.Sprintf("Same experience: %s", reference.Experience))
	}
	if availability > goodScheduleThreshold {
		reasons = append(reasons, "Good schedule compatibility")
	}

	return reasons
}

// ══════════════════════════════════════════════════════════════════════════════
// SET HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// intersect возвращает общие элементы без повторов в порядке a.
func intersect(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, s := range b {
		inB[s] = struct{}{}
	}

	seen := make(map[string]struct{}, len(a))
	out := make([]string, 0)
	for _, s := range a {
		if _, ok := inB[s]; !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func countUnique(items []string) int {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return len(set)
}

func ratio(num, denom int) float64 {
	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
