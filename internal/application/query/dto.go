package query

import (
	"github.com/quickksynkk/synk-hub/internal/domain/matching"
	"github.com/quickksynkk/synk-hub/internal/domain/profile"
	"github.com/quickksynkk/synk-hub/internal/domain/recommendation"
)

// ══════════════════════════════════════════════════════════════════════════════
// DTO
// ══════════════════════════════════════════════════════════════════════════════

// CandidateDTO - публичная часть профиля кандидата.
type CandidateDTO struct {
	UserID       string                     `json:"user_id"`
	DisplayName  string                     `json:"display_name"`
	Skills       []string                   `json:"skills"`
	Interests    []string                   `json:"interests"`
	Experience   string                     `json:"experience"`
	Role         string                     `json:"role"`
	Location     string                     `json:"location,omitempty"`
	Availability []profile.AvailabilitySlot `json:"availability"`
}

// MatchDTO - один результат подбора.
type MatchDTO struct {
	Candidate CandidateDTO `json:"candidate"`

	// MatchScore - итоговая оценка ∈ [0,1].
	MatchScore float64 `json:"match_score"`

	// Quality - "excellent", "good", "fair", "poor" или "none".
	Quality string `json:"quality"`

	Reasons             []string                `json:"reasons"`
	SharedSkills        []string                `json:"shared_skills"`
	ComplementarySkills []string                `json:"complementary_skills"`
	AvailabilityOverlap float64                 `json:"availability_overlap"`
	Breakdown           matching.ScoreBreakdown `json:"breakdown"`
}

// RecommendationDTO - одна рекомендация.
type RecommendationDTO struct {
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Score       float64  `json:"score"`
	Reasons     []string `json:"reasons"`
}

func toCandidateDTO(p *profile.UserProfile) CandidateDTO {
	if p == nil {
		return CandidateDTO{}
	}
	return CandidateDTO{
		UserID:       p.ID,
		DisplayName:  p.DisplayName,
		Skills:       nonNil(p.Skills),
		Interests:    nonNil(p.Interests),
		Experience:   p.Experience.String(),
		Role:         string(p.Role),
		Location:     p.Location,
		Availability: p.Availability,
	}
}

// ToMatchDTOs конвертирует результаты подбора, сохраняя порядок.
func ToMatchDTOs(results matching.MatchResultList) []MatchDTO {
	out := make([]MatchDTO, 0, len(results))
	for _, r := range results {
		out = append(out, MatchDTO{
			Candidate:           toCandidateDTO(r.Candidate),
			MatchScore:          r.MatchScore,
			Quality:             string(r.Quality()),
			Reasons:             nonNil(r.Reasons),
			SharedSkills:        nonNil(r.SharedSkills),
			ComplementarySkills: nonNil(r.ComplementarySkills),
			AvailabilityOverlap: r.AvailabilityOverlap,
			Breakdown:           r.Breakdown,
		})
	}
	return out
}

// ToRecommendationDTOs конвертирует рекомендации, сохраняя порядок.
func ToRecommendationDTOs(items []recommendation.Recommendation) []RecommendationDTO {
	out := make([]RecommendationDTO, 0, len(items))
	for _, item := range items {
		out = append(out, RecommendationDTO{
			Type:        item.Type.String(),
			Title:       item.Title,
			Description: item.Description,
			Score:       item.Score,
			Reasons:     nonNil(item.Reasons),
		})
	}
	return out
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
