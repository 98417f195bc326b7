// Package matching реализует подбор напарников: детерминированную взвешенную
// оценку совместимости кандидатов относительно опорного пользователя.
package matching

import (
	"github.com/quickksynkk/synk-hub/internal/domain/profile"
)

// ══════════════════════════════════════════════════════════════════════════════
// MATCH QUALITY
// ══════════════════════════════════════════════════════════════════════════════

// MatchQuality определяет качественную оценку совместимости.
type MatchQuality string

const (
	// MatchQualityExcellent - отличная совместимость (0.8-1.0).
	MatchQualityExcellent MatchQuality = "excellent"

	// MatchQualityGood - хорошая совместимость (0.6-0.8).
	MatchQualityGood MatchQuality = "good"

	// MatchQualityFair - удовлетворительная совместимость (0.4-0.6).
	MatchQualityFair MatchQuality = "fair"

	// MatchQualityPoor - низкая совместимость (0.2-0.4).
	MatchQualityPoor MatchQuality = "poor"

	// MatchQualityNone - нет совместимости (0-0.2).
	MatchQualityNone MatchQuality = "none"
)

// QualityOf возвращает качественную оценку для score ∈ [0,1].
func QualityOf(score float64) MatchQuality {
	switch {
	case score >= 0.8:
		return MatchQualityExcellent
	case score >= 0.6:
		return MatchQualityGood
	case score >= 0.4:
		return MatchQualityFair
	case score >= 0.2:
		return MatchQualityPoor
	default:
		return MatchQualityNone
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MATCH RESULT
// ══════════════════════════════════════════════════════════════════════════════

// MatchResult - результат оценки одного кандидата. Создаётся заново при каждом
// вызове и не хранит ссылок на Scorer.
type MatchResult struct {
	// Candidate - оценённый кандидат.
	Candidate *profile.UserProfile `json:"candidate"`

	// MatchScore - итоговая оценка ∈ [0,1].
	MatchScore float64 `json:"match_score"`

	// Reasons - причины совместимости в порядке генерации.
	Reasons []string `json:"reasons"`

	// SharedSkills - общие навыки.
	SharedSkills []string `json:"shared_skills"`

	// ComplementarySkills - навыки кандидата, дополняющие навыки опорного пользователя.
	ComplementarySkills []string `json:"complementary_skills"`

	// AvailabilityOverlap - доля совпадающих доступных часов ∈ [0,1].
	AvailabilityOverlap float64 `json:"availability_overlap"`

	// Breakdown - оценки по отдельным факторам.
	Breakdown ScoreBreakdown `json:"breakdown"`
}

// ScoreBreakdown - оценки по факторам до взвешивания.
type ScoreBreakdown struct {
	Skills       float64 `json:"skills"`
	Interests    float64 `json:"interests"`
	Experience   float64 `json:"experience"`
	Availability float64 `json:"availability"`
}

// Quality возвращает качество подбора.
func (m MatchResult) Quality() MatchQuality {
	return QualityOf(m.MatchScore)
}

// MatchResultList - отсортированный список результатов.
type MatchResultList []MatchResult

// TopN возвращает первые n результатов.
func (m MatchResultList) TopN(n int) MatchResultList {
	if n < 0 || n >= len(m) {
		return m
	}
	return m[:n]
}

// FilterByMinScore оставляет результаты с оценкой не ниже minScore, сохраняя порядок.
func (m MatchResultList) FilterByMinScore(minScore float64) MatchResultList {
	filtered := make(MatchResultList, 0, len(m))
	for _, result := range m {
		if result.MatchScore >= minScore {
			filtered = append(filtered, result)
		}
	}
	return filtered
}

// CandidateIDs возвращает идентификаторы кандидатов в порядке списка.
func (m MatchResultList) CandidateIDs() []string {
	ids := make([]string, 0, len(m))
	for _, r := range m {
		if r.Candidate != nil {
			ids = append(ids, r.Candidate.ID)
		}
	}
	return ids
}
