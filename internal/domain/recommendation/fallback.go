package recommendation

import (
	"fmt"
	"time"

	"github.com/quickksynkk/synk-hub/internal/domain/profile"
)

const (
	fallbackTeammateScore = 0.85
	fallbackProjectScore  = 0.80
	fallbackLimit         = 2
)

// Fallback строит простые рекомендации для профиля, по навыкам и интересам
// которого в справочниках ничего не нашлось: поиск соавторов по первым двум
// навыкам и проекты по первым двум интересам. Для пустого профиля - пустой список.
func Fallback(p *profile.UserProfile) []Recommendation {
	out := make([]Recommendation, 0, 2*fallbackLimit)
	if p == nil {
		return out
	}

	for _, skill := range firstN(p.Skills, fallbackLimit) {
		out = append(out, Recommendation{
			Type:        TypeTeammate,
			Title:       fmt.Sprintf("Find %s Collaborators", skill),
			Description: fmt.Sprintf("Connect with other developers skilled in %s", skill),
			Score:       fallbackTeammateScore,
			Reasons:     []string{"Based on your skills", "Collaboration opportunity"},
		})
	}

	for _, interest := range firstN(p.Interests, fallbackLimit) {
		out = append(out, Recommendation{
			Type:        TypeProject,
			Title:       fmt.Sprintf("%s Projects", interest),
			Description: fmt.Sprintf("Explore projects related to %s", interest),
			Score:       fallbackProjectScore,
			Reasons:     []string{"Matches your interests", "Learning opportunity"},
		})
	}

	return out
}

// GenerateWithFallback запускает генератор и, если он ничего не вернул,
// подставляет Fallback. Второе значение true, если использован Fallback.
func GenerateWithFallback(g *Generator, p *profile.UserProfile) ([]Recommendation, bool) {
	items := g.ForProfile(p)
	if len(items) > 0 {
		return items, false
	}
	fallback := Fallback(p)
	return fallback, len(fallback) > 0
}

// BuildBatch генерирует рекомендации для профиля и упаковывает их в набор.
// При useFallback пустой результат генератора заменяется на Fallback.
// Второе значение true, если использован Fallback.
func BuildBatch(g *Generator, p *profile.UserProfile, id string, now time.Time, useFallback bool) (*Batch, bool) {
	var (
		items        []Recommendation
		usedFallback bool
	)
	if useFallback {
		items, usedFallback = GenerateWithFallback(g, p)
	} else {
		items = g.ForProfile(p)
	}
	return NewBatch(id, p.ID, items, now), usedFallback
}
