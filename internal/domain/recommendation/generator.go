package recommendation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quickksynkk/synk-hub/internal/domain/profile"
	"github.com/quickksynkk/synk-hub/internal/domain/skills"
)

const (
	// MaxRecommendations - сколько рекомендаций возвращает генератор.
	MaxRecommendations = 8

	teammateSkillLimit    = 3
	teammatePerSkill      = 2
	progressionSkillLimit = 2
	progressionPerSkill   = 2
	projectInterestLimit  = 2
	learningSkillLimit    = 2

	skillProgressionBase = 0.85
	eventBaseline        = 0.6
	eventSkillShare      = 0.4
)

// Generator строит рекомендации по статическим справочникам.
// Не хранит состояния, безопасен для конкурентного использования.
type Generator struct{}

// NewGenerator создаёт генератор.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate возвращает не более MaxRecommendations рекомендаций по убыванию
// оценки. При равных оценках сохраняется порядок генерации: teammate, skill,
// project, event, learning. Роль пока не влияет на результат.
func (g *Generator) Generate(
	userSkills, interests []string,
	experience profile.ExperienceLevel,
	_ profile.Role,
) []Recommendation {
	all := make([]Recommendation, 0, 16)
	all = append(all, teammateRecommendations(userSkills, experience)...)
	all = append(all, skillRecommendations(userSkills, experience)...)
	all = append(all, projectRecommendations(interests, experience)...)
	all = append(all, eventRecommendations(userSkills)...)
	all = append(all, learningRecommendations(userSkills, experience)...)

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Score > all[j].Score
	})

	if len(all) > MaxRecommendations {
		all = all[:MaxRecommendations]
	}
	return all
}

// ForProfile - Generate по полям профиля.
func (g *Generator) ForProfile(p *profile.UserProfile) []Recommendation {
	if p == nil {
		return []Recommendation{}
	}
	return g.Generate(p.Skills, p.Interests, p.Experience, p.Role)
}

// GenerateRecommendations - Generate с генератором по умолчанию.
func GenerateRecommendations(
	userSkills, interests []string,
	experience profile.ExperienceLevel,
	role profile.Role,
) []Recommendation {
	return NewGenerator().Generate(userSkills, interests, experience, role)
}

// ══════════════════════════════════════════════════════════════════════════════
// SUB-GENERATORS
// ══════════════════════════════════════════════════════════════════════════════

func teammateRecommendations(userSkills []string, experience profile.ExperienceLevel) []Recommendation {
	var out []Recommendation
	for _, skill := range firstN(userSkills, teammateSkillLimit) {
		complements, ok := skills.Complements(skill)
		if !ok {
			continue
		}
		for _, comp := range firstN(complements, teammatePerSkill) {
			out = append(out, Recommendation{
				Type:        TypeTeammate,
				Title:       fmt.Sprintf("Partner with %s Experts", comp),
				Description: fmt.Sprintf("Find teammates skilled in %s to complement your %s expertise and create well-rounded projects", comp, skill),
				Score:       clamp(teammateCompatibility(skill, comp) * teammateMultiplier(experience)),
				Reasons: []string{
					fmt.Sprintf("Complementary to your %s skills", skill),
					"High collaboration potential",
					"Balanced team composition",
				},
			})
		}
	}
	return out
}

func skillRecommendations(userSkills []string, experience profile.ExperienceLevel) []Recommendation {
	var out []Recommendation
	for _, skill := range firstN(userSkills, progressionSkillLimit) {
		next, ok := skillProgression[skill]
		if !ok {
			continue
		}
		for _, nextSkill := range firstN(next, progressionPerSkill) {
			out = append(out, Recommendation{
				Type:  TypeSkill,
				Title: "Master " + nextSkill,
				Description: fmt.Sprintf("Take your %s expertise to the next level by learning %s - a natural progression for %s developers",
					skill, nextSkill, strings.ToLower(string(experience))),
				Score: skillProgressionBase * progressionMultiplier(experience),
				Reasons: []string{
					"Natural progression from " + skill,
					"High industry demand",
					"Career advancement opportunity",
				},
			})
		}
	}
	return out
}

func projectRecommendations(interests []string, experience profile.ExperienceLevel) []Recommendation {
	var out []Recommendation
	for _, interest := range firstN(interests, projectInterestLimit) {
		ideas, ok := projectIdeas[interest]
		if !ok || len(ideas) == 0 {
			continue
		}
		idea := ideas[0]
		out = append(out, Recommendation{
			Type:        TypeProject,
			Title:       idea.Title,
			Description: idea.Description,
			Score:       clamp(idea.BaseScore * experienceAdjustment(experience)),
			Reasons: []string{
				fmt.Sprintf("Aligns with your %s interests", interest),
				"Matches your skill level",
				"Great for portfolio building",
			},
		})
	}
	return out
}

func eventRecommendations(userSkills []string) []Recommendation {
	var out []Recommendation
	for _, e := range events {
		relevance := eventRelevance(userSkills, e.RelevantSkills)
		if relevance <= eventBaseline {
			continue
		}
		out = append(out, Recommendation{
			Type:        TypeEvent,
			Title:       e.Title,
			Description: e.Description,
			Score:       relevance,
			Reasons: []string{
				"Relevant to your skills",
				"Great networking opportunity",
				"Learn from industry experts",
			},
		})
	}
	return out
}

func learningRecommendations(userSkills []string, experience profile.ExperienceLevel) []Recommendation {
	var out []Recommendation
	for _, skill := range firstN(userSkills, learningSkillLimit) {
		path, ok := learningPaths[skill]
		if !ok {
			continue
		}
		out = append(out, Recommendation{
			Type:        TypeLearning,
			Title:       path.Title,
			Description: path.Description,
			Score:       clamp(path.BaseScore * experienceAdjustment(experience)),
			Reasons: []string{
				"Structured learning path",
				"Industry-relevant curriculum",
				fmt.Sprintf("Advance your %s expertise", skill),
			},
		})
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORING HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func teammateCompatibility(skill, comp string) float64 {
	if score, ok := baseCompatibility[skill][comp]; ok {
		return score
	}
	return defaultTeammateCompatibility
}

// eventRelevance: 0.6 без совпадений, иначе 0.6 + 0.4·matched/min(|user|,|event|).
// Повторы навыков пользователя не считаются дважды.
func eventRelevance(userSkills, eventSkills []string) float64 {
	unique := dedupe(userSkills)
	limit := len(unique)
	if len(eventSkills) < limit {
		limit = len(eventSkills)
	}
	if limit == 0 {
		return eventBaseline
	}

	matched := 0
	for _, s := range unique {
		for _, es := range eventSkills {
			if s == es {
				matched++
				break
			}
		}
	}
	if matched == 0 {
		return eventBaseline
	}
	return clamp(eventBaseline + eventSkillShare*float64(matched)/float64(limit))
}

// teammateMultiplier - множитель оценки напарника по уровню опыта.
func teammateMultiplier(e profile.ExperienceLevel) float64 {
	switch e {
	case profile.ExperienceBeginner:
		return 0.95
	case profile.ExperienceIntermediate:
		return 1.0
	case profile.ExperienceAdvanced:
		return 1.05
	case profile.ExperienceExpert:
		return 1.1
	default:
		return 1.0
	}
}

// progressionMultiplier убывает с опытом: эксперту новые навыки менее новы.
func progressionMultiplier(e profile.ExperienceLevel) float64 {
	switch e {
	case profile.ExperienceBeginner:
		return 0.95
	case profile.ExperienceIntermediate:
		return 0.90
	case profile.ExperienceAdvanced:
		return 0.85
	case profile.ExperienceExpert:
		return 0.80
	default:
		return 0.85
	}
}

// experienceAdjustment - множитель для проектов и учебных треков.
func experienceAdjustment(e profile.ExperienceLevel) float64 {
	switch e {
	case profile.ExperienceBeginner:
		return 1.1
	case profile.ExperienceIntermediate:
		return 1.05
	case profile.ExperienceAdvanced:
		return 1.0
	case profile.ExperienceExpert:
		return 0.95
	default:
		return 1.0
	}
}

func clamp(score float64) float64 {
	if score > 1.0 {
		return 1.0
	}
	if score < 0 {
		return 0
	}
	return score
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
