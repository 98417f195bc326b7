// Package skills хранит статический справочник взаимодополняющих навыков.
// Справочник общий для подбора напарников и генератора рекомендаций, чтобы
// объяснения совпадений и рекомендации не расходились.
package skills

// complementary - навык → навыки, с которыми он хорошо сочетается.
// Порядок списков значим: генератор рекомендаций берёт первые элементы.
var complementary = map[string][]string{
	"Swift":                {"UI/UX Design", "Backend Development", "Product Management", "Quality Assurance"},
	"UI/UX Design":         {"Frontend Development", "Swift", "React", "User Research"},
	"Backend Development":  {"Frontend Development", "DevOps", "Database Design", "API Design"},
	"Python":               {"Data Science", "Machine Learning", "Web Development", "DevOps"},
	"React":                {"Backend Development", "UI/UX Design", "Mobile Development", "Testing"},
	"JavaScript":           {"Backend Development", "UI/UX Design", "Testing", "DevOps"},
	"Machine Learning":     {"Data Science", "Python", "Statistics", "Research"},
	"Data Science":         {"Machine Learning", "Statistics", "Business Analysis", "Visualization"},
	"Project Management":   {"Technical Writing", "Business Analysis", "Marketing", "Strategy", "Communication", "Leadership"},
	"DevOps":               {"Backend Development", "Cloud Computing", "Security", "Monitoring"},
	"Mobile Development":   {"UI/UX Design", "Backend Development", "Testing", "Analytics"},
	"Frontend Development": {"Backend Development", "UI/UX Design"},
	"iOS Development":      {"Backend Development", "UI/UX Design"},
}

// Complements возвращает копию списка навыков, дополняющих skill.
// Второе значение false, если навыка нет в справочнике.
func Complements(skill string) ([]string, bool) {
	list, ok := complementary[skill]
	if !ok {
		return nil, false
	}
	out := make([]string, len(list))
	copy(out, list)
	return out, true
}

// IsKnown проверяет, есть ли навык среди ключей справочника.
func IsKnown(skill string) bool {
	_, ok := complementary[skill]
	return ok
}

// ComplementaryFor возвращает навыки кандидата, дополняющие навыки опорного
// пользователя. Связь направленная (reference → candidate), дубликаты
// схлопываются, порядок детерминирован: по навыкам reference, затем по
// порядку в справочнике.
func ComplementaryFor(reference, candidate []string) []string {
	has := make(map[string]struct{}, len(candidate))
	for _, s := range candidate {
		has[s] = struct{}{}
	}

	seen := make(map[string]struct{})
	visited := make(map[string]struct{}, len(reference))
	result := make([]string, 0)
	for _, skill := range reference {
		if _, dup := visited[skill]; dup {
			continue
		}
		visited[skill] = struct{}{}

		for _, comp := range complementary[skill] {
			if _, ok := has[comp]; !ok {
				continue
			}
			if _, dup := seen[comp]; dup {
				continue
			}
			seen[comp] = struct{}{}
			result = append(result, comp)
		}
	}
	return result
}
