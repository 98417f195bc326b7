// Package profile содержит доменную модель профиля пользователя:
// навыки, интересы, уровень опыта, роль и недельное расписание доступности.
package profile

import (
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPERIENCE LEVEL
// ══════════════════════════════════════════════════════════════════════════════

// ExperienceLevel - уровень опыта пользователя (упорядоченная шкала).
type ExperienceLevel string

const (
	// ExperienceBeginner - начинающий.
	ExperienceBeginner ExperienceLevel = "beginner"

	// ExperienceIntermediate - средний уровень.
	ExperienceIntermediate ExperienceLevel = "intermediate"

	// ExperienceAdvanced - продвинутый.
	ExperienceAdvanced ExperienceLevel = "advanced"

	// ExperienceExpert - эксперт.
	ExperienceExpert ExperienceLevel = "expert"
)

// DefaultExperience используется вместо неизвестного значения уровня.
const DefaultExperience = ExperienceBeginner

// experienceOrder задаёт порядок уровней от beginner к expert.
var experienceOrder = [...]ExperienceLevel{
	ExperienceBeginner,
	ExperienceIntermediate,
	ExperienceAdvanced,
	ExperienceExpert,
}

// ParseExperienceLevel разбирает строку без учёта регистра ("Beginner", "expert").
// Второе значение false, если уровень не распознан.
func ParseExperienceLevel(s string) (ExperienceLevel, bool) {
	level := ExperienceLevel(strings.ToLower(strings.TrimSpace(s)))
	if level.IsValid() {
		return level, true
	}
	return DefaultExperience, false
}

// IsValid проверяет, что уровень входит в шкалу.
func (e ExperienceLevel) IsValid() bool {
	_, ok := e.Index()
	return ok
}

// Index возвращает порядковый номер уровня (beginner=0 … expert=3).
func (e ExperienceLevel) Index() (int, bool) {
	for i, level := range experienceOrder {
		if level == e {
			return i, true
		}
	}
	return 0, false
}

// OrDefault возвращает сам уровень или DefaultExperience для неизвестного значения.
func (e ExperienceLevel) OrDefault() ExperienceLevel {
	if e.IsValid() {
		return e
	}
	return DefaultExperience
}

// String реализует fmt.Stringer.
func (e ExperienceLevel) String() string {
	return string(e)
}

// ExperienceLevels возвращает все уровни по возрастанию.
func ExperienceLevels() []ExperienceLevel {
	levels := make([]ExperienceLevel, len(experienceOrder))
	copy(levels, experienceOrder[:])
	return levels
}

// ══════════════════════════════════════════════════════════════════════════════
// ROLE
// ══════════════════════════════════════════════════════════════════════════════

// Role - роль пользователя в команде.
type Role string

const (
	RoleDeveloper Role = "developer"
	RoleDesigner  Role = "designer"
	RoleManager   Role = "manager"
	RoleMarketing Role = "marketing"
	RoleAnalyst   Role = "analyst"
)

// DefaultRole используется вместо неизвестной роли.
const DefaultRole = RoleDeveloper

// ParseRole разбирает роль без учёта регистра, неизвестное значение → DefaultRole.
func ParseRole(s string) Role {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if role.IsValid() {
		return role
	}
	return DefaultRole
}

// IsValid проверяет корректность роли.
func (r Role) IsValid() bool {
	switch r {
	case RoleDeveloper, RoleDesigner, RoleManager, RoleMarketing, RoleAnalyst:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// USER PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// UserProfile - профиль пользователя, вход для подбора и рекомендаций.
type UserProfile struct {
	// ID - идентификатор пользователя.
	ID string `json:"id"`

	// DisplayName - имя для отображения (в расчётах не участвует).
	DisplayName string `json:"display_name"`

	// Skills - навыки, порядок важен только для генератора рекомендаций.
	Skills []string `json:"skills"`

	// Interests - интересы.
	Interests []string `json:"interests"`

	// Experience - уровень опыта.
	Experience ExperienceLevel `json:"experience"`

	// Role - роль.
	Role Role `json:"role"`

	// Availability - недельное расписание.
	Availability []AvailabilitySlot `json:"availability"`

	// Bio - описание профиля.
	Bio string `json:"bio,omitempty"`

	// Location - город или регион.
	Location string `json:"location,omitempty"`

	// JoinedAt - дата регистрации.
	JoinedAt time.Time `json:"joined_at"`

	// UpdatedAt - дата последнего изменения.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsComplete возвращает true, если указан хотя бы один навык и один интерес.
func (p *UserProfile) IsComplete() bool {
	return len(p.Skills) > 0 && len(p.Interests) > 0
}

// HasSkill проверяет наличие навыка.
func (p *UserProfile) HasSkill(skill string) bool {
	for _, s := range p.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// SetAvailability заменяет расписание нормализованной копией.
func (p *UserProfile) SetAvailability(slots []AvailabilitySlot) {
	p.Availability = NormalizeAvailability(slots)
	p.UpdatedAt = time.Now().UTC()
}

// Clone возвращает глубокую копию профиля.
func (p *UserProfile) Clone() *UserProfile {
	c := *p
	c.Skills = append([]string(nil), p.Skills...)
	c.Interests = append([]string(nil), p.Interests...)
	c.Availability = append([]AvailabilitySlot(nil), p.Availability...)
	return &c
}
