// Package recommendation содержит генератор персональных рекомендаций:
// напарники, навыки для изучения, проекты, события и учебные треки.
// Все рекомендации строятся по статическим справочникам без случайности.
package recommendation

import (
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// TYPE
// ══════════════════════════════════════════════════════════════════════════════

// Type - категория рекомендации.
type Type string

const (
	TypeTeammate Type = "teammate"
	TypeSkill    Type = "skill"
	TypeProject  Type = "project"
	TypeEvent    Type = "event"
	TypeLearning Type = "learning"
)

// DefaultType используется вместо неизвестной категории.
const DefaultType = TypeTeammate

// Types возвращает все категории в порядке генерации.
func Types() []Type {
	return []Type{TypeTeammate, TypeSkill, TypeProject, TypeEvent, TypeLearning}
}

// ParseType разбирает категорию без учёта регистра. Неизвестное значение
// превращается в DefaultType.
func ParseType(s string) Type {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if t.IsValid() {
		return t
	}
	return DefaultType
}

// IsValid проверяет, что категория известна.
func (t Type) IsValid() bool {
	switch t {
	case TypeTeammate, TypeSkill, TypeProject, TypeEvent, TypeLearning:
		return true
	}
	return false
}

// String реализует fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// ══════════════════════════════════════════════════════════════════════════════
// RECOMMENDATION
// ══════════════════════════════════════════════════════════════════════════════

// Recommendation - одна рекомендация. Value object: создаётся заново
// при каждой генерации.
type Recommendation struct {
	Type        Type     `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Score       float64  `json:"score"`
	Reasons     []string `json:"reasons"`
}

// ══════════════════════════════════════════════════════════════════════════════
// BATCH
// ══════════════════════════════════════════════════════════════════════════════

// BatchTTL - срок жизни сохранённого набора рекомендаций.
const BatchTTL = 7 * 24 * time.Hour

// Batch - сохранённый набор рекомендаций пользователя.
type Batch struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	Items       []Recommendation `json:"items"`
	GeneratedAt time.Time        `json:"generated_at"`
	ExpiresAt   time.Time        `json:"expires_at"`
}

// NewBatch создаёт набор со сроком жизни BatchTTL от момента now.
func NewBatch(id, userID string, items []Recommendation, now time.Time) *Batch {
	if items == nil {
		items = []Recommendation{}
	}
	return &Batch{
		ID:          id,
		UserID:      userID,
		Items:       items,
		GeneratedAt: now,
		ExpiresAt:   now.Add(BatchTTL),
	}
}

// IsExpired проверяет, истёк ли срок жизни набора к моменту now.
func (b *Batch) IsExpired(now time.Time) bool {
	return !now.Before(b.ExpiresAt)
}

// CountByType возвращает количество рекомендаций каждой категории.
func (b *Batch) CountByType() map[Type]int {
	counts := make(map[Type]int, len(Types()))
	for _, item := range b.Items {
		counts[item.Type]++
	}
	return counts
}
