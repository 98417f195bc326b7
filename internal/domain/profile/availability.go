package profile

import (
	"fmt"
	"sort"

	"github.com/quickksynkk/synk-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AVAILABILITY SLOT
// Недельное расписание: день недели (0 = воскресенье) и полуинтервал часов
// [StartHour, EndHour).
// ══════════════════════════════════════════════════════════════════════════════

const (
	// DaysPerWeek - количество дней в неделе.
	DaysPerWeek = 7

	// HoursPerDay - количество часов в сутках.
	HoursPerDay = 24
)

// AvailabilitySlot - интервал доступности (или недоступности) в течение дня.
type AvailabilitySlot struct {
	DayOfWeek   int  `json:"day_of_week"`
	StartHour   int  `json:"start_hour"`
	EndHour     int  `json:"end_hour"`
	IsAvailable bool `json:"is_available"`
}

// Validate проверяет границы слота.
func (s AvailabilitySlot) Validate() error {
	if s.DayOfWeek < 0 || s.DayOfWeek >= DaysPerWeek {
		return shared.WrapError("profile", "ValidateSlot", shared.ErrValueOutOfRange,
			fmt.Sprintf("day_of_week %d out of range", s.DayOfWeek), shared.ErrInvalidSlot)
	}
	if s.StartHour < 0 || s.EndHour > HoursPerDay || s.StartHour >= s.EndHour {
		return shared.WrapError("profile", "ValidateSlot", shared.ErrValueOutOfRange,
			fmt.Sprintf("hours [%d,%d) out of range", s.StartHour, s.EndHour), shared.ErrInvalidSlot)
	}
	return nil
}

// Covers возвращает true, если слот содержит час day:hour.
func (s AvailabilitySlot) Covers(day, hour int) bool {
	return s.DayOfWeek == day && hour >= s.StartHour && hour < s.EndHour
}

// ValidateAvailability проверяет все слоты расписания.
func ValidateAvailability(slots []AvailabilitySlot) error {
	for _, s := range slots {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HOUR GRID
// ══════════════════════════════════════════════════════════════════════════════

// HourKey - атомарная ячейка недельной сетки.
type HourKey struct {
	Day  int
	Hour int
}

// ExpandAvailability раскладывает слоты по часам. Если слоты одного
// пользователя конфликтуют, побеждает последний по порядку.
func ExpandAvailability(slots []AvailabilitySlot) map[HourKey]bool {
	grid := make(map[HourKey]bool)
	for _, s := range slots {
		for h := s.StartHour; h < s.EndHour; h++ {
			grid[HourKey{Day: s.DayOfWeek, Hour: h}] = s.IsAvailable
		}
	}
	return grid
}

// IsAvailableAt проверяет, отмечен ли час day:hour как доступный.
func IsAvailableAt(slots []AvailabilitySlot, day, hour int) bool {
	for _, s := range slots {
		if s.Covers(day, hour) && s.IsAvailable {
			return true
		}
	}
	return false
}

// AvailableHours возвращает количество доступных часов в неделю.
func AvailableHours(slots []AvailabilitySlot) int {
	count := 0
	for _, available := range ExpandAvailability(slots) {
		if available {
			count++
		}
	}
	return count
}

// ══════════════════════════════════════════════════════════════════════════════
// NORMALIZATION & EDITING
// ══════════════════════════════════════════════════════════════════════════════

// NormalizeAvailability сортирует слоты по (день, начало) и склеивает соседние
// или пересекающиеся слоты одного дня с одинаковым флагом.
// Исходный срез не изменяется.
func NormalizeAvailability(slots []AvailabilitySlot) []AvailabilitySlot {
	if len(slots) == 0 {
		return []AvailabilitySlot{}
	}

	sorted := make([]AvailabilitySlot, len(slots))
	copy(sorted, slots)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].DayOfWeek != sorted[j].DayOfWeek {
			return sorted[i].DayOfWeek < sorted[j].DayOfWeek
		}
		return sorted[i].StartHour < sorted[j].StartHour
	})

	merged := make([]AvailabilitySlot, 0, len(sorted))
	for _, s := range sorted {
		if n := len(merged); n > 0 {
			last := &merged[n-1]
			if last.DayOfWeek == s.DayOfWeek &&
				last.IsAvailable == s.IsAvailable &&
				last.EndHour >= s.StartHour {
				if s.EndHour > last.EndHour {
					last.EndHour = s.EndHour
				}
				continue
			}
		}
		merged = append(merged, s)
	}

	return merged
}

// ToggleAvailability переключает один час: доступный час убирается из
// расписания, недоступный становится доступным. Результат нормализован.
func ToggleAvailability(slots []AvailabilitySlot, day, hour int) []AvailabilitySlot {
	wasAvailable := IsAvailableAt(slots, day, hour)

	result := make([]AvailabilitySlot, 0, len(slots)+2)
	for _, s := range slots {
		if !s.Covers(day, hour) {
			result = append(result, s)
			continue
		}
		// Разрезаем слот вокруг переключаемого часа.
		if s.StartHour < hour {
			left := s
			left.EndHour = hour
			result = append(result, left)
		}
		if hour+1 < s.EndHour {
			right := s
			right.StartHour = hour + 1
			result = append(result, right)
		}
	}

	if !wasAvailable {
		result = append(result, AvailabilitySlot{
			DayOfWeek:   day,
			StartHour:   hour,
			EndHour:     hour + 1,
			IsAvailable: true,
		})
	}

	return NormalizeAvailability(result)
}

// WeekdaysAvailability - пн-пт с 9 до 17, расписание по умолчанию.
func WeekdaysAvailability() []AvailabilitySlot {
	slots := make([]AvailabilitySlot, 0, 5)
	for day := 1; day <= 5; day++ {
		slots = append(slots, AvailabilitySlot{DayOfWeek: day, StartHour: 9, EndHour: 17, IsAvailable: true})
	}
	return slots
}

// FullWeekAvailability - каждый день с 9 до 18.
func FullWeekAvailability() []AvailabilitySlot {
	slots := make([]AvailabilitySlot, 0, DaysPerWeek)
	for day := 0; day < DaysPerWeek; day++ {
		slots = append(slots, AvailabilitySlot{DayOfWeek: day, StartHour: 9, EndHour: 18, IsAvailable: true})
	}
	return slots
}
