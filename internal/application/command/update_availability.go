// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/quickksynkk/synk-hub/internal/application/resilience"
	"github.com/quickksynkk/synk-hub/internal/domain/matching"
	"github.com/quickksynkk/synk-hub/internal/domain/profile"
	"github.com/quickksynkk/synk-hub/internal/domain/recommendation"
	"github.com/quickksynkk/synk-hub/internal/domain/shared"
	"github.com/quickksynkk/synk-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE AVAILABILITY COMMAND
// Замена расписания целиком или переключение одного часа.
// ══════════════════════════════════════════════════════════════════════════════

// Готовые расписания.
const (
	PresetWeekdays = "weekdays"
	PresetFullWeek = "full_week"
)

// UpdateAvailabilityCommand заменяет расписание пользователя.
type UpdateAvailabilityCommand struct {
	UserID string

	// Slots - новое расписание. Игнорируется, если задан Preset.
	Slots []profile.AvailabilitySlot

	// Preset - "weekdays" или "full_week".
	Preset string
}

// Validate проверяет команду.
func (c *UpdateAvailabilityCommand) Validate() error {
	if c.UserID == "" {
		return shared.ErrInvalidUserID
	}
	switch c.Preset {
	case "", PresetWeekdays, PresetFullWeek:
	default:
		return fmt.Errorf("unknown preset %q", c.Preset)
	}
	if c.Preset == "" {
		return profile.ValidateAvailability(c.Slots)
	}
	return nil
}

func (c *UpdateAvailabilityCommand) slots() []profile.AvailabilitySlot {
	switch c.Preset {
	case PresetWeekdays:
		return profile.WeekdaysAvailability()
	case PresetFullWeek:
		return profile.FullWeekAvailability()
	default:
		return c.Slots
	}
}

// ToggleAvailabilityCommand переключает один час расписания.
type ToggleAvailabilityCommand struct {
	UserID string

	// DayOfWeek - 0 (воскресенье) .. 6.
	DayOfWeek int

	// Hour - 0..23.
	Hour int
}

// Validate проверяет команду.
func (c *ToggleAvailabilityCommand) Validate() error {
	if c.UserID == "" {
		return shared.ErrInvalidUserID
	}
	slot := profile.AvailabilitySlot{DayOfWeek: c.DayOfWeek, StartHour: c.Hour, EndHour: c.Hour + 1}
	return slot.Validate()
}

// AvailabilityResult - расписание после изменения.
type AvailabilityResult struct {
	UserID       string                     `json:"user_id"`
	Availability []profile.AvailabilitySlot `json:"availability"`

	// AvailableHours - количество доступных часов в неделю.
	AvailableHours int `json:"available_hours"`

	// IsAvailable - состояние переключённого часа (только для toggle).
	IsAvailable *bool `json:"is_available,omitempty"`
}

// UpdateAvailabilityHandler обрабатывает изменения расписания.
type UpdateAvailabilityHandler struct {
	profiles        profile.Repository
	matchCache      matching.Cache
	recommendations recommendation.Cache
	guard           *resilience.Guard
	observer        Observer
	log             *logger.Logger
}

// NewUpdateAvailabilityHandler создаёт handler. Кэши, guard и observer могут быть nil.
func NewUpdateAvailabilityHandler(
	profiles profile.Repository,
	matchCache matching.Cache,
	recommendations recommendation.Cache,
	guard *resilience.Guard,
	observer Observer,
	log *logger.Logger,
) *UpdateAvailabilityHandler {
	if observer == nil {
		observer = nopObserver{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &UpdateAvailabilityHandler{
		profiles:        profiles,
		matchCache:      matchCache,
		recommendations: recommendations,
		guard:           guard,
		observer:        observer,
		log:             log.With(logger.Component("update_availability")),
	}
}

// Handle заменяет расписание.
func (h *UpdateAvailabilityHandler) Handle(ctx context.Context, cmd UpdateAvailabilityCommand) (*AvailabilityResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "UpdateAvailability", shared.ErrValidation, err.Error(), err)
	}

	slots := profile.NormalizeAvailability(cmd.slots())
	if err := h.save(ctx, cmd.UserID, slots); err != nil {
		return nil, err
	}

	h.log.Info("availability replaced",
		logger.UserID(cmd.UserID),
		logger.Int("hours", profile.AvailableHours(slots)),
	)

	return &AvailabilityResult{
		UserID:         cmd.UserID,
		Availability:   slots,
		AvailableHours: profile.AvailableHours(slots),
	}, nil
}

// Toggle переключает один час в текущем расписании пользователя.
// Чтение и запись идут в одной операции репозитория, поэтому параллельные
// toggle одного пользователя не теряют изменения друг друга.
func (h *UpdateAvailabilityHandler) Toggle(ctx context.Context, cmd ToggleAvailabilityCommand) (*AvailabilityResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "ToggleAvailability", shared.ErrValidation, err.Error(), err)
	}

	slots, err := resilience.Do(ctx, h.guard, "ModifyAvailability", func(ctx context.Context) ([]profile.AvailabilitySlot, error) {
		return h.profiles.ModifyAvailability(ctx, cmd.UserID, func(current []profile.AvailabilitySlot) []profile.AvailabilitySlot {
			return profile.ToggleAvailability(current, cmd.DayOfWeek, cmd.Hour)
		})
	})
	if err != nil {
		return nil, err
	}
	h.invalidate(ctx, cmd.UserID)

	available := profile.IsAvailableAt(slots, cmd.DayOfWeek, cmd.Hour)
	h.log.Info("availability toggled",
		logger.UserID(cmd.UserID),
		logger.Int("day", cmd.DayOfWeek),
		logger.Int("hour", cmd.Hour),
		logger.Bool("available", available),
	)

	return &AvailabilityResult{
		UserID:         cmd.UserID,
		Availability:   slots,
		AvailableHours: profile.AvailableHours(slots),
		IsAvailable:    &available,
	}, nil
}

func (h *UpdateAvailabilityHandler) save(ctx context.Context, userID string, slots []profile.AvailabilitySlot) error {
	err := resilience.Exec(ctx, h.guard, "UpdateAvailability", func(ctx context.Context) error {
		return h.profiles.UpdateAvailability(ctx, userID, slots)
	})
	if err != nil {
		return err
	}
	h.invalidate(ctx, userID)
	return nil
}

// invalidate сбрасывает кэши пользователя. Рейтинги других пользователей,
// в которых он участвует, устаревают не дольше TTL кэша подбора.
func (h *UpdateAvailabilityHandler) invalidate(ctx context.Context, userID string) {
	var errs []error
	if h.matchCache != nil {
		if err := h.matchCache.InvalidateUser(ctx, userID); err != nil {
			h.observer.CacheError(cacheMatches)
			errs = append(errs, err)
		}
	}
	if h.recommendations != nil {
		if err := h.recommendations.Invalidate(ctx, userID); err != nil {
			h.observer.CacheError(cacheRecommendations)
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		h.log.Warn("failed to invalidate caches", logger.UserID(userID), logger.Err(err))
	}
}
