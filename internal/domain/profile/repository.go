package profile

import "context"

// Repository - хранилище профилей. Порядок в GetAll не гарантируется.
type Repository interface {
	// GetByID возвращает профиль или shared.ErrProfileNotFound.
	GetByID(ctx context.Context, id string) (*UserProfile, error)

	// GetAll возвращает все профили.
	GetAll(ctx context.Context) ([]*UserProfile, error)

	// FindBySkills возвращает пользователей, у которых есть хотя бы один из навыков.
	FindBySkills(ctx context.Context, skills []string) ([]*UserProfile, error)

	// Save создаёт или обновляет профиль.
	Save(ctx context.Context, p *UserProfile) error

	// UpdateAvailability заменяет расписание пользователя.
	UpdateAvailability(ctx context.Context, id string, slots []AvailabilitySlot) error

	// ModifyAvailability атомарно применяет fn к текущему расписанию и
	// сохраняет результат. Параллельные вызовы для одного пользователя
	// выполняются по очереди. Возвращает сохранённое расписание.
	ModifyAvailability(ctx context.Context, id string, fn func([]AvailabilitySlot) []AvailabilitySlot) ([]AvailabilitySlot, error)
}
