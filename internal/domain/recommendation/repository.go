package recommendation

import (
	"context"
	"time"
)

// Repository - хранилище наборов рекомендаций.
type Repository interface {
	// SaveBatch сохраняет набор, заменяя предыдущий набор пользователя.
	SaveBatch(ctx context.Context, batch *Batch) error

	// GetLatestBatch возвращает последний набор пользователя или
	// shared.ErrRecommendationsNotFound.
	GetLatestBatch(ctx context.Context, userID string) (*Batch, error)

	// DeleteExpired удаляет наборы, истёкшие к моменту now. Возвращает количество.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
