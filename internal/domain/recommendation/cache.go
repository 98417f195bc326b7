package recommendation

import "context"

// Cache - кэш текущего набора рекомендаций пользователя.
type Cache interface {
	// Get возвращает (nil, nil) при промахе.
	Get(ctx context.Context, userID string) (*Batch, error)

	// Set кэширует набор не дольше его срока жизни.
	Set(ctx context.Context, batch *Batch) error

	Invalidate(ctx context.Context, userID string) error
}
