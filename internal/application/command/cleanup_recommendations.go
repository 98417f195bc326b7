package command

import (
	"context"
	"time"

	"github.com/quickksynkk/synk-hub/internal/application/resilience"
	"github.com/quickksynkk/synk-hub/internal/domain/recommendation"
	"github.com/quickksynkk/synk-hub/pkg/logger"
)

// CleanupRecommendationsHandler удаляет истёкшие наборы рекомендаций.
type CleanupRecommendationsHandler struct {
	batches recommendation.Repository
	guard   *resilience.Guard
	log     *logger.Logger
	now     func() time.Time
}

// NewCleanupRecommendationsHandler создаёт handler.
func NewCleanupRecommendationsHandler(batches recommendation.Repository, guard *resilience.Guard, log *logger.Logger) *CleanupRecommendationsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &CleanupRecommendationsHandler{
		batches: batches,
		guard:   guard,
		log:     log.With(logger.Component("cleanup_recommendations")),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Handle удаляет наборы, истёкшие к текущему моменту, и возвращает их количество.
func (h *CleanupRecommendationsHandler) Handle(ctx context.Context) (int64, error) {
	now := h.now()
	deleted, err := resilience.Do(ctx, h.guard, "DeleteExpired", func(ctx context.Context) (int64, error) {
		return h.batches.DeleteExpired(ctx, now)
	})
	if err != nil {
		return 0, err
	}

	h.log.Info("expired recommendations deleted", logger.Int("deleted", int(deleted)))
	return deleted, nil
}
