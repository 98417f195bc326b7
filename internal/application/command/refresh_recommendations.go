package command

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/quickksynkk/synk-hub/config"
	"github.com/quickksynkk/synk-hub/internal/application/resilience"
	"github.com/quickksynkk/synk-hub/internal/domain/profile"
	"github.com/quickksynkk/synk-hub/internal/domain/recommendation"
	"github.com/quickksynkk/synk-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REFRESH RECOMMENDATIONS COMMAND
// Пересчитывает наборы рекомендаций. Запускается фоновой задачей.
// ══════════════════════════════════════════════════════════════════════════════

// RefreshRecommendationsCommand - параметры пересчёта.
type RefreshRecommendationsCommand struct {
	// UserIDs - кого пересчитать. Пустой список - все профили.
	UserIDs []string
}

// RefreshRecommendationsResult - итоги пересчёта.
type RefreshRecommendationsResult struct {
	Processed    int
	Refreshed    int
	Skipped      int // незаполненные профили
	Failed       int
	FallbackUsed int
	Duration     time.Duration
}

// RefreshRecommendationsHandler обрабатывает RefreshRecommendationsCommand.
type RefreshRecommendationsHandler struct {
	profiles  profile.Repository
	batches   recommendation.Repository
	cache     recommendation.Cache
	generator *recommendation.Generator
	guard     *resilience.Guard
	features  FeatureChecker
	observer  Observer
	log       *logger.Logger
	now       func() time.Time
	newID     func() string
}

// NewRefreshRecommendationsHandler создаёт handler. cache, guard, features и
// observer могут быть nil.
func NewRefreshRecommendationsHandler(
	profiles profile.Repository,
	batches recommendation.Repository,
	cache recommendation.Cache,
	guard *resilience.Guard,
	features FeatureChecker,
	observer Observer,
	log *logger.Logger,
) *RefreshRecommendationsHandler {
	if features == nil {
		features = allFeatures{}
	}
	if observer == nil {
		observer = nopObserver{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RefreshRecommendationsHandler{
		profiles:  profiles,
		batches:   batches,
		cache:     cache,
		generator: recommendation.NewGenerator(),
		guard:     guard,
		features:  features,
		observer:  observer,
		log:       log.With(logger.Component("refresh_recommendations")),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Handle пересчитывает наборы. Ошибка одного пользователя не останавливает
// остальных; ошибка возвращается только если не удалось загрузить профили
// или отменён контекст.
func (h *RefreshRecommendationsHandler) Handle(ctx context.Context, cmd RefreshRecommendationsCommand) (*RefreshRecommendationsResult, error) {
	start := time.Now()

	profiles, err := h.load(ctx, cmd.UserIDs)
	if err != nil {
		return nil, err
	}

	result := &RefreshRecommendationsResult{}
	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}

		result.Processed++
		if !p.IsComplete() {
			result.Skipped++
			continue
		}

		usedFallback, err := h.refresh(ctx, p)
		if err != nil {
			result.Failed++
			h.log.Warn("failed to refresh recommendations", logger.UserID(p.ID), logger.Err(err))
			continue
		}
		result.Refreshed++
		if usedFallback {
			result.FallbackUsed++
		}
	}

	result.Duration = time.Since(start)
	h.log.Info("recommendations refreshed",
		logger.Int("processed", result.Processed),
		logger.Int("refreshed", result.Refreshed),
		logger.Int("skipped", result.Skipped),
		logger.Int("failed", result.Failed),
		logger.Latency(result.Duration),
	)
	return result, nil
}

func (h *RefreshRecommendationsHandler) load(ctx context.Context, userIDs []string) ([]*profile.UserProfile, error) {
	if len(userIDs) == 0 {
		return resilience.Do(ctx, h.guard, "GetAll", func(ctx context.Context) ([]*profile.UserProfile, error) {
			return h.profiles.GetAll(ctx)
		})
	}

	out := make([]*profile.UserProfile, 0, len(userIDs))
	for _, id := range userIDs {
		p, err := resilience.Do(ctx, h.guard, "GetByID", func(ctx context.Context) (*profile.UserProfile, error) {
			return h.profiles.GetByID(ctx, id)
		})
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (h *RefreshRecommendationsHandler) refresh(ctx context.Context, p *profile.UserProfile) (bool, error) {
	useFallback := h.features.IsEnabled(config.FeatureRecommendationFallback, p.ID)
	batch, usedFallback := recommendation.BuildBatch(h.generator, p, h.newID(), h.now(), useFallback)
	h.observer.ObserveRecommendations(batch.Items, usedFallback)

	err := resilience.Exec(ctx, h.guard, "SaveBatch", func(ctx context.Context) error {
		return h.batches.SaveBatch(ctx, batch)
	})
	if err != nil {
		return false, err
	}

	// Старый набор в кэше больше не актуален
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, p.ID); err != nil {
			h.observer.CacheError(cacheRecommendations)
			h.log.Warn("failed to invalidate recommendation cache", logger.UserID(p.ID), logger.Err(err))
		}
	}
	return usedFallback, nil
}
