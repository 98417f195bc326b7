package query

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/quickksynkk/synk-hub/config"
	"github.com/quickksynkk/synk-hub/internal/application/resilience"
	"github.com/quickksynkk/synk-hub/internal/domain/profile"
	"github.com/quickksynkk/synk-hub/internal/domain/recommendation"
	"github.com/quickksynkk/synk-hub/internal/domain/shared"
	"github.com/quickksynkk/synk-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET RECOMMENDATIONS QUERY
// Возвращает текущий набор рекомендаций пользователя.
// Порядок: кэш → сохранённый неистёкший набор → новая генерация.
// ══════════════════════════════════════════════════════════════════════════════

// GetRecommendationsQuery содержит параметры запроса.
type GetRecommendationsQuery struct {
	UserID string

	// ForceRefresh - пропустить кэш и сохранённый набор.
	ForceRefresh bool
}

// Validate проверяет параметры.
func (q *GetRecommendationsQuery) Validate() error {
	if q.UserID == "" {
		return shared.ErrInvalidUserID
	}
	return nil
}

// RecommendationsResult - набор рекомендаций.
type RecommendationsResult struct {
	UserID      string              `json:"user_id"`
	BatchID     string              `json:"batch_id"`
	Items       []RecommendationDTO `json:"items"`
	GeneratedAt time.Time           `json:"generated_at"`
	ExpiresAt   time.Time           `json:"expires_at"`

	// Source - "cache", "stored" или "generated".
	Source string `json:"source"`

	FromCache    bool `json:"from_cache"`
	UsedFallback bool `json:"used_fallback,omitempty"`
}

// GetRecommendationsHandler обрабатывает GetRecommendationsQuery.
type GetRecommendationsHandler struct {
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

// NewGetRecommendationsHandler создаёт handler. cache, guard, features и
// observer могут быть nil.
func NewGetRecommendationsHandler(
	profiles profile.Repository,
	batches recommendation.Repository,
	cache recommendation.Cache,
	guard *resilience.Guard,
	features FeatureChecker,
	observer Observer,
	log *logger.Logger,
) *GetRecommendationsHandler {
	if features == nil {
		features = allFeatures{}
	}
	if observer == nil {
		observer = nopObserver{}
	}
	if log == nil {
		log = logger.Nop()
	}

	return &GetRecommendationsHandler{
		profiles:  profiles,
		batches:   batches,
		cache:     cache,
		generator: recommendation.NewGenerator(),
		guard:     guard,
		features:  features,
		observer:  observer,
		log:       log.With(logger.Component("get_recommendations")),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Handle возвращает рекомендации пользователя.
func (h *GetRecommendationsHandler) Handle(ctx context.Context, query GetRecommendationsQuery) (*RecommendationsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetRecommendations", shared.ErrValidation, err.Error(), err)
	}

	log := h.log.With(logger.UserID(query.UserID))
	now := h.now()
	useCache := h.cache != nil && h.features.IsEnabled(config.FeatureRecommendationCache, query.UserID)

	if !query.ForceRefresh {
		if useCache {
			if batch := h.cachedBatch(ctx, query.UserID, now, log); batch != nil {
				h.observer.RecommendationServed(SourceCache)
				return toRecommendationsResult(batch, SourceCache, false), nil
			}
		}

		if batch := h.storedBatch(ctx, query.UserID, now, log); batch != nil {
			if useCache {
				h.cacheBatch(ctx, batch, log)
			}
			h.observer.RecommendationServed(SourceStored)
			return toRecommendationsResult(batch, SourceStored, false), nil
		}
	}

	// Генерация по актуальному профилю
	p, err := resilience.Do(ctx, h.guard, "GetByID", func(ctx context.Context) (*profile.UserProfile, error) {
		return h.profiles.GetByID(ctx, query.UserID)
	})
	if err != nil {
		return nil, err
	}

	useFallback := h.features.IsEnabled(config.FeatureRecommendationFallback, query.UserID)
	batch, usedFallback := recommendation.BuildBatch(h.generator, p, h.newID(), now, useFallback)
	h.observer.ObserveRecommendations(batch.Items, usedFallback)

	// Набор отдаётся, даже если сохранить его не удалось
	err = resilience.Exec(ctx, h.guard, "SaveBatch", func(ctx context.Context) error {
		return h.batches.SaveBatch(ctx, batch)
	})
	if err != nil {
		log.Warn("failed to persist recommendations", logger.Err(err))
	}

	if useCache {
		h.cacheBatch(ctx, batch, log)
	}

	log.Info("recommendations generated",
		logger.Count(len(batch.Items)),
		logger.Bool("fallback", usedFallback),
	)

	h.observer.RecommendationServed(SourceGenerated)
	return toRecommendationsResult(batch, SourceGenerated, usedFallback), nil
}

func (h *GetRecommendationsHandler) cachedBatch(ctx context.Context, userID string, now time.Time, log *logger.Logger) *recommendation.Batch {
	batch, err := h.cache.Get(ctx, userID)
	switch {
	case err != nil:
		h.observer.CacheError(CacheRecommendations)
		log.Warn("recommendation cache unavailable", logger.Err(err))
		return nil
	case batch == nil || batch.IsExpired(now):
		h.observer.CacheMiss(CacheRecommendations)
		return nil
	default:
		h.observer.CacheHit(CacheRecommendations)
		return batch
	}
}

// storedBatch возвращает неистёкший сохранённый набор или nil.
// Ошибка хранилища не прерывает запрос: набор будет сгенерирован заново.
func (h *GetRecommendationsHandler) storedBatch(ctx context.Context, userID string, now time.Time, log *logger.Logger) *recommendation.Batch {
	batch, err := resilience.Do(ctx, h.guard, "GetLatestBatch", func(ctx context.Context) (*recommendation.Batch, error) {
		return h.batches.GetLatestBatch(ctx, userID)
	})
	if err != nil {
		if !shared.IsNotFound(err) {
			log.Warn("failed to load stored recommendations", logger.Err(err))
		}
		return nil
	}
	if batch == nil || batch.IsExpired(now) {
		return nil
	}
	return batch
}

func (h *GetRecommendationsHandler) cacheBatch(ctx context.Context, batch *recommendation.Batch, log *logger.Logger) {
	if err := h.cache.Set(ctx, batch); err != nil {
		h.observer.CacheError(CacheRecommendations)
		log.Warn("failed to cache recommendations", logger.Err(err))
	}
}

func toRecommendationsResult(batch *recommendation.Batch, source string, usedFallback bool) *RecommendationsResult {
	return &RecommendationsResult{
		UserID:       batch.UserID,
		BatchID:      batch.ID,
		Items:        ToRecommendationDTOs(batch.Items),
		GeneratedAt:  batch.GeneratedAt,
		ExpiresAt:    batch.ExpiresAt,
		Source:       source,
		FromCache:    source == SourceCache,
		UsedFallback: usedFallback,
	}
}
