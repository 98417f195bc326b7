// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/quickksynkk/synk-hub/config"
	"github.com/quickksynkk/synk-hub/internal/application/resilience"
	"github.com/quickksynkk/synk-hub/internal/domain/matching"
	"github.com/quickksynkk/synk-hub/internal/domain/profile"
	"github.com/quickksynkk/synk-hub/internal/domain/shared"
	"github.com/quickksynkk/synk-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// FIND MATCHES QUERY
// Подбирает совместимых напарников для пользователя.
// ══════════════════════════════════════════════════════════════════════════════

// Лимиты по умолчанию, если в конфигурации не заданы.
const (
	DefaultMatchLimit = 20
	MaxMatchLimit     = 100
)

// FindMatchesQuery содержит параметры подбора.
type FindMatchesQuery struct {
	// UserID - опорный пользователь.
	UserID string

	// Limit - максимальное количество результатов.
	Limit int

	// MinScore - минимальная оценка ∈ [0,1].
	MinScore float64

	// NarrowBySkills - брать кандидатов только среди тех, у кого есть
	// хотя бы один общий навык. Дополняющие навыки при этом не ищутся.
	NarrowBySkills bool
}

// Validate проверяет параметры и подставляет значения по умолчанию.
func (q *FindMatchesQuery) Validate(defaultLimit, maxLimit int) error {
	if q.UserID == "" {
		return shared.ErrInvalidUserID
	}
	if q.MinScore < 0 || q.MinScore > 1 {
		return errors.New("min_score must be between 0 and 1")
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return nil
}

// FindMatchesResult - результат подбора.
type FindMatchesResult struct {
	UserID string `json:"user_id"`

	// Matches - кандидаты по убыванию оценки.
	Matches []MatchDTO `json:"matches"`

	// TotalCandidates - сколько кандидатов было оценено.
	TotalCandidates int `json:"total_candidates"`

	RankedAt  time.Time `json:"ranked_at"`
	FromCache bool      `json:"from_cache"`
}

// MatchesConfig - лимиты запроса.
type MatchesConfig struct {
	DefaultLimit int
	MaxLimit     int
}

// FindMatchesHandler обрабатывает FindMatchesQuery.
type FindMatchesHandler struct {
	profiles profile.Repository
	cache    matching.Cache
	scorer   *matching.Scorer
	guard    *resilience.Guard
	features FeatureChecker
	observer Observer
	log      *logger.Logger
	config   MatchesConfig
	now      func() time.Time
}

// NewFindMatchesHandler создаёт handler. cache, guard, features и observer
// могут быть nil.
func NewFindMatchesHandler(
	profiles profile.Repository,
	cache matching.Cache,
	guard *resilience.Guard,
	features FeatureChecker,
	observer Observer,
	log *logger.Logger,
	cfg MatchesConfig,
) *FindMatchesHandler {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultMatchLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = MaxMatchLimit
	}
	if cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = cfg.MaxLimit
	}
	if features == nil {
		features = allFeatures{}
	}
	if observer == nil {
		observer = nopObserver{}
	}
	if log == nil {
		log = logger.Nop()
	}

	return &FindMatchesHandler{
		profiles: profiles,
		cache:    cache,
		scorer:   matching.NewScorer(),
		guard:    guard,
		features: features,
		observer: observer,
		log:      log.With(logger.Component("find_matches")),
		config:   cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Handle выполняет подбор.
func (h *FindMatchesHandler) Handle(ctx context.Context, query FindMatchesQuery) (*FindMatchesResult, error) {
	if err := query.Validate(h.config.DefaultLimit, h.config.MaxLimit); err != nil {
		return nil, shared.WrapError("query", "FindMatches", shared.ErrValidation, err.Error(), err)
	}

	log := h.log.With(logger.UserID(query.UserID))
	narrow := query.NarrowBySkills && h.features.IsEnabled(config.FeatureMatchNarrowBySkills, query.UserID)
	key := matching.RankingKey{
		UserID:         query.UserID,
		Limit:          query.Limit,
		MinScore:       query.MinScore,
		NarrowBySkills: narrow,
	}

	useCache := h.cache != nil && h.features.IsEnabled(config.FeatureMatchCache, query.UserID)
	if useCache {
		if ranking := h.cachedRanking(ctx, key, log); ranking != nil {
			return toFindMatchesResult(ranking, true), nil
		}
	}

	// 1. Опорный профиль
	reference, err := resilience.Do(ctx, h.guard, "GetByID", func(ctx context.Context) (*profile.UserProfile, error) {
		return h.profiles.GetByID(ctx, query.UserID)
	})
	if err != nil {
		return nil, err
	}

	// 2. Пул кандидатов
	pool, err := h.candidatePool(ctx, reference, narrow)
	if err != nil {
		return nil, err
	}

	// 3. Ранжирование
	start := time.Now()
	ranked := h.scorer.RankMatches(reference, pool)
	results := ranked.FilterByMinScore(query.MinScore).TopN(query.Limit)
	h.observer.ObserveRanking(len(ranked), len(results), time.Since(start))

	ranking := &matching.Ranking{
		UserID:          query.UserID,
		Results:         results,
		TotalCandidates: len(ranked),
		RankedAt:        h.now(),
	}

	if useCache {
		if err := h.cache.Set(ctx, key, ranking); err != nil {
			h.observer.CacheError(CacheMatches)
			log.Warn("failed to cache ranking", logger.Err(err))
		}
	}

	fields := []logger.Field{
		logger.Int("pool", len(ranked)),
		logger.Count(len(results)),
		logger.Bool("narrow", narrow),
	}
	if len(results) > 0 {
		fields = append(fields, logger.Score(results[0].MatchScore))
	}
	log.Debug("matches ranked", fields...)

	return toFindMatchesResult(ranking, false), nil
}

// cachedRanking возвращает кэшированный результат или nil.
// Ошибки кэша не прерывают запрос.
func (h *FindMatchesHandler) cachedRanking(ctx context.Context, key matching.RankingKey, log *logger.Logger) *matching.Ranking {
	ranking, err := h.cache.Get(ctx, key)
	switch {
	case err != nil:
		h.observer.CacheError(CacheMatches)
		log.Warn("match cache unavailable", logger.Err(err))
		return nil
	case ranking == nil:
		h.observer.CacheMiss(CacheMatches)
		return nil
	default:
		h.observer.CacheHit(CacheMatches)
		return ranking
	}
}

// candidatePool загружает кандидатов. Пул сортируется по ID, чтобы порядок
// при равных оценках не зависел от хранилища.
func (h *FindMatchesHandler) candidatePool(ctx context.Context, reference *profile.UserProfile, narrow bool) ([]*profile.UserProfile, error) {
	var (
		pool []*profile.UserProfile
		err  error
	)
	if narrow && len(reference.Skills) > 0 {
		pool, err = resilience.Do(ctx, h.guard, "FindBySkills", func(ctx context.Context) ([]*profile.UserProfile, error) {
			return h.profiles.FindBySkills(ctx, reference.Skills)
		})
	} else {
		pool, err = resilience.Do(ctx, h.guard, "GetAll", func(ctx context.Context) ([]*profile.UserProfile, error) {
			return h.profiles.GetAll(ctx)
		})
	}
	if err != nil {
		return nil, err
	}

	sort.SliceStable(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })
	return pool, nil
}

func toFindMatchesResult(ranking *matching.Ranking, fromCache bool) *FindMatchesResult {
	return &FindMatchesResult{
		UserID:          ranking.UserID,
		Matches:         ToMatchDTOs(ranking.Results),
		TotalCandidates: ranking.TotalCandidates,
		RankedAt:        ranking.RankedAt,
		FromCache:       fromCache,
	}
}
