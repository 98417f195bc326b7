package query

import (
	"github.com/quickksynkk/synk-hub/config"
	"github.com/quickksynkk/synk-hub/internal/domain/matching"
	"github.com/quickksynkk/synk-hub/internal/domain/profile"
	"github.com/quickksynkk/synk-hub/internal/domain/recommendation"
	"github.com/quickksynkk/synk-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PREVIEW
// Подбор и рекомендации по профилям из запроса, без обращения к хранилищам.
// ══════════════════════════════════════════════════════════════════════════════

// PreviewMatchesQuery - опорный профиль и кандидаты.
type PreviewMatchesQuery struct {
	Reference  *profile.UserProfile
	Candidates []*profile.UserProfile
	Limit      int
	MinScore   float64
}

// PreviewHandler считает подбор и рекомендации для переданных профилей.
type PreviewHandler struct {
	scorer    *matching.Scorer
	generator *recommendation.Generator
	features  FeatureChecker
	config    MatchesConfig
}

// NewPreviewHandler создаёт handler.
func NewPreviewHandler(features FeatureChecker, cfg MatchesConfig) *PreviewHandler {
	if features == nil {
		features = allFeatures{}
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultMatchLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = MaxMatchLimit
	}
	return &PreviewHandler{
		scorer:    matching.NewScorer(),
		generator: recommendation.NewGenerator(),
		features:  features,
		config:    cfg,
	}
}

// PreviewMatches ранжирует кандидатов относительно опорного профиля.
func (h *PreviewHandler) PreviewMatches(query PreviewMatchesQuery) ([]MatchDTO, error) {
	if query.Reference == nil || query.Reference.ID == "" {
		return nil, shared.WrapError("query", "PreviewMatches", shared.ErrValidation, "reference profile is required", shared.ErrInvalidUserID)
	}
	if query.MinScore < 0 || query.MinScore > 1 {
		return nil, shared.WrapError("query", "PreviewMatches", shared.ErrValidation, "min_score must be between 0 and 1", shared.ErrInvalidMatchQuery)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = h.config.DefaultLimit
	}
	if limit > h.config.MaxLimit {
		limit = h.config.MaxLimit
	}

	ranked := h.scorer.RankMatches(query.Reference, query.Candidates)
	return ToMatchDTOs(ranked.FilterByMinScore(query.MinScore).TopN(limit)), nil
}

// PreviewRecommendations генерирует рекомендации для профиля.
// Второе значение true, если использован запасной набор.
func (h *PreviewHandler) PreviewRecommendations(p *profile.UserProfile) ([]RecommendationDTO, bool) {
	if p == nil {
		return []RecommendationDTO{}, false
	}
	if h.features.IsEnabled(config.FeatureRecommendationFallback, p.ID) {
		items, used := recommendation.GenerateWithFallback(h.generator, p)
		return ToRecommendationDTOs(items), used
	}
	return ToRecommendationDTOs(h.generator.ForProfile(p)), false
}
