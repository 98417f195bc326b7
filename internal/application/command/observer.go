package command

import (
	"github.com/quickksynkk/synk-hub/internal/domain/recommendation"
)

// Observer получает события команд (реализуется метриками Prometheus).
type Observer interface {
	ObserveRecommendations(items []recommendation.Recommendation, usedFallback bool)
	CacheError(cache string)
}

// FeatureChecker проверяет feature flags для пользователя.
type FeatureChecker interface {
	IsEnabled(feature, userID string) bool
}

type nopObserver struct{}

func (nopObserver) ObserveRecommendations([]recommendation.Recommendation, bool) {}
func (nopObserver) CacheError(string)                                            {}

type allFeatures struct{}

func (allFeatures) IsEnabled(string, string) bool { return true }

const (
	cacheMatches         = "matches"
	cacheRecommendations = "recommendations"
)
