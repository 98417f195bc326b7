package query

import (
	"time"

	"github.com/quickksynkk/synk-hub/internal/domain/recommendation"
)

// Названия кэшей и источников ответа для метрик.
const (
	CacheMatches         = "matches"
	CacheRecommendations = "recommendations"

	SourceCache     = "cache"
	SourceStored    = "stored"
	SourceGenerated = "generated"
)

// Observer получает события запросов (реализуется метриками Prometheus).
type Observer interface {
	ObserveRanking(poolSize, returned int, d time.Duration)
	ObserveRecommendations(items []recommendation.Recommendation, usedFallback bool)
	RecommendationServed(source string)
	CacheHit(cache string)
	CacheMiss(cache string)
	CacheError(cache string)
}

// FeatureChecker проверяет feature flags для пользователя.
type FeatureChecker interface {
	IsEnabled(feature, userID string) bool
}

type nopObserver struct{}

func (nopObserver) ObserveRanking(int, int, time.Duration)                       {}
func (nopObserver) ObserveRecommendations([]recommendation.Recommendation, bool) {}
func (nopObserver) RecommendationServed(string)                                  {}
func (nopObserver) CacheHit(string)                                              {}
func (nopObserver) CacheMiss(string)                                             {}
func (nopObserver) CacheError(string)                                            {}

// allFeatures включает все флаги, когда FeatureChecker не передан.
type allFeatures struct{}

func (allFeatures) IsEnabled(string, string) bool { return true }
