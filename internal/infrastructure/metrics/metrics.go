// Package metrics exposes Prometheus instrumentation for Synk Hub: ranking,
// recommendation generation, caches, stores, HTTP and background jobs.
//
// All methods are nil-safe so components can run without metrics in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quickksynkk/synk-hub/internal/domain/recommendation"
	"github.com/quickksynkk/synk-hub/pkg/circuitbreaker"
)

const namespace = "synk"

// Cache names used as label values.
const (
	CacheMatches         = "matches"
	CacheRecommendations = "recommendations"
)

// Recommendation sources used as label values.
const (
	SourceCache     = "cache"
	SourceStored    = "stored"
	SourceGenerated = "generated"
)

// Metrics holds every collector of the service.
type Metrics struct {
	registry *prometheus.Registry

	RankingDuration   prometheus.Histogram
	CandidatePoolSize prometheus.Histogram
	MatchesReturned   prometheus.Histogram

	RecommendationsGenerated *prometheus.CounterVec
	RecommendationsServed    *prometheus.CounterVec
	FallbackUsed             prometheus.Counter

	CacheRequests *prometheus.CounterVec
	StoreErrors   *prometheus.CounterVec
	BreakerState  *prometheus.GaugeVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	JobRuns     *prometheus.CounterVec
	JobDuration *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := newWithRegisterer(reg)
	m.registry = reg
	return m
}

func newWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		RankingDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ranking_duration_seconds",
			Help:      "Time spent scoring and sorting a candidate pool",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}),
		CandidatePoolSize: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidate_pool_size",
			Help:      "Number of candidates ranked per match query",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		MatchesReturned: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "matches_returned",
			Help:      "Number of matches returned per query after filtering",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		}),
		RecommendationsGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_generated_total",
			Help:      "Recommendations produced by the generator, by type",
		}, []string{"type"}),
		RecommendationsServed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendation_requests_total",
			Help:      "Recommendation requests by the source that answered them",
		}, []string{"source"}),
		FallbackUsed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendation_fallback_total",
			Help:      "Times the fallback recommendations replaced an empty result",
		}),
		CacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Cache lookups by cache and result (hit, miss, error)",
		}, []string{"cache", "result"}),
		StoreErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Failed store operations",
		}, []string{"store", "operation"}),
		BreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		}, []string{"name"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		JobRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Background job runs by status",
		}, []string{"job", "status"}),
		JobDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Background job duration",
			Buckets:   []float64{.1, .5, 1, 5, 15, 60, 300},
		}, []string{"job"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRanking records one ranking pass.
func (m *Metrics) ObserveRanking(poolSize, returned int, d time.Duration) {
	if m == nil {
		return
	}
	m.RankingDuration.Observe(d.Seconds())
	m.CandidatePoolSize.Observe(float64(poolSize))
	m.MatchesReturned.Observe(float64(returned))
}

// ObserveRecommendations counts freshly generated items by type.
func (m *Metrics) ObserveRecommendations(items []recommendation.Recommendation, usedFallback bool) {
	if m == nil {
		return
	}
	for _, item := range items {
		m.RecommendationsGenerated.WithLabelValues(item.Type.String()).Inc()
	}
	if usedFallback {
		m.FallbackUsed.Inc()
	}
}

// RecommendationServed counts a request answered by source.
func (m *Metrics) RecommendationServed(source string) {
	if m == nil {
		return
	}
	m.RecommendationsServed.WithLabelValues(source).Inc()
}

// CacheHit records a cache hit.
func (m *Metrics) CacheHit(cache string) { m.cacheResult(cache, "hit") }

// CacheMiss records a cache miss.
func (m *Metrics) CacheMiss(cache string) { m.cacheResult(cache, "miss") }

// CacheError records a failed cache call.
func (m *Metrics) CacheError(cache string) { m.cacheResult(cache, "error") }

func (m *Metrics) cacheResult(cache, result string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(cache, result).Inc()
}

// StoreError records a failed store operation.
func (m *Metrics) StoreError(store, operation string) {
	if m == nil {
		return
	}
	m.StoreErrors.WithLabelValues(store, operation).Inc()
}

// BreakerStateChanged is shaped as a circuitbreaker OnStateChange callback.
func (m *Metrics) BreakerStateChanged(name string, _, to circuitbreaker.State) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(breakerStateValue(to))
}

func breakerStateValue(s circuitbreaker.State) float64 {
	switch s {
	case circuitbreaker.StateHalfOpen:
		return 1
	case circuitbreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// ObserveHTTP records one HTTP request. route is the chi route pattern.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveJob records one background job run.
func (m *Metrics) ObserveJob(job string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.JobRuns.WithLabelValues(job, status).Inc()
	m.JobDuration.WithLabelValues(job).Observe(d.Seconds())
}
