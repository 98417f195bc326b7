package apptest

import (
	"sync"
	"time"

	"github.com/quickksynkk/synk-hub/internal/domain/recommendation"
)

// Observer records handler events.
type Observer struct {
	mu sync.Mutex

	Rankings      int
	Generated     int
	FallbackUsed  int
	Served        []string
	CacheResults  map[string][]string
	LastPoolSize  int
	LastReturned  int
	StoreFailures []string
}

// NewObserver creates an empty Observer.
func NewObserver() *Observer {
	return &Observer{CacheResults: make(map[string][]string)}
}

func (o *Observer) ObserveRanking(poolSize, returned int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Rankings++
	o.LastPoolSize = poolSize
	o.LastReturned = returned
}

func (o *Observer) ObserveRecommendations(items []recommendation.Recommendation, usedFallback bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Generated += len(items)
	if usedFallback {
		o.FallbackUsed++
	}
}

func (o *Observer) RecommendationServed(source string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Served = append(o.Served, source)
}

func (o *Observer) CacheHit(cache string)   { o.cache(cache, "hit") }
func (o *Observer) CacheMiss(cache string)  { o.cache(cache, "miss") }
func (o *Observer) CacheError(cache string) { o.cache(cache, "error") }

func (o *Observer) cache(cache, result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.CacheResults[cache] = append(o.CacheResults[cache], result)
}

func (o *Observer) StoreError(store, operation string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.StoreFailures = append(o.StoreFailures, store+"."+operation)
}
