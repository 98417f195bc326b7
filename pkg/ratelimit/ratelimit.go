// Package ratelimit keeps one golang.org/x/time/rate limiter per client key.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config configures a Limiter.
type Config struct {
	// RequestsPerSecond is the sustained rate per key.
	RequestsPerSecond float64

	// Burst is the bucket size. Default: 1.
	Burst int

	// IdleTTL drops keys not seen for this long. Default: 10m.
	IdleTTL time.Duration

	// SweepEvery controls how often idle keys are dropped. Default: 1m.
	SweepEvery time.Duration
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter rate limits by key (API key digest or client IP).
type Limiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	entries map[string]*entry

	idleTTL    time.Duration
	sweepEvery time.Duration
	lastSweep  time.Time
	now        func() time.Time
}

// New creates a Limiter. A non-positive rate returns nil, which allows everything.
func New(cfg Config) *Limiter {
	if cfg.RequestsPerSecond <= 0 {
		return nil
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	if cfg.SweepEvery <= 0 {
		cfg.SweepEvery = time.Minute
	}
	return &Limiter{
		limit:      rate.Limit(cfg.RequestsPerSecond),
		burst:      cfg.Burst,
		entries:    make(map[string]*entry),
		idleTTL:    cfg.IdleTTL,
		sweepEvery: cfg.SweepEvery,
		lastSweep:  time.Now(),
		now:        time.Now,
	}
}

// Allow takes a token for key. When refused, it returns how long until a
// token is available.
func (l *Limiter) Allow(key string) (time.Duration, bool) {
	if l == nil {
		return 0, true
	}

	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.sweepEvery {
		l.sweep(now)
	}
	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	lim := e.limiter
	l.mu.Unlock()

	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return 0, false
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return d, false
	}
	return 0, true
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// sweep must be called with l.mu held.
func (l *Limiter) sweep(now time.Time) {
	for key, e := range l.entries {
		if now.Sub(e.lastSeen) > l.idleTTL {
			delete(l.entries, key)
		}
	}
	l.lastSweep = now
}
