package handlers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH CHECK TYPES
// ══════════════════════════════════════════════════════════════════════════════

// HealthChecker reports the health of the service and its dependencies.
type HealthChecker interface {
	Check(ctx context.Context) HealthStatus
}

// HealthCheckFunc performs a single check. It returns an error if the check fails.
type HealthCheckFunc func(ctx context.Context) error

// Pinger is anything with a connectivity probe: the Postgres pool or the
// Redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck wraps a Pinger as a HealthCheckFunc.
func PingCheck(p Pinger) HealthCheckFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	// Healthy is false if any check failed.
	Healthy bool `json:"healthy"`

	// Ready is false only if a critical check failed. A broken cache leaves
	// the service degraded but ready.
	Ready bool `json:"ready"`

	Message   string                 `json:"message,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
}

// CheckResult is the outcome of one named check.
type CheckResult struct {
	Healthy  bool   `json:"healthy"`
	Critical bool   `json:"critical"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPOSITE HEALTH CHECKER
// ══════════════════════════════════════════════════════════════════════════════

type namedCheck struct {
	fn       HealthCheckFunc
	critical bool
}

// CompositeHealthChecker runs named checks in parallel.
type CompositeHealthChecker struct {
	mu        sync.RWMutex
	checks    map[string]namedCheck
	startTime time.Time
	version   string
	timeout   time.Duration
}

// NewCompositeHealthChecker creates a checker with a 5s per-check timeout.
func NewCompositeHealthChecker(version string) *CompositeHealthChecker {
	return &CompositeHealthChecker{
		checks:    make(map[string]namedCheck),
		startTime: time.Now(),
		version:   version,
		timeout:   5 * time.Second,
	}
}

// SetTimeout sets the timeout for individual checks.
func (c *CompositeHealthChecker) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// AddCheck registers a check whose failure makes the service not ready.
func (c *CompositeHealthChecker) AddCheck(name string, check HealthCheckFunc) {
	c.add(name, check, true)
}

// AddOptionalCheck registers a check whose failure only degrades the service.
func (c *CompositeHealthChecker) AddOptionalCheck(name string, check HealthCheckFunc) {
	c.add(name, check, false)
}

func (c *CompositeHealthChecker) add(name string, check HealthCheckFunc, critical bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = namedCheck{fn: check, critical: critical}
}

// Check runs all checks and aggregates the results.
func (c *CompositeHealthChecker) Check(ctx context.Context) HealthStatus {
	c.mu.RLock()
	checks := make(map[string]namedCheck, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	status := HealthStatus{
		Healthy:   true,
		Ready:     true,
		Checks:    make(map[string]CheckResult, len(checks)),
		Uptime:    time.Since(c.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Version:   c.version,
	}

	if len(checks) == 0 {
		status.Message = "No health checks registered"
		return status
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check namedCheck) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			start := time.Now()
			err := check.fn(checkCtx)

			result := CheckResult{
				Healthy:  err == nil,
				Critical: check.critical,
				Message:  "OK",
				Duration: time.Since(start).Round(time.Millisecond).String(),
			}
			if err != nil {
				result.Message = err.Error()
			}

			mu.Lock()
			status.Checks[name] = result
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()

	var failed []string
	for name, r := range status.Checks {
		if r.Healthy {
			continue
		}
		status.Healthy = false
		if r.Critical {
			status.Ready = false
		}
		failed = append(failed, name)
	}
	sort.Strings(failed)

	switch {
	case status.Healthy:
		status.Message = "All checks passed"
	case status.Ready:
		status.Message = "Degraded: " + strings.Join(failed, ", ")
	default:
		status.Message = "Some checks failed: " + strings.Join(failed, ", ")
	}
	return status
}
