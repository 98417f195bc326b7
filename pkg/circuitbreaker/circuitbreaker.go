// Package circuitbreaker wraps sony/gobreaker with the option style used across
// Synk Hub. It protects profile and recommendation stores from cascading
// failures when Postgres or Redis degrade.
package circuitbreaker

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// State represents the current state of the circuit breaker.
type State = gobreaker.State

const (
	StateClosed   = gobreaker.StateClosed
	StateOpen     = gobreaker.StateOpen
	StateHalfOpen = gobreaker.StateHalfOpen
)

// Counts are the request counters of the current generation.
type Counts = gobreaker.Counts

// Common errors.
var (
	// ErrCircuitOpen is returned when the circuit is open and requests are blocked.
	ErrCircuitOpen = gobreaker.ErrOpenState
	// ErrTooManyRequests is returned when too many requests are made in half-open state.
	ErrTooManyRequests = gobreaker.ErrTooManyRequests
)

// IsRejected reports whether err came from the breaker itself rather than the call.
func IsRejected(err error) bool {
	return errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests)
}

// Config holds circuit breaker configuration.
type Config struct {
	// Name identifies this circuit breaker (for logging/metrics).
	Name string

	// FailureThreshold is the number of consecutive failures before opening.
	// Default: 5
	FailureThreshold uint32

	// MaxHalfOpenRequests is both the number of probe requests allowed in
	// half-open state and the successes needed to close again.
	// Default: 1
	MaxHalfOpenRequests uint32

	// Interval is the cyclic period for clearing counts in closed state.
	// Zero keeps counts until the state changes.
	Interval time.Duration

	// Timeout is how long to stay open before probing.
	// Default: 30s
	Timeout time.Duration

	// OnStateChange is called when the circuit state changes.
	OnStateChange func(name string, from, to State)

	// IsFailure determines if an error should be counted as a failure.
	// If nil, all non-nil errors except context cancellation are failures.
	IsFailure func(error) bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(name string) Config {
	return Config{
		Name:                name,
		FailureThreshold:    5,
		MaxHalfOpenRequests: 1,
		Timeout:             30 * time.Second,
	}
}

// Option is a functional option for configuring the circuit breaker.
type Option func(*Config)

// WithFailureThreshold sets the failure threshold.
func WithFailureThreshold(n uint32) Option {
	return func(c *Config) {
		if n > 0 {
			c.FailureThreshold = n
		}
	}
}

// WithMaxHalfOpenRequests sets the max requests allowed in half-open state.
func WithMaxHalfOpenRequests(n uint32) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxHalfOpenRequests = n
		}
	}
}

// WithTimeout sets the open-state timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.Timeout = d
		}
	}
}

// WithOnStateChange sets the state change callback.
func WithOnStateChange(fn func(name string, from, to State)) Option {
	return func(c *Config) {
		c.OnStateChange = fn
	}
}

// WithIsFailure sets a custom failure classifier.
func WithIsFailure(fn func(error) bool) Option {
	return func(c *Config) {
		c.IsFailure = fn
	}
}

func defaultIsFailure(err error) bool {
	return !errors.Is(err, context.Canceled)
}

// CircuitBreaker implements the circuit breaker pattern on top of gobreaker.
type CircuitBreaker struct {
	config Config
	cb     *gobreaker.CircuitBreaker[any]
}

// New creates a new CircuitBreaker with the given name and options.
func New(name string, opts ...Option) *CircuitBreaker {
	config := DefaultConfig(name)
	for _, opt := range opts {
		opt(&config)
	}

	isFailure := config.IsFailure
	if isFailure == nil {
		isFailure = defaultIsFailure
	}
	threshold := config.FailureThreshold

	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxHalfOpenRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isFailure(err)
		},
		OnStateChange: config.OnStateChange,
	}

	return &CircuitBreaker{
		config: config,
		cb:     gobreaker.NewCircuitBreaker[any](settings),
	}
}

// Execute runs fn if the circuit allows it.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	_, err := cb.cb.Execute(func() (any, error) {
		return nil, fn(ctx)
	})
	return err
}

// Execute runs a value-returning call through the breaker.
func Execute[T any](ctx context.Context, cb *CircuitBreaker, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := cb.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		if typed, ok := v.(T); ok {
			return typed, err
		}
		return zero, err
	}
	typed, _ := v.(T)
	return typed, nil
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() State {
	return cb.cb.State()
}

// Counts returns the current counts.
func (cb *CircuitBreaker) Counts() Counts {
	return cb.cb.Counts()
}

// Name returns the name of the circuit breaker.
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

// IsOpen returns true if the circuit is open.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.cb.State() == StateOpen
}

// IsClosed returns true if the circuit is closed.
func (cb *CircuitBreaker) IsClosed() bool {
	return cb.cb.State() == StateClosed
}

// DatabaseBreaker returns the breaker guarding Postgres. It opens after three
// consecutive failures and probes again after ten seconds.
func DatabaseBreaker(onStateChange func(name string, from, to State), isFailure func(error) bool) *CircuitBreaker {
	return New(
		"database",
		WithFailureThreshold(3),
		WithTimeout(10*time.Second),
		WithMaxHalfOpenRequests(1),
		WithOnStateChange(onStateChange),
		WithIsFailure(isFailure),
	)
}
