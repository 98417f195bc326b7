// Package retry repeats store calls with exponential backoff and jitter.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// Config holds retry configuration.
type Config struct {
	// MaxAttempts counts the first call too. Default: 3
	MaxAttempts int

	// InitialDelay is the wait before the second attempt. Default: 100ms
	InitialDelay time.Duration

	// MaxDelay caps the backoff. Default: 5s
	MaxDelay time.Duration

	// Multiplier grows the delay after each attempt. Default: 2.0
	Multiplier float64

	// JitterFactor spreads delays by +/- this fraction. Default: 0.1
	JitterFactor float64

	// RetryIf decides whether an error is worth another attempt.
	// Nil retries everything except context cancellation.
	RetryIf func(error) bool

	// OnRetry is called before sleeping.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Option configures a Retrier.
type Option func(*Config)

// WithMaxAttempts sets the attempt limit.
func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

// WithBackoff sets the initial and maximum delay.
func WithBackoff(initial, maxDelay time.Duration) Option {
	return func(c *Config) {
		if initial > 0 {
			c.InitialDelay = initial
		}
		if maxDelay >= initial && maxDelay > 0 {
			c.MaxDelay = maxDelay
		}
	}
}

// WithJitter sets the jitter factor (0.0 to 1.0).
func WithJitter(j float64) Option {
	return func(c *Config) {
		if j >= 0 && j <= 1.0 {
			c.JitterFactor = j
		}
	}
}

// WithRetryIf sets the retry predicate.
func WithRetryIf(fn func(error) bool) Option {
	return func(c *Config) { c.RetryIf = fn }
}

// WithOnRetry sets the callback run before each retry.
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(c *Config) { c.OnRetry = fn }
}

// Retrier runs operations under a Config.
type Retrier struct {
	config Config
}

// New creates a Retrier.
func New(opts ...Option) *Retrier {
	config := Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Retrier{config: config}
}

// DatabaseRetrier gives up fast: a stuck database is the circuit breaker's job.
func DatabaseRetrier(opts ...Option) *Retrier {
	return New(append([]Option{
		WithMaxAttempts(3),
		WithBackoff(50*time.Millisecond, time.Second),
		WithJitter(0.05),
	}, opts...)...)
}

// MaxAttempts returns the configured attempt limit.
func (r *Retrier) MaxAttempts() int {
	return r.config.MaxAttempts
}

// Do runs op until it succeeds, returns a non-retryable error, runs out of
// attempts or ctx ends. The last error of op is returned.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt >= r.config.MaxAttempts || !r.shouldRetry(lastErr) {
			return lastErr
		}

		delay := r.backoff(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, lastErr, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
}

func (r *Retrier) shouldRetry(err error) bool {
	if r.config.RetryIf != nil {
		return r.config.RetryIf(err)
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// backoff returns InitialDelay * Multiplier^(attempt-1), capped and jittered.
func (r *Retrier) backoff(attempt int) time.Duration {
	d := float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(attempt-1))
	if d > float64(r.config.MaxDelay) {
		d = float64(r.config.MaxDelay)
	}
	if r.config.JitterFactor > 0 {
		d += d * r.config.JitterFactor * (rand.Float64()*2 - 1)
	}
	return time.Duration(math.Max(d, 0))
}

// DoValue runs an operation that returns data through r.
func DoValue[T any](ctx context.Context, r *Retrier, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	return result, err
}
