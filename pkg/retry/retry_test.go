package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func fast(opts ...Option) *Retrier {
	return New(append([]Option{WithBackoff(time.Millisecond, 2*time.Millisecond)}, opts...)...)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := fast(WithMaxAttempts(3)).Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_GivesUp(t *testing.T) {
	calls := 0
	var retried []int
	err := fast(
		WithMaxAttempts(3),
		WithOnRetry(func(attempt int, _ error, _ time.Duration) { retried = append(retried, attempt) }),
	).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errFlaky
	})

	assert.Equal(t, errFlaky, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_RetryIf(t *testing.T) {
	errFatal := errors.New("fatal")
	calls := 0
	err := fast(
		WithMaxAttempts(5),
		WithRetryIf(func(err error) bool { return errors.Is(err, errFlaky) }),
	).Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errFlaky
		}
		return errFatal
	})

	assert.Equal(t, errFatal, err)
	assert.Equal(t, 2, calls)
}

func TestDo_ContextErrorsAreNotRetried(t *testing.T) {
	calls := 0
	err := fast(WithMaxAttempts(5)).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return context.DeadlineExceeded
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = fast().Do(ctx, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoff_Capped(t *testing.T) {
	r := New(WithBackoff(10*time.Millisecond, 25*time.Millisecond), WithJitter(0))
	assert.Equal(t, 10*time.Millisecond, r.backoff(1))
	assert.Equal(t, 20*time.Millisecond, r.backoff(2))
	assert.Equal(t, 25*time.Millisecond, r.backoff(3))
}

func TestDoValue(t *testing.T) {
	r := DatabaseRetrier(WithBackoff(time.Millisecond, time.Millisecond))
	calls := 0

	v, err := DoValue(context.Background(), r, func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errFlaky
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 3, r.MaxAttempts())
}
