package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickksynkk/synk-hub/internal/domain/shared"
	"github.com/quickksynkk/synk-hub/pkg/circuitbreaker"
	"github.com/quickksynkk/synk-hub/pkg/retry"
)

type storeErrors struct{ ops []string }

func (s *storeErrors) StoreError(_, op string) { s.ops = append(s.ops, op) }

func fastRetrier() *retry.Retrier {
	return retry.New(
		retry.WithMaxAttempts(3),
		retry.WithBackoff(time.Millisecond, time.Millisecond),
		retry.WithRetryIf(ShouldRetry),
	)
}

func TestDo_RetriesUnavailable(t *testing.T) {
	obs := &storeErrors{}
	g := NewGuard("postgres", fastRetrier(), nil, obs, nil)

	calls := 0
	v, err := Do(context.Background(), g, "GetAll", func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, shared.WrapError("profile", "GetAll", shared.ErrServiceUnavailable, "conn reset", nil)
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 3, calls)
	assert.Empty(t, obs.ops)
}

func TestDo_NotFoundIsNotRetriedOrCounted(t *testing.T) {
	obs := &storeErrors{}
	g := NewGuard("postgres", fastRetrier(), nil, obs, nil)

	calls := 0
	_, err := Do(context.Background(), g, "GetByID", func(context.Context) (int, error) {
		calls++
		return 0, shared.ErrProfileNotFound
	})

	assert.ErrorIs(t, err, shared.ErrProfileNotFound)
	assert.Equal(t, 1, calls)
	assert.Empty(t, obs.ops)
}

func TestDo_OpenBreakerMapsToUnavailable(t *testing.T) {
	obs := &storeErrors{}
	breaker := circuitbreaker.New("test",
		circuitbreaker.WithFailureThreshold(1),
		circuitbreaker.WithTimeout(time.Minute),
		circuitbreaker.WithIsFailure(IsFailure),
	)
	g := NewGuard("postgres", nil, breaker, obs, nil)

	boom := errors.New("boom")
	err := Exec(context.Background(), g, "SaveBatch", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	called := false
	err = Exec(context.Background(), g, "SaveBatch", func(context.Context) error {
		called = true
		return nil
	})
	assert.False(t, called)
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	assert.True(t, circuitbreaker.IsRejected(err))
	assert.Equal(t, []string{"SaveBatch", "SaveBatch"}, obs.ops)
}

func TestDo_NilGuard(t *testing.T) {
	v, err := Do(context.Background(), nil, "op", func(context.Context) (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestIsFailure(t *testing.T) {
	assert.False(t, IsFailure(nil))
	assert.False(t, IsFailure(context.Canceled))
	assert.False(t, IsFailure(shared.ErrRecommendationsNotFound))
	assert.False(t, IsFailure(shared.ErrInvalidSlot))
	assert.True(t, IsFailure(shared.ErrProfileStoreFailure))
}
