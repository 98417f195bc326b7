// Package resilience оборачивает обращения к хранилищам в повторные попытки
// и circuit breaker.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/quickksynkk/synk-hub/internal/domain/shared"
	"github.com/quickksynkk/synk-hub/pkg/circuitbreaker"
	"github.com/quickksynkk/synk-hub/pkg/logger"
	"github.com/quickksynkk/synk-hub/pkg/retry"
)

// ErrorObserver получает ошибки хранилища, например для метрик.
type ErrorObserver interface {
	StoreError(store, operation string)
}

// Guard защищает вызовы одного хранилища.
// Повторяются только ошибки вида shared.ErrServiceUnavailable,
// отказы breaker'а не повторяются.
type Guard struct {
	store    string
	retrier  *retry.Retrier
	breaker  *circuitbreaker.CircuitBreaker
	observer ErrorObserver
	log      *logger.Logger
}

// NewGuard создаёт Guard. retrier и breaker могут быть nil.
func NewGuard(
	store string,
	retrier *retry.Retrier,
	breaker *circuitbreaker.CircuitBreaker,
	observer ErrorObserver,
	log *logger.Logger,
) *Guard {
	if log == nil {
		log = logger.Nop()
	}
	return &Guard{
		store:    store,
		retrier:  retrier,
		breaker:  breaker,
		observer: observer,
		log:      log.With(logger.Component("guard"), logger.String("store", store)),
	}
}

// NewDatabaseGuard - Guard с пресетами для Postgres.
func NewDatabaseGuard(
	onStateChange func(name string, from, to circuitbreaker.State),
	observer ErrorObserver,
	log *logger.Logger,
) *Guard {
	breaker := circuitbreaker.DatabaseBreaker(onStateChange, IsFailure)
	g := NewGuard("postgres", nil, breaker, observer, log)
	g.retrier = retry.DatabaseRetrier(
		retry.WithRetryIf(ShouldRetry),
		retry.WithOnRetry(func(attempt int, err error, _ time.Duration) {
			g.log.Warn("retrying store call", logger.Int("attempt", attempt), logger.Err(err))
		}),
	)
	return g
}

// ShouldRetry решает, стоит ли повторять вызов.
func ShouldRetry(err error) bool {
	if circuitbreaker.IsRejected(err) {
		return false
	}
	return errors.Is(err, shared.ErrServiceUnavailable)
}

// IsFailure решает, считается ли ошибка сбоем для breaker'а.
// "Не найдено" и ошибки валидации - штатные ответы хранилища.
func IsFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return !shared.IsNotFound(err) && !shared.IsValidation(err)
}

// Do выполняет fn под защитой Guard.
func Do[T any](ctx context.Context, g *Guard, op string, fn func(context.Context) (T, error)) (T, error) {
	if g == nil {
		return fn(ctx)
	}

	call := fn
	if g.breaker != nil {
		call = func(ctx context.Context) (T, error) {
			return circuitbreaker.Execute(ctx, g.breaker, fn)
		}
	}

	var (
		v   T
		err error
	)
	if g.retrier != nil {
		v, err = retry.DoValue(ctx, g.retrier, call)
	} else {
		v, err = call(ctx)
	}

	if err == nil {
		return v, nil
	}
	if circuitbreaker.IsRejected(err) {
		err = shared.WrapError(g.store, op, shared.ErrServiceUnavailable, "circuit open", err)
	}
	if IsFailure(err) && g.observer != nil {
		g.observer.StoreError(g.store, op)
	}
	return v, err
}

// Exec - вариант Do без возвращаемого значения.
func Exec(ctx context.Context, g *Guard, op string, fn func(context.Context) error) error {
	_, err := Do(ctx, g, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
