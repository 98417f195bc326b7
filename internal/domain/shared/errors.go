// Package shared содержит ошибки, общие для доменных пакетов.
// Внешних зависимостей у пакета нет.
package shared

import (
	"errors"
	"fmt"
)

// ══════════════════════════════════════════════════════════════════════════════
// БАЗОВЫЕ ВИДЫ ОШИБОК
// ══════════════════════════════════════════════════════════════════════════════

// Вид ошибки проверяется через errors.Is, слои выше по нему выбирают ответ.
var (
	ErrNotFound = errors.New("not found")

	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrValueOutOfRange = errors.New("value out of range")

	ErrExpired = errors.New("expired")

	// Хранилища и кэш
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError - ошибка с контекстом: где случилась и какого она вида.
type DomainError struct {
	Domain  string // "profile", "matching", "recommendation", "postgres"...
	Op      string
	Kind    error // базовый вид для errors.Is
	Message string
	Err     error // причина, может быть nil
}

func (e *DomainError) Error() string {
	msg := e.Domain + "." + e.Op + ": " + e.Message
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap отдаёт причину, а без неё - вид.
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is совпадает и по виду, и по причине.
func (e *DomainError) Is(target error) bool {
	return (e.Kind != nil && errors.Is(e.Kind, target)) ||
		(e.Err != nil && errors.Is(e.Err, target))
}

// WrapError оборачивает err доменным контекстом. err может быть nil.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message, Err: err}
}

func newError(domain, op string, kind error, message string) *DomainError {
	return WrapError(domain, op, kind, message, nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// ДОМЕННЫЕ ОШИБКИ
// ══════════════════════════════════════════════════════════════════════════════

var (
	ErrProfileNotFound     = newError("profile", "Find", ErrNotFound, "user profile not found")
	ErrInvalidUserID       = newError("profile", "Validate", ErrInvalidID, "invalid user ID")
	ErrInvalidSlot         = newError("profile", "ValidateSlot", ErrValueOutOfRange, "availability slot out of range")
	ErrProfileStoreFailure = newError("profile", "Store", ErrExternalService, "profile store request failed")

	ErrRecommendationsNotFound = newError("recommendation", "FindBatch", ErrNotFound, "recommendations not found")
	ErrRecommendationsExpired  = newError("recommendation", "FindBatch", ErrExpired, "recommendations expired")

	ErrInvalidMatchQuery = newError("matching", "Validate", ErrInvalidInput, "invalid match query")
)

// IsNotFound - профиль или подборка отсутствует.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation - ошибка во входных данных, повтор не поможет.
func IsValidation(err error) bool {
	for _, kind := range []error{ErrValidation, ErrInvalidID, ErrInvalidInput, ErrValueOutOfRange} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// IsUnavailable - хранилище недоступно или не ответило вовремя.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrTimeout)
}
