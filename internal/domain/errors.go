// internal/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// Таксономия ошибок. Хранилища и обработчики оборачивают эти значения через %w,
// а транспортный слой сопоставляет их с HTTP/gRPC кодами через errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ValidationError описывает нарушенное ограничение конкретного поля.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is позволяет проверять любую ValidationError через errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError создает ошибку валидации для поля.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
