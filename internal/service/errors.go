package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound - запрошенная запись не существует
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists - запись с таким идентификатором уже есть
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidTransition - переход статуса запрещен политикой переходов
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNotConfigured - интеграция отключена в конфигурации
	ErrNotConfigured = errors.New("integration not configured")
	// ErrConflict - запись изменилась между чтением и условной записью
	ErrConflict = errors.New("concurrent modification")
)

// ValidationError - ошибка входных данных, сообщение отдается клиенту как есть
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation сообщает, является ли err (или его причина) ошибкой валидации
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
