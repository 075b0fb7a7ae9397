package model

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrQuotaExceeded    = errors.New("daily conversion limit exceeded")
	ErrDuplicatePending = errors.New("a pending expansion request already exists for this address")
	ErrAlreadyExpanded  = errors.New("this address already has an active expansion")
	ErrInvalidState     = errors.New("invalid state transition")
	ErrNotFound         = errors.New("not found")
	ErrRendererFailure  = errors.New("pdf/a conversion failed")
	ErrValidation       = errors.New("invalid input")
)

// QuotaExceededError is returned when an identity doesn't have enough conversions remaining for an operation.
type QuotaExceededError struct {
	Requested int
	Remaining int
	Limit     int
	Consumed  int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf(
		"insufficient conversions remaining: requested %d, %d of %d remaining today",
		e.Requested, e.Remaining, e.Limit,
	)
}

// Is allows QuotaExceededError values to match ErrQuotaExceeded.
func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

// ValidationError describes a single invalid input field.
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

// Is allows ValidationError values to match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a validation error for a field.
func NewValidationError(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
