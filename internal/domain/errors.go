package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals invalid user input rejected before any provider call.
	ErrValidation = errors.New("validation failed")
	// ErrProvider signals a failed search provider request.
	ErrProvider = errors.New("search provider error")
	// ErrStream signals an error event received on a generative answer stream.
	ErrStream = errors.New("answer stream error")
	// ErrNoCursor signals a load-more call without a stored pagination cursor.
	ErrNoCursor = errors.New("no pagination cursor")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
)

// ValidationError wraps ErrValidation with the field the input failed on.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidation creates a validation error attributed to a field.
func NewValidation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
