package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRecommendation signals a recommendation that failed validation.
	ErrInvalidRecommendation = errors.New("invalid recommendation")
	// ErrInvalidCategory signals an unknown place type.
	ErrInvalidCategory = errors.New("invalid place type")
	// ErrInvalidQuery signals malformed query parameters.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnavailable signals that a downstream dependency is not reachable.
	ErrUnavailable = errors.New("unavailable")
)

// FieldError wraps a validation sentinel with the offending field.
type FieldError struct {
	Field  string
	Reason string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Err.Error(), e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return e.Err }

// NewFieldError creates a field error wrapping sentinel.
func NewFieldError(sentinel error, field, reason string) error {
	return &FieldError{Field: field, Reason: reason, Err: sentinel}
}
