package models

import (
	"errors"
	"fmt"
)

// Domain specific errors for authentication, validation and generation.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrValidation      = errors.New("validation failed")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrGeneration      = errors.New("generation failed")
)

// RateLimitError is returned when a purpose has exhausted its quota.
// RetryAfter is the number of whole seconds until the next slot frees up.
type RateLimitError struct {
	Purpose    string
	RetryAfter int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry in %d seconds", e.Purpose, e.RetryAfter)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// GenerationErrorKind separates malformed provider output from provider failures.
type GenerationErrorKind string

const (
	ParseError    GenerationErrorKind = "parse"
	ProviderError GenerationErrorKind = "provider"
)

// GenerationError wraps a failed generation. Operation names the gateway
// call that failed (itinerary, speech, ...).
type GenerationError struct {
	Operation string
	Kind      GenerationErrorKind
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed (%s): %v", e.Operation, e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}

// NewValidationError wraps ErrValidation with a field level reason.
func NewValidationError(field, reason string) error {
	return fmt.Errorf("%s %s: %w", field, reason, ErrValidation)
}
