package fingerprint

import (
	"errors"
	"fmt"
)

// Common errors returned by store operations.
var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned when attempting to use a closed store.
	ErrClosed = errors.New("store is closed")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)

// NotFoundError wraps ErrNotFound with additional context.
type NotFoundError struct {
	ResourceType string // "hash", "file", "version"
	ResourceID   string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.ResourceType, e.ResourceID)
}

// Unwrap returns the underlying error.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// Is checks if the error matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InvalidInputError wraps ErrInvalidInput with details.
type InvalidInputError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *InvalidInputError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid input for field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// Unwrap returns the underlying error.
func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

// Is checks if the error matches ErrInvalidInput.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(resourceType, resourceID string) error {
	return &NotFoundError{ResourceType: resourceType, ResourceID: resourceID}
}

// NewInvalidInputError creates an InvalidInputError.
func NewInvalidInputError(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}
