package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common application errors
var (
	// ErrDuplicateKey is wrapped by repositories when the store rejects a write
	// because of a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key")

	ErrUserNotFound   = NewNotFoundError("user")
	ErrDuplicateEmail = NewAlreadyExistsError("email", "email must be unique")
)

// ValidationError represents one or more field-level validation failures.
// Messages keep the order in which the fields are declared.
type ValidationError struct {
	Messages []string
}

// NewValidationError creates a new validation error
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Messages, ", "))
}

// StatusCode returns the HTTP status for this error
func (e *ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// StatusCode returns the HTTP status for this error
func (e *NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

// AlreadyExistsError represents a uniqueness rule violation on a single field
type AlreadyExistsError struct {
	Field   string
	Message string
}

// NewAlreadyExistsError creates a new already exists error
func NewAlreadyExistsError(field, message string) *AlreadyExistsError {
	return &AlreadyExistsError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface
func (e *AlreadyExistsError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s already exists", e.Field)
}

// StatusCode returns the HTTP status for this error
func (e *AlreadyExistsError) StatusCode() int {
	return http.StatusBadRequest
}

// InternalError represents an internal server error with context
type InternalError struct {
	Message string
	Err     error
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *InternalError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status for this error
func (e *InternalError) StatusCode() int {
	return http.StatusInternalServerError
}

// StatusCoder is implemented by errors that know their HTTP status
type StatusCoder interface {
	StatusCode() int
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsAlreadyExists reports whether err is, or wraps, an AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	var ae *AlreadyExistsError
	return errors.As(err, &ae)
}

// IsDuplicateKey reports whether err wraps ErrDuplicateKey.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}
