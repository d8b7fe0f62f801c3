package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrFetchFailed matches every *FetchError through errors.Is.
var ErrFetchFailed = stderrors.New("fetch failed")

// FetchError represents a failed page fetch from the remote user source.
// Network failures, bad status codes and undecodable bodies all map to it.
type FetchError struct {
	Page   int
	Reason string
	Err    error
}

// NewFetchError creates a new fetch error
func NewFetchError(page int, reason string, err error) *FetchError {
	return &FetchError{
		Page:   page,
		Reason: reason,
		Err:    err,
	}
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch page %d failed: %s: %v", e.Page, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetch page %d failed: %s", e.Page, e.Reason)
}

// Unwrap returns the wrapped error
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports FetchError as ErrFetchFailed so callers need not know the page.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}

// HTTPStatus returns the HTTP status for this error
func (e *FetchError) HTTPStatus() int {
	return http.StatusBadGateway
}

// ValidationError represents a validation failure with field-level details
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// HTTPStatus returns the HTTP status for this error
func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// HTTPStatus returns the HTTP status for this error
func (e *NotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

// HTTPStatuser interface for errors that can provide an HTTP status
type HTTPStatuser interface {
	HTTPStatus() int
}

// StatusOf returns the HTTP status carried by err, or 500 when it has none.
func StatusOf(err error) int {
	var s HTTPStatuser
	if stderrors.As(err, &s) {
		return s.HTTPStatus()
	}
	return http.StatusInternalServerError
}
