// Package apperror defines the domain error taxonomy shared by every layer.
//
// Repositories and services return *AppError values that wrap one of the
// sentinel errors below. The HTTP layer never inspects messages: it maps the
// sentinel (via errors.Is) to a status code or a form re-render.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("Validation Error")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthenticated returns an AppError for a request that needs a logged-in
// user, or for credentials that did not check out. The login form shows the
// message; gated routes redirect to the login page instead.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// FieldErrors carries every invalid field of a submitted form at once.
// It unwraps to ErrValidation so handlers can treat it like any other
// validation failure, and exposes the per-field messages for re-rendering.
type FieldErrors struct {
	Fields map[string]string
}

func (e *FieldErrors) Error() string {
	if len(e.Fields) == 1 {
		for field, msg := range e.Fields {
			return fmt.Sprintf("%s: %s", field, msg)
		}
	}
	return fmt.Sprintf("%d fields failed validation", len(e.Fields))
}

func (e *FieldErrors) Unwrap() error {
	return ErrValidation
}

// Invalid wraps a field→message map. A nil or empty map is not an error.
func Invalid(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &FieldErrors{Fields: fields}
}
