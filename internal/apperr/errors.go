// Package apperr defines the sentinel errors shared by the persistence
// gateway, the auth pipeline and the HTTP layer. Callers wrap them with
// fmt.Errorf("...: %w", err) and match with errors.Is.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation marks malformed or missing request fields.
	ErrValidation = errors.New("validation error")
	// ErrAuthentication covers bad credentials, inactive accounts and invalid
	// tokens. The message never says which.
	ErrAuthentication = errors.New("invalid credentials")
	// ErrConflict is returned when a unique field is already taken.
	ErrConflict = errors.New("conflict")
	// ErrNotFound is an authoritative "no such record" from a backend.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable means no backend could execute the operation.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrConfiguration is a fatal operator-side misconfiguration.
	ErrConfiguration = errors.New("configuration error")
	// ErrForbidden is returned when the caller's role may not perform an action.
	ErrForbidden = errors.New("forbidden")
)

// Status maps an error to the HTTP status the API answers with.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// FieldError is a validation failure on a named request field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error { return ErrValidation }

// ConflictError names the unique field that is already in use.
type ConflictError struct {
	Collection string
	Field      string
}

func (e *ConflictError) Error() string {
	return e.Collection + ": " + e.Field + " already exists"
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
