// Package apierror provides standardized error response structures for the API
// and the typed error taxonomy the service layer returns. All errors sent to
// clients go through this package to ensure consistency and to prevent leaking
// internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"net/http"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// ── Typed service errors ─────────────────────────────────────────────────────
// The service layer classifies every failure as one of three kinds; handlers
// map them to a status code in exactly one place (StatusFor). Persistence
// details are logged server-side and never reach the client.

type Kind int

const (
	KindValidation Kind = iota // malformed input → 400
	KindNotFound               // target missing or already closed → 404
	KindPersistence            // datastore failure → 500, generic body
)

// Error carries a user-visible message plus the wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Msg: msg} }

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Msg: msg} }

func Persistence(err error) *Error {
	return &Error{Kind: KindPersistence, Msg: "Error interno del servidor", Err: err}
}

// StatusFor maps a service error to its HTTP status code and safe message.
// Unclassified errors are treated as persistence failures.
func StatusFor(err error) (int, *APIError) {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError, New("Error interno del servidor")
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest, New(e.Msg)
	case KindNotFound:
		return http.StatusNotFound, New(e.Msg)
	default:
		return http.StatusInternalServerError, New("Error interno del servidor")
	}
}
