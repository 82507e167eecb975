// Package apperr defines the service error taxonomy. Handlers map these
// errors to HTTP responses; messages stay generic while statuses
// distinguish the failure class (401 vs 403, 404 vs 409).
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error carries an HTTP status, a stable machine code and a human message.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Validation reports malformed or missing input.
func Validation(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "validation_error", Message: message}
}

// Unauthorized reports missing or bad credentials.
func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: "unauthorized", Message: message}
}

// Forbidden reports valid credentials with no mapped identity or a tenant
// the caller may not act in.
func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Code: "forbidden", Message: message}
}

// NotFound reports an entity that is absent or not owned by the tenant.
func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Code: "not_found", Message: message}
}

// Conflict reports an idempotency-key collision that is not a clean replay.
func Conflict(message string) *Error {
	return &Error{Status: http.StatusConflict, Code: "conflict", Message: message}
}

// Internal reports a misconfiguration or unexpected failure.
func Internal(message string) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: "internal_error", Message: message}
}

// Upstream reports a model/embedding/vector provider failure. Provider
// error bodies are never propagated past text and status.
func Upstream(message string) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: "upstream_error", Message: message}
}

// As unwraps err into *Error when possible.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
