// Package apperrors centralizes the error-kind taxonomy of spec §7: every
// capability and service returns one of these kinds instead of panicking,
// and the API layer maps kinds to HTTP status codes and a stable
// {code, message, suggestion, retry_after_seconds} body.
//
// Grounded on the teacher's pkg/services/errors.go (sentinel errors +
// typed ValidationError, checked with errors.Is/errors.As) and
// pkg/api/errors.go (mapServiceError).
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a bucket of the error taxonomy (§7).
type Kind string

// Recognized error kinds.
const (
	KindValidation          Kind = "validation"
	KindAuthentication      Kind = "authentication"
	KindAuthorization       Kind = "authorization"
	KindNotFound            Kind = "not_found"
	KindRateLimit           Kind = "rate_limit"
	KindDatabaseUnavailable Kind = "database_unavailable"
	KindAIServiceUnavailable Kind = "ai_service_unavailable"
	KindExternalServiceError Kind = "external_service_error"
	KindBudgetExceeded      Kind = "budget_exceeded"
	KindInternal            Kind = "internal"
)

// HTTPStatus returns the canonical HTTP status code for a kind (§7 table).
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindDatabaseUnavailable:
		return http.StatusServiceUnavailable
	case KindAIServiceUnavailable:
		return http.StatusServiceUnavailable
	case KindExternalServiceError:
		return http.StatusBadGateway
	case KindBudgetExceeded:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is the structured, user-visible failure type of spec §7: a stable
// error_code, a human-readable message, and an optional recovery
// suggestion.
type Error struct {
	Kind       Kind
	Code       string
	Message    string
	Suggestion string
	RetryAfterSeconds int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind with a stable code and message.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap builds an Error of the given kind around a lower-level cause.
func Wrap(kind Kind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Cause: cause}
}

// WithSuggestion returns a copy of the error annotated with a recovery
// suggestion (e.g. "fall back to text search").
func (e *Error) WithSuggestion(s string) *Error {
	cp := *e
	cp.Suggestion = s
	return &cp
}

// WithRetryAfter annotates a RateLimit/BudgetExceeded error with a
// retry-after duration in seconds.
func (e *Error) WithRetryAfter(seconds int) *Error {
	cp := *e
	cp.RetryAfterSeconds = seconds
	return &cp
}

// Sentinel errors for conditions with no caller-supplied message, checked
// with errors.Is.
var (
	ErrNotFound             = New(KindNotFound, "NOT_FOUND", "resource not found")
	ErrConnectionUnavailable = New(KindDatabaseUnavailable, "ES_CONNECTION_UNAVAILABLE", "elasticsearch connection unavailable")
	ErrSemanticSearchUnavailable = New(KindAIServiceUnavailable, "SEMANTIC_SEARCH_UNAVAILABLE", "semantic search is unavailable").WithSuggestion("fall back to text search")
	ErrBudgetExceeded       = New(KindBudgetExceeded, "BUDGET_EXCEEDED", "token or cost budget exceeded")
)

// KindOf extracts the Kind from err if it is (or wraps) an *Error, else
// KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
