// Package apperror defines the error kinds surfaced by the service layer and
// their HTTP mapping.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindUnauthenticated   Kind = "UNAUTHENTICATED"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindValidation        Kind = "VALIDATION_ERROR"
	KindConflict          Kind = "CONFLICT"
	KindNotFound          Kind = "NOT_FOUND"
	KindStoreUnavailable  Kind = "STORE_UNAVAILABLE"
	KindInternal          Kind = "INTERNAL"
)

// Error is a classified failure. Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so errors.Is(err, apperror.ErrConflict) works for any conflict.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrUnauthenticated   = &Error{Kind: KindUnauthenticated}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrStoreUnavailable  = &Error{Kind: KindStoreUnavailable}
)

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func Unauthenticated(msg string) *Error { return New(KindUnauthenticated, "%s", msg) }

func Unauthorized(msg string) *Error { return New(KindUnauthorized, "%s", msg) }

func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, format, args...)
}

func NotFound(entity string) *Error { return New(KindNotFound, "%s not found", entity) }

func Conflict(msg string) *Error { return New(KindConflict, "%s", msg) }

func InvalidTransition(entity, from, to string) *Error {
	return New(KindInvalidTransition, "%s cannot move from %s to %s", entity, from, to)
}

func StoreUnavailable(err error) *Error {
	return Wrap(KindStoreUnavailable, err, "data store unavailable")
}

func Internal(err error, msg string) *Error { return Wrap(KindInternal, err, "%s", msg) }

// KindOf returns the Kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the client-safe message of err. Wrapped causes are never
// included.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindUnauthorized:
		return http.StatusForbidden
	case KindInvalidTransition:
		return http.StatusUnprocessableEntity
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
