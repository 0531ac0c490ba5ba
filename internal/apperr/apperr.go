// Package apperr defines the closed error taxonomy shared by the store,
// service, and HTTP layers. Handlers dispatch on the Kind tag, never on
// message text.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the taxonomy variants.
type Kind int

const (
	// Internal is the zero value: anything unexpected.
	Internal Kind = iota
	NotFound
	BadRequest
	Validation
	Conflict
	SchemaValidation
	Unauthorized
	Forbidden
	RateLimited
	Database
	// Unprocessable marks a structurally malformed request body, as opposed
	// to BadRequest's semantically invalid input.
	Unprocessable
)

// Error carries a taxonomy tag, a client-visible message, and an optional
// wrapped cause. The cause is for server-side logs only and is never sent to
// clients for Internal/Database kinds.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error of the given kind wrapping cause. The message is
// client-visible; cause is not (for Internal/Database kinds).
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

func NotFoundf(format string, args ...any) *Error   { return New(NotFound, format, args...) }
func BadRequestf(format string, args ...any) *Error { return New(BadRequest, format, args...) }
func Validationf(format string, args ...any) *Error { return New(Validation, format, args...) }
func Conflictf(format string, args ...any) *Error   { return New(Conflict, format, args...) }
func SchemaValidationf(format string, args ...any) *Error {
	return New(SchemaValidation, format, args...)
}
func Unauthorizedf(format string, args ...any) *Error { return New(Unauthorized, format, args...) }
func Forbiddenf(format string, args ...any) *Error    { return New(Forbidden, format, args...) }
func RateLimitedf(format string, args ...any) *Error  { return New(RateLimited, format, args...) }
func Internalf(format string, args ...any) *Error     { return New(Internal, format, args...) }
func Unprocessablef(format string, args ...any) *Error {
	return New(Unprocessable, format, args...)
}
func Databasef(cause error, format string, args ...any) *Error {
	return Wrap(Database, cause, format, args...)
}

// KindOf extracts the taxonomy tag from err. Non-taxonomy errors are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Code returns the wire identifier for the kind, e.g. "NOT_FOUND".
func (k Kind) Code() string {
	switch k {
	case NotFound:
		return "NOT_FOUND"
	case BadRequest:
		return "BAD_REQUEST"
	case Validation:
		return "VALIDATION_ERROR"
	case Conflict:
		return "CONFLICT"
	case SchemaValidation:
		return "SCHEMA_VALIDATION_ERROR"
	case Unauthorized:
		return "UNAUTHORIZED"
	case Forbidden:
		return "FORBIDDEN"
	case RateLimited:
		return "RATE_LIMITED"
	case Database:
		return "DATABASE_ERROR"
	case Unprocessable:
		return "UNPROCESSABLE_ENTITY"
	default:
		return "INTERNAL_ERROR"
	}
}

// HTTPStatus maps the kind to its response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case NotFound:
		return http.StatusNotFound
	case BadRequest, Validation:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case SchemaValidation, Unprocessable:
		return http.StatusUnprocessableEntity
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Opaque reports whether the kind's detail must be hidden from clients.
// Opaque errors are logged in full server-side and replaced with a generic
// message on the wire.
func (k Kind) Opaque() bool {
	return k == Internal || k == Database
}

// ClientMessage returns the message safe to send to the client.
func ClientMessage(err error) string {
	kind := KindOf(err)
	if !kind.Opaque() {
		var e *Error
		if errors.As(err, &e) {
			return e.Message
		}
		return err.Error()
	}
	if kind == Database {
		return "A database error occurred"
	}
	return "An internal error occurred"
}
