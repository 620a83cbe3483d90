package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of failure categories the services produce. The
// handler layer maps kinds to transport status codes; services never touch
// HTTP directly.
type Kind int

const (
	ValidationFailed Kind = iota + 1
	NotFound
	Conflict
	Forbidden
	InvalidState
)

type Error struct {
	Kind    Kind
	Message string
	Detail  string
}

func (e *Error) Error() string {
	return e.Message
}

// New builds an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithDetail attaches caller-facing detail text.
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// As extracts an *Error from an error chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

// Code returns the machine-readable application code for the kind.
func (k Kind) Code() string {
	switch k {
	case ValidationFailed:
		return "VALIDATION_FAILED"
	case NotFound:
		return "NOT_FOUND"
	case Conflict:
		return "CONFLICT"
	case Forbidden:
		return "FORBIDDEN"
	case InvalidState:
		return "INVALID_STATE"
	default:
		return "INTERNAL"
	}
}

// HTTPStatus returns the transport status for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case ValidationFailed:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Forbidden:
		return http.StatusForbidden
	case InvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
