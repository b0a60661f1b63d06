// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	Validation Kind = iota
	NotFound
	Authorization
	Conflict
	GatewayRejection
	GatewayUnavailable
)

// HTTPStatus returns the status code a handler should respond with.
func (k Kind) HTTPStatus() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Authorization:
		return http.StatusForbidden
	case Conflict:
		return http.StatusConflict
	case GatewayRejection:
		return http.StatusPaymentRequired
	case GatewayUnavailable:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Authorization:
		return "authorization"
	case Conflict:
		return "conflict"
	case GatewayRejection:
		return "gateway_rejection"
	case GatewayUnavailable:
		return "gateway_unavailable"
	}
	return "unknown"
}

// Error carries a kind and a user-facing message. The wrapped cause, if any,
// is for server-side logs only and must never reach API responses.
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

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from err or any error it wraps.
func KindOf(err error) (Kind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
