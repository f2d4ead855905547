package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies application errors so controllers can map them to HTTP
// statuses and callers can branch without string matching.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindAuthorization       Kind = "authorization"
	KindNotFound            Kind = "not_found"
	KindStateConflict       Kind = "state_conflict"
	KindGatewayInitiation   Kind = "gateway_initiation"
	KindGatewayVerifyExpiry Kind = "gateway_verification_timeout"
	KindGatewayDeclined     Kind = "gateway_declined"
	KindInternal            Kind = "internal"
)

// Error is the single error type used across the booking and payment core.
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

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on kind using the sentinel constructors below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return newError(KindValidation, format, args...)
}

func Authorization(format string, args ...interface{}) *Error {
	return newError(KindAuthorization, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newError(KindNotFound, format, args...)
}

func StateConflict(format string, args ...interface{}) *Error {
	return newError(KindStateConflict, format, args...)
}

func GatewayInitiation(err error, format string, args ...interface{}) *Error {
	e := newError(KindGatewayInitiation, format, args...)
	e.Err = err
	return e
}

func GatewayVerificationTimeout(format string, args ...interface{}) *Error {
	return newError(KindGatewayVerifyExpiry, format, args...)
}

func GatewayDeclined(format string, args ...interface{}) *Error {
	return newError(KindGatewayDeclined, format, args...)
}

func Internal(err error, message string) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func IsStateConflict(err error) bool { return IsKind(err, KindStateConflict) }
func IsNotFound(err error) bool      { return IsKind(err, KindNotFound) }
func IsValidation(err error) bool    { return IsKind(err, KindValidation) }

// HTTPStatus maps an error to the status code controllers should respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindStateConflict:
		return http.StatusConflict
	case KindGatewayInitiation, KindGatewayDeclined:
		return http.StatusBadGateway
	case KindGatewayVerifyExpiry:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
