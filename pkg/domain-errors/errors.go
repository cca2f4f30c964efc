// Package domainerrors carries typed error codes from services to transports.
//
// Services return errors built with New or Wrap; transports translate the code
// into a status with ToHTTPStatus. Stores should not use this package directly:
// they return pkg/platform/sentinel errors, which services translate.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code identifies an error kind and is rendered verbatim in API responses.
type Code string

// Generic codes.
const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeConflict           Code = "conflict"
	CodeInvalidState       Code = "invalid_state"
	CodeInternal           Code = "internal_error"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"
	CodeRateLimited        Code = "rate_limited"
)

// Location-disclosure codes. These are surfaced to callers by name.
const (
	CodeInvalidDuration        Code = "invalid_duration"
	CodeRecipientNotFound      Code = "recipient_not_found"
	CodeInvalidRecipient       Code = "invalid_recipient"
	CodeNotAuthorized          Code = "not_authorized"
	CodeEventNotFound          Code = "event_not_found"
	CodeEventEnded             Code = "event_ended"
	CodeNotOptedIn             Code = "not_opted_in"
	CodePositioningUnavailable Code = "positioning_unavailable"
)

// Error is a coded domain error. Two Errors match under errors.Is when their
// codes are equal.
type Error struct {
	Code    Code
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

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// New builds a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// As extracts the outermost *Error from the chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether the outermost coded error in the chain carries code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// Is is an alias of HasCode kept for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// ToHTTPStatus maps a code to the HTTP status used in responses.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeInvalidInput, CodeInvalidDuration, CodeInvalidRecipient:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeNotAuthorized, CodeNotOptedIn:
		return http.StatusForbidden
	case CodeNotFound, CodeRecipientNotFound, CodeEventNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvalidState, CodeEventEnded:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodePositioningUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
