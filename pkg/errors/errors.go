package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid device id or pin")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	// ErrConfiguration signals missing or inconsistent installation setup
	// (no kiosk and no locations, absent required defined types). Fatal to
	// the request, never retried.
	ErrConfiguration = New("CONFIGURATION_ERROR", http.StatusInternalServerError, "check-in configuration error")

	// ErrCheckInMessage carries a user-facing kiosk message (bad search term,
	// phone length out of bounds). Rendered verbatim on the kiosk, never
	// logged as a system fault.
	ErrCheckInMessage = New("CHECKIN_MESSAGE", http.StatusUnprocessableEntity, "check-in request rejected")
)

// CheckInMessage builds a user-facing kiosk error with the given text.
func CheckInMessage(format string, args ...interface{}) *Error {
	return Clone(ErrCheckInMessage, fmt.Sprintf(format, args...))
}

// Configuration builds a configuration error with the given text.
func Configuration(format string, args ...interface{}) *Error {
	return Clone(ErrConfiguration, fmt.Sprintf(format, args...))
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
