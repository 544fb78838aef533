// Package errors defines the coded errors rendered in the API error envelope.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is an error with a stable machine-readable code and the HTTP status it maps to.
// Internal carries the underlying cause for logs and is never serialised.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

func (e *AppError) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.Internal != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	default:
		return e.Message
	}
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// Is matches any AppError with the same non-empty code, so copies made by WithInternal and
// WithMessage still satisfy errors.Is against their sentinel.
func (e *AppError) Is(target error) bool {
	if e == nil {
		return false
	}
	other, ok := target.(*AppError)
	return ok && other != nil && other.Code != "" && other.Code == e.Code
}

// Status returns the HTTP status for the error, 500 when none was set.
func (e *AppError) Status() int {
	if e == nil || e.StatusCode == 0 {
		return http.StatusInternalServerError
	}
	return e.StatusCode
}

// WithInternal returns a copy carrying err as its cause.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}
	cpy := *e
	cpy.Internal = err
	return &cpy
}

// WithMessage returns a copy with a more specific client-facing message.
func (e *AppError) WithMessage(message string) *AppError {
	if e == nil {
		return nil
	}
	cpy := *e
	cpy.Message = message
	return &cpy
}

var (
	ErrBadRequest     = New("BAD_REQUEST", "Invalid request", http.StatusBadRequest)
	ErrUnauthorized   = New("UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
	ErrForbidden      = New("FORBIDDEN", "Permission denied", http.StatusForbidden)
	ErrNotFound       = New("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrRateLimit      = New("RATE_LIMIT_EXCEEDED", "Too many requests, please slow down", http.StatusTooManyRequests)
	ErrInternalServer = New("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
)

func New(code, message string, statusCode int) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusCode}
}

// NewBadRequest is ErrBadRequest with a request-specific message.
func NewBadRequest(message string) *AppError {
	return ErrBadRequest.WithMessage(message)
}

// FromError finds the AppError in err's chain. Anything else becomes ErrInternalServer with
// err attached as the cause.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServer.WithInternal(err)
}
