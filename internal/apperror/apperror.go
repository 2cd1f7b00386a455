// Package apperror defines the error taxonomy shared by services, middleware
// and handlers. An *AppError is an operational error: an anticipated failure
// whose message is safe to show to a client. Any other error reaching the
// HTTP boundary is treated as an unexpected fault.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError carries an HTTP status code and a client-safe message.
type AppError struct {
	StatusCode  int
	Message     string
	Operational bool
	Err         error // optional cause, never rendered in production
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Status is "fail" for 4xx and "error" for everything else.
func (e *AppError) Status() string {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return "fail"
	}
	return "error"
}

// New builds an operational error with an explicit status code.
func New(status int, msg string) *AppError {
	return &AppError{StatusCode: status, Message: msg, Operational: true}
}

// Wrap attaches a cause to a new operational error.
func Wrap(status int, msg string, err error) *AppError {
	return &AppError{StatusCode: status, Message: msg, Operational: true, Err: err}
}

func Validation(msg string) *AppError     { return New(http.StatusBadRequest, msg) }
func Authentication(msg string) *AppError { return New(http.StatusUnauthorized, msg) }
func Forbidden(msg string) *AppError      { return New(http.StatusForbidden, msg) }
func NotFound(msg string) *AppError       { return New(http.StatusNotFound, msg) }
func Conflict(msg string) *AppError       { return New(http.StatusConflict, msg) }

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// StatusOf returns the status code carried by err, or 500.
func StatusOf(err error) int {
	if ae, ok := As(err); ok {
		return ae.StatusCode
	}
	return http.StatusInternalServerError
}
