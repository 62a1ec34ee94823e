// Package apperr defines the fintrack error taxonomy. Every failure that
// reaches the user is an *AppError so it can be shown with a title and
// severity on the single notice surface.
package apperr

import (
	"context"
	"errors"

	"github.com/theirongolddev/fintrack/internal/store"
)

// Severity classifies how a notice is presented.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// AppError is a structured error with a stable code and a user-facing
// title and message. Internal holds the underlying cause, never shown.
type AppError struct {
	Code     string
	Title    string
	Message  string
	Severity Severity
	Internal error
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a copy of sentinel carrying internal as its cause.
func Wrap(sentinel *AppError, internal error) *AppError {
	c := *sentinel
	c.Internal = internal
	return &c
}

// WithMessage creates a copy of sentinel with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	c := *sentinel
	c.Message = message
	return &c
}

// Core errors.
var (
	ErrNotAuthenticated   = &AppError{Code: "NOT_AUTHENTICATED", Title: "Signed Out", Message: "Please sign in to continue", Severity: SeverityWarning}
	ErrValidation         = &AppError{Code: "VALIDATION", Title: "Validation Error", Message: "Please fill in all fields", Severity: SeverityWarning}
	ErrBackendUnavailable = &AppError{Code: "BACKEND_UNAVAILABLE", Title: "Error", Message: "The data store is unavailable. Please try again.", Severity: SeverityError}
	ErrNetwork            = &AppError{Code: "NETWORK", Title: "Error", Message: "Network error. Please check your internet connection.", Severity: SeverityError}
	ErrPermissionDenied   = &AppError{Code: "PERMISSION_DENIED", Title: "Error", Message: "Permission denied", Severity: SeverityError}
	ErrIndexRequired      = &AppError{Code: "INDEX_REQUIRED", Title: "Notice", Message: "Sorted queries are not supported by the store; sorting locally instead", Severity: SeverityInfo}
	ErrNotFound           = &AppError{Code: "NOT_FOUND", Title: "Error", Message: "The record no longer exists", Severity: SeverityError}
	ErrUnknownTab         = &AppError{Code: "UNKNOWN_TAB", Title: "Error", Message: "Unknown tab", Severity: SeverityWarning}
	ErrInternal           = &AppError{Code: "INTERNAL", Title: "Error", Message: "Something went wrong", Severity: SeverityError}
)

// Authentication errors.
var (
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Title: "Login Failed", Message: "Invalid email or password. Please check your credentials.", Severity: SeverityError}
	ErrInvalidEmail       = &AppError{Code: "INVALID_EMAIL", Title: "Login Failed", Message: "Invalid email address", Severity: SeverityError}
	ErrTooManyAttempts    = &AppError{Code: "TOO_MANY_ATTEMPTS", Title: "Login Failed", Message: "Too many failed login attempts. Please try again later.", Severity: SeverityError}
	ErrEmailInUse         = &AppError{Code: "EMAIL_IN_USE", Title: "Signup Failed", Message: "Email already in use", Severity: SeverityError}
	ErrWeakPassword       = &AppError{Code: "WEAK_PASSWORD", Title: "Signup Failed", Message: "Password is too weak", Severity: SeverityError}
	ErrUnknownAuth        = &AppError{Code: "UNKNOWN_AUTH", Title: "Error", Message: "Authentication failed", Severity: SeverityError}
)

// Code returns the AppError code carried by err, or "" if none.
func Code(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// Is reports whether err carries the same code as sentinel.
func Is(err error, sentinel *AppError) bool {
	return err != nil && Code(err) == sentinel.Code
}

// From converts any error into an *AppError, mapping store and context
// failures onto the taxonomy. A nil error yields nil.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return Wrap(ErrNotFound, err)
	case errors.Is(err, store.ErrPermissionDenied):
		return Wrap(ErrPermissionDenied, err)
	case errors.Is(err, store.ErrIndexRequired):
		return Wrap(ErrIndexRequired, err)
	case errors.Is(err, store.ErrUnavailable):
		return Wrap(ErrBackendUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(ErrNetwork, err)
	}
	return Wrap(ErrInternal, err)
}
