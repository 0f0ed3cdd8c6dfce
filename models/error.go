package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an AppError for transport mapping
type ErrorKind string

// Predefined ErrorKind values
const (
	KindUnauthenticated ErrorKind = "UNAUTHENTICATED"
	KindForbidden       ErrorKind = "FORBIDDEN"
	KindNotFound        ErrorKind = "NOT_FOUND"
	KindConflict        ErrorKind = "CONFLICT"
	KindValidation      ErrorKind = "VALIDATION"
	KindInternal        ErrorKind = "INTERNAL"
)

// InternalErrorMessage is the only message clients see for unexpected failures
const InternalErrorMessage = "Internal server error"

// AppError is the error type returned by every service operation
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another AppError of the same kind and message, which lets the
// sentinels below work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// Sentinel errors
var (
	ErrInvalidCredentials = &AppError{Kind: KindUnauthenticated, Message: "Invalid username or password"}
	ErrUnauthenticated    = &AppError{Kind: KindUnauthenticated, Message: "Unauthorized. Please login first."}
	ErrAlreadyDisposed    = &AppError{Kind: KindConflict, Message: "Case is already disposed"}
	ErrNotDisposedYet     = &AppError{Kind: KindConflict, Message: "Case is not disposed yet"}
)

// NewForbidden returns a Forbidden error with the given message
func NewForbidden(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

// NewNotFound returns a NotFound error with the given message
func NewNotFound(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

// NewConflict returns a Conflict error with the given message
func NewConflict(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

// NewValidation returns a Validation error with the given message
func NewValidation(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

// NewInternal wraps an unexpected failure
func NewInternal(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: InternalErrorMessage, Err: err}
}

// KindOf returns the kind of err, treating anything that is not an AppError as Internal
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
