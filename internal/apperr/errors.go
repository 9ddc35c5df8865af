// Package apperr defines the error taxonomy surfaced by the social graph
// operations and the localized messages shown to callers.
package apperr

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeAuthRequired          Code = "AUTH_REQUIRED"
	CodeNotFound              Code = "NOT_FOUND"
	CodeSelfReferenceRejected Code = "SELF_REFERENCE_REJECTED"
	CodeValidation            Code = "VALIDATION_ERROR"
	CodeUnknownStore          Code = "UNKNOWN_STORE_ERROR"
)

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Internal message (for logs)
	Metadata map[string]string // Template values for the localized message
	Cause    error             // Wrapped underlying error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels usable with errors.Is.
var (
	ErrAuthRequired          = New(CodeAuthRequired, "authentication required")
	ErrNotFound              = New(CodeNotFound, "target not found")
	ErrSelfReferenceRejected = New(CodeSelfReferenceRejected, "self reference rejected")
	ErrValidation            = New(CodeValidation, "validation failed")
	ErrUnknownStore          = New(CodeUnknownStore, "store failure")
)

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// NotFound reports a missing target of the given kind ("user", "post").
func NotFound(kind string) *Error {
	return &Error{
		Code:     CodeNotFound,
		Message:  kind + " not found",
		Metadata: map[string]string{"Kind": kind},
	}
}

// Validation reports invalid input; field names the offending parameter.
func Validation(field, message string) *Error {
	return &Error{
		Code:     CodeValidation,
		Message:  message,
		Metadata: map[string]string{"Field": field},
	}
}

// Store wraps an opaque backend failure.
func Store(op string, cause error) *Error {
	return Wrap(CodeUnknownStore, op, cause)
}

// CodeOf extracts the code of err; unknown errors are store errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknownStore
}

// HTTPStatus maps a code to the transport status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeAuthRequired:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeSelfReferenceRejected, CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
