// Package errors provides standardized domain errors with codes for the Daybook API.
//
// Usage:
//
//	// In services - return typed errors
//	if body == "" {
//	    return errors.Validation("diary body is empty")
//	}
//
//	// In handlers - check with errors.Is
//	if errors.Is(err, errors.ErrStorageExhausted) {
//	    response.Error(w, http.StatusInsufficientStorage, err.Error(), logger)
//	    return
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeValidation         Code = "VALIDATION"
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"
	CodeStorageExhausted   Code = "STORAGE_EXHAUSTED"
	CodeMirrorCapacity     Code = "MIRROR_CAPACITY"
	CodeGenerationFailed   Code = "GENERATION_FAILED"
	CodeGenerationTimeout  Code = "GENERATION_TIMEOUT"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeInternal           Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation:
		return http.StatusBadRequest
	case CodeStorageExhausted, CodeMirrorCapacity:
		return http.StatusInsufficientStorage
	case CodeStorageUnavailable:
		return http.StatusServiceUnavailable
	case CodeGenerationTimeout:
		return http.StatusGatewayTimeout
	case CodeGenerationFailed:
		return http.StatusBadGateway
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation error"}
	ErrStorageUnavailable = &Error{Code: CodeStorageUnavailable, Message: "durable storage unavailable"}
	ErrStorageExhausted   = &Error{Code: CodeStorageExhausted, Message: "storage exhausted"}
	ErrMirrorCapacity     = &Error{Code: CodeMirrorCapacity, Message: "mirror capacity exceeded"}
	ErrGenerationFailed   = &Error{Code: CodeGenerationFailed, Message: "text generation failed"}
	ErrGenerationTimeout  = &Error{Code: CodeGenerationTimeout, Message: "text generation timed out"}
	ErrRateLimited        = &Error{Code: CodeRateLimited, Message: "rate limited"}
	ErrInternal           = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// StorageUnavailable creates a storage unavailable error.
func StorageUnavailable(msg string) *Error {
	return &Error{Code: CodeStorageUnavailable, Message: msg}
}

// StorageExhausted creates a storage exhausted error.
func StorageExhausted(msg string) *Error {
	return &Error{Code: CodeStorageExhausted, Message: msg}
}

// StorageExhaustedf creates a storage exhausted error with formatted message.
func StorageExhaustedf(format string, args ...any) *Error {
	return &Error{Code: CodeStorageExhausted, Message: fmt.Sprintf(format, args...)}
}

// MirrorCapacity creates a mirror capacity error.
func MirrorCapacity(msg string) *Error {
	return &Error{Code: CodeMirrorCapacity, Message: msg}
}

// MirrorCapacityf creates a mirror capacity error with formatted message.
func MirrorCapacityf(format string, args ...any) *Error {
	return &Error{Code: CodeMirrorCapacity, Message: fmt.Sprintf(format, args...)}
}

// GenerationFailed creates a generation failed error.
func GenerationFailed(msg string) *Error {
	return &Error{Code: CodeGenerationFailed, Message: msg}
}

// GenerationFailedf creates a generation failed error with formatted message.
func GenerationFailedf(format string, args ...any) *Error {
	return &Error{Code: CodeGenerationFailed, Message: fmt.Sprintf(format, args...)}
}

// GenerationTimeout creates a generation timeout error.
func GenerationTimeout(msg string) *Error {
	return &Error{Code: CodeGenerationTimeout, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with an internal error code if it is not already a domain error.
func Wrap(err error, msg string) *Error {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &Error{Code: CodeInternal, Message: msg, cause: err}
}
