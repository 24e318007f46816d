// Package errors provides structured error types for the nwb-lens application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and library packages
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes distinguish the failure classes the tool reports:
//   - LOAD_*: the source file could not be opened or read (fatal, no tree)
//   - FIELD_*: a single property could not be resolved (recovered locally)
//   - VALIDATION_*: the external validator failed (tree stays usable)
//   - SERIALIZE_*: an export document could not be produced or written
//
// # Usage
//
//	err := errors.New(errors.ErrCodeLoadFailed, "open %s: not a snapshot file", path)
//	if errors.Is(err, errors.ErrCodeLoadFailed) {
//	    // Handle load failure
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeSerializeFailed, origErr, "write %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Load errors (fatal to the whole operation)
	ErrCodeLoadFailed   Code = "LOAD_FAILED"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeBadSnapshot  Code = "BAD_SNAPSHOT"

	// Field-level extraction errors (recovered as placeholders)
	ErrCodeFieldUnresolved Code = "FIELD_UNRESOLVED"

	// Validation errors (tree stays usable without an overlay)
	ErrCodeValidationFailed      Code = "VALIDATION_FAILED"
	ErrCodeValidationUnavailable Code = "VALIDATION_UNAVAILABLE"
	ErrCodeStaleResult           Code = "STALE_RESULT"

	// Export errors (fatal for the export step only)
	ErrCodeSerializeFailed Code = "SERIALIZE_FAILED"

	// Input validation errors
	ErrCodeInvalidPath  Code = "INVALID_PATH"
	ErrCodeInvalidInput Code = "INVALID_INPUT"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
