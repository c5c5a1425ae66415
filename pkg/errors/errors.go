// Package errors provides structured error types for flakepin.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and library packages
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Every failure in the pin pipeline maps to exactly one code:
//   - PARSE_ERROR: malformed version or constraint text
//   - IO_ERROR: file read/write failures
//   - NETWORK_ERROR: request failures or non-success HTTP responses
//   - NOT_FOUND: a required resource or declaration is missing
//   - STRUCTURE_NOT_FOUND: an expected syntax node/token is absent from flake.nix
//   - NO_CANDIDATE: the nixpkgs search exhausted both tiers without a match
//   - CONFLICTING_REQUIREMENTS: divergent required_version strings across .tf files
//
// # Usage
//
//	err := errors.New(errors.ErrCodeParse, "invalid version: %s", s)
//	if errors.Is(err, errors.ErrCodeParse) {
//	    // Handle parse error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different failure categories.
const (
	// Input and parsing errors
	ErrCodeParse        Code = "PARSE_ERROR"
	ErrCodeInvalidInput Code = "INVALID_INPUT"

	// Filesystem errors
	ErrCodeIO Code = "IO_ERROR"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"

	// Resolution errors
	ErrCodeNotFound                Code = "NOT_FOUND"
	ErrCodeStructureNotFound       Code = "STRUCTURE_NOT_FOUND"
	ErrCodeNoCandidate             Code = "NO_CANDIDATE"
	ErrCodeConflictingRequirements Code = "CONFLICTING_REQUIREMENTS"
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
