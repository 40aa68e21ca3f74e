// Package errors provides structured error types for marketlink.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the router, CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// Data-source adapters report failures as *Error values whose Code is the
// failure kind (RATE_LIMITED, UNSUPPORTED, NOT_FOUND, ...). The router
// switches on that code instead of inspecting error strings.
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NOT_FOUND: Resource not found upstream
//   - NETWORK_*: Network-related errors
//   - *_AVAILABLE / *_FAILED: Routing outcomes
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidSymbol, "invalid symbol: %s", sym)
//	if errors.Is(err, errors.ErrCodeInvalidSymbol) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", url)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidCategory Code = "INVALID_CATEGORY"
	ErrCodeInvalidSymbol   Code = "INVALID_SYMBOL"
	ErrCodeInvalidSource   Code = "INVALID_SOURCE"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Network errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Authentication errors
	ErrCodeUnauthorized Code = "UNAUTHORIZED"

	// Routing errors
	ErrCodeSourceNotAvailable Code = "SOURCE_NOT_AVAILABLE"
	ErrCodeNoProviders        Code = "NO_PROVIDERS_AVAILABLE"
	ErrCodeProviderFailed     Code = "PROVIDER_FAILED"
	ErrCodeAllProvidersFailed Code = "ALL_PROVIDERS_FAILED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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
// An *AllFailedError matches ErrCodeAllProvidersFailed.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error carries no code.
func GetCode(err error) Code {
	var af *AllFailedError
	if errors.As(err, &af) {
		return af.Code()
	}
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
	var af *AllFailedError
	if errors.As(err, &af) {
		return af.message()
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s", e.Message, UserMessage(e.Cause))
		}
		return e.Message
	}
	return err.Error()
}

// Attempt records one failed provider call inside a fallback chain.
type Attempt struct {
	Source string
	Err    error
}

// AllFailedError is returned when every candidate provider failed.
// Attempts are kept in the order the providers were tried.
type AllFailedError struct {
	Category string
	Action   string
	Attempts []Attempt
}

// Error implements the error interface.
func (e *AllFailedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCodeAllProvidersFailed, e.message())
}

func (e *AllFailedError) message() string {
	msg := fmt.Sprintf("All providers failed for %s/%s (tried: %s)",
		e.Category, e.Action, strings.Join(e.Sources(), ", "))
	if last := e.Last(); last != nil {
		msg += ": " + UserMessage(last)
	}
	return msg
}

// Sources returns the attempted source names in order.
func (e *AllFailedError) Sources() []string {
	names := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		names[i] = a.Source
	}
	return names
}

// Last returns the final underlying failure, or nil if nothing was attempted.
func (e *AllFailedError) Last() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

// Unwrap returns the final underlying failure.
func (e *AllFailedError) Unwrap() error { return e.Last() }

// Code returns the error code for this error type.
func (e *AllFailedError) Code() Code {
	return ErrCodeAllProvidersFailed
}
