package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig    = "CONFIG"
	ErrTransport = "TRANSPORT"
	ErrProtocol  = "PROTOCOL"
	ErrPayload   = "PAYLOAD"
	ErrPersist   = "PERSIST"
	ErrIndex     = "INDEX"
	ErrInput     = "INPUT"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered for the terminal as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	// First line: failure symbol + main message
	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	// Include cause if present (why it failed)
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	// Include suggestion if present (how to fix)
	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var xErr *Error
	if errors.As(err, &xErr) {
		return xErr.Code == code
	}
	return false
}

// Code returns the code of a structured Error, or "" for anything else.
func Code(err error) string {
	var xErr *Error
	if errors.As(err, &xErr) {
		return xErr.Code
	}
	return ""
}

// Summary renders err on a single line for log output: "message: cause".
func Summary(err error) string {
	if err == nil {
		return ""
	}
	var xErr *Error
	if !errors.As(err, &xErr) {
		return err.Error()
	}
	if xErr.Cause == nil {
		return xErr.Message
	}
	return xErr.Message + ": " + Summary(xErr.Cause)
}

// ExitError carries a process exit code without printing anything extra.
// Commands return it when the outcome is already visible in their output
// (e.g. `status --fail-offline` after printing the table).
type ExitError struct {
	Code int
}

// NewExitError creates an ExitError with the given code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// GetExitCode extracts the exit code from an ExitError.
func GetExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
