// Package errors provides structured error handling for TokenFlow.
// Errors carry codes and key-value context so an aborting failure names the
// case, attribute, or column that caused it.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies an error class for programmatic handling.
type Code string

const (
	// Configuration errors (1xx) — abort the whole computation.
	CodeUnknownAnimationMode Code = "E101"
	CodeNonPositiveDuration  Code = "E102"
	CodeBadAttributeSource   Code = "E103"
	CodeMissingColumn        Code = "E104"

	// Degenerate input errors (2xx) — abort the whole computation.
	CodeZeroLogDuration  Code = "E201"
	CodeZeroCaseDuration Code = "E202"

	// Input data errors (3xx) — boundary loaders only.
	CodeInvalidTimestamp Code = "E301"
	CodeMalformedRow     Code = "E302"

	// Unknown
	CodeUnknown Code = "E999"
)

// Error is the base error type for all TokenFlow errors.
type Error struct {
	Code    Code
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if len(e.Context) > 0 {
		sb.WriteString(" (")
		first := true
		for k, v := range e.Context {
			if !first {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s=%v", k, v))
			first = false
		}
		sb.WriteString(")")
	}

	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext adds context to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new Error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap wraps an existing error with a code and message.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: err}
}

// --- Convenience constructors ---

// UnknownAnimationMode reports an animation_mode outside {absolute, relative}.
func UnknownAnimationMode(mode string) *Error {
	return New(CodeUnknownAnimationMode, "unknown animation mode").
		WithContext("mode", mode).
		WithContext("supported", "absolute, relative")
}

// NonPositiveDuration reports an animation_duration that is not > 0.
func NonPositiveDuration(seconds float64) *Error {
	return New(CodeNonPositiveDuration, "animation duration must be positive").
		WithContext("animation_duration", seconds)
}

// BadAttributeSource reports an attribute value source that is neither a
// constant, a known column name, nor a valid external table.
func BadAttributeSource(attribute, reason string) *Error {
	return New(CodeBadAttributeSource, "invalid attribute value source").
		WithContext("attribute", attribute).
		WithContext("reason", reason)
}

// MissingColumn reports a required column absent from an input table.
func MissingColumn(column string, available []string) *Error {
	return New(CodeMissingColumn, "required column not found").
		WithContext("column", column).
		WithContext("available", available)
}

// ZeroLogDuration reports a zero-length log used as a scaling denominator.
func ZeroLogDuration() *Error {
	return New(CodeZeroLogDuration, "log duration is zero, animation factor undefined")
}

// ZeroCaseDuration reports that no case has a positive duration.
func ZeroCaseDuration() *Error {
	return New(CodeZeroCaseDuration, "maximum case duration is zero, animation factor undefined")
}

// InvalidTimestamp reports a timestamp parsing failure with its location.
func InvalidTimestamp(value string, row int) *Error {
	return New(CodeInvalidTimestamp, "failed to parse timestamp").
		WithContext("value", value).
		WithContext("row", row)
}

// MalformedRow reports a structurally invalid input row.
func MalformedRow(row int, reason string) *Error {
	return New(CodeMalformedRow, "malformed row").
		WithContext("row", row).
		WithContext("reason", reason)
}

// --- Error checking utilities ---

// IsCode checks if an error has a specific code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsConfiguration reports whether err is a configuration error (E1xx).
func IsConfiguration(err error) bool {
	return strings.HasPrefix(string(GetCode(err)), "E1")
}

// IsDegenerateInput reports whether err is a degenerate-input error (E2xx).
func IsDegenerateInput(err error) bool {
	return strings.HasPrefix(string(GetCode(err)), "E2")
}
