package errors

import (
	"fmt"
)

// PrepError is the structured error type for indexprep.
// It provides rich context for error handling, logging, and user presentation.
type PrepError struct {
	// Code is the unique error code (e.g., "ERR_102_CONFIG_INVALID").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *PrepError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *PrepError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with PrepError.
func (e *PrepError) Is(target error) bool {
	if t, ok := target.(*PrepError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *PrepError) WithDetail(key, value string) *PrepError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *PrepError) WithSuggestion(suggestion string) *PrepError {
	e.Suggestion = suggestion
	return e
}

// New creates a new PrepError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *PrepError {
	return &PrepError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a PrepError from an existing error.
// The error's message becomes the PrepError message.
func Wrap(code string, err error) *PrepError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *PrepError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *PrepError {
	return New(ErrCodeFileNotFound, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *PrepError {
	return New(ErrCodeInvalidInput, message, cause)
}

// IsConfig reports whether err is, or wraps, a configuration error.
func IsConfig(err error) bool {
	if ae, ok := asPrepError(err); ok {
		return ae.Category == CategoryConfig
	}
	return false
}

// GetCode extracts the error code from a PrepError.
// Returns empty string if not a PrepError.
func GetCode(err error) string {
	if ae, ok := asPrepError(err); ok {
		return ae.Code
	}
	return ""
}

// asPrepError walks the wrap chain looking for a PrepError.
func asPrepError(err error) (*PrepError, bool) {
	for err != nil {
		if ae, ok := err.(*PrepError); ok {
			return ae, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
