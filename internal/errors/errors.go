package errors

import (
	stderrors "errors"
	"fmt"
)

// Error is the structured error type for hitpager.
// It carries enough context to tell which stage of a find failed without
// hiding the collaborator error that caused it.
type Error struct {
	// Code is the unique error code (e.g., "ERR_402_INVALID_SLICE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Backend, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Stage is the find step that failed. Empty when not attributed.
	Stage Stage

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the caller may retry the operation.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Stage, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by code so callers can test against the package sentinels.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// WithStage records the stage on the error.
func (e *Error) WithStage(stage Stage) *Error {
	e.Stage = stage
	return e
}

// New creates a new Error with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates an Error from an existing error.
// The error's message becomes the Error message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// AtStage attributes err to stage without changing its code or cause.
// Structured errors are copied with the stage filled in (an existing stage
// is kept). Anything else is wrapped under fallbackCode.
func AtStage(stage Stage, fallbackCode string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		if e.Stage != "" {
			return err
		}
		staged := *e
		staged.Stage = stage
		return &staged
	}
	return Wrap(fallbackCode, err).WithStage(stage)
}

// MalformedQuery creates a query build error.
func MalformedQuery(message string, cause error) *Error {
	return New(ErrCodeMalformedQuery, message, cause).WithStage(StageQueryBuild)
}

// InvalidSlice creates a slice argument error.
func InvalidSlice(offset, length int) *Error {
	return New(ErrCodeInvalidSlice,
		fmt.Sprintf("invalid slice offset=%d length=%d", offset, length), nil).
		WithStage(StageSlice).
		WithSuggestion("offset must be >= 0 and length must be > 0")
}

// BackendTimeout creates a transient backend timeout error.
func BackendTimeout(message string, cause error) *Error {
	return New(ErrCodeBackendTimeout, message, cause)
}

// BackendUnavailable creates a transient backend availability error.
func BackendUnavailable(message string, cause error) *Error {
	return New(ErrCodeBackendUnavailable, message, cause)
}

// Transformation creates a strict-mode mapping error.
func Transformation(message string, cause error) *Error {
	return New(ErrCodeTransformation, message, cause).WithStage(StageTransform)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *Error {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *Error {
	return New(ErrCodeInvalidInput, message, cause)
}

// IsRetryable reports whether any structured error in the chain is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code. Returns empty string if not an Error.
func GetCode(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetStage extracts the failing stage. Returns empty string if not attributed.
func GetStage(err error) Stage {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Stage
	}
	return ""
}
