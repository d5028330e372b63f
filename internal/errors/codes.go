// Package errors provides structured error handling for hitpager.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (index, store, locks)
//   - 3XX: Backend errors (search engine transport)
//   - 4XX: Validation errors (caller mistakes)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates index and store I/O errors.
	CategoryIO Category = "IO"
	// CategoryBackend indicates search backend transport errors.
	CategoryBackend Category = "BACKEND"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates a programmer error; the operation must not be retried.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates a transient condition the caller may retry.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Stage identifies which step of a find operation failed.
type Stage string

const (
	StageQueryBuild Stage = "query_build"
	StageSearch     Stage = "search"
	StageTransform  Stage = "transform"
	StageSlice      Stage = "slice"
	StagePage       Stage = "page"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeIndexOpen   = "ERR_201_INDEX_OPEN"
	ErrCodeStoreOpen   = "ERR_202_STORE_OPEN"
	ErrCodeIndexLocked = "ERR_203_INDEX_LOCKED"
	ErrCodeCorruptLine = "ERR_204_CORRUPT_INPUT"

	// Backend errors (300-399)
	ErrCodeBackendTimeout     = "ERR_301_BACKEND_TIMEOUT"
	ErrCodeBackendUnavailable = "ERR_302_BACKEND_UNAVAILABLE"

	// Validation errors (400-499)
	ErrCodeMalformedQuery = "ERR_401_MALFORMED_QUERY"
	ErrCodeInvalidSlice   = "ERR_402_INVALID_SLICE"
	ErrCodeInvalidInput   = "ERR_403_INVALID_INPUT"
	ErrCodePageOutOfRange = "ERR_404_PAGE_OUT_OF_RANGE"

	// Internal errors (500-599)
	ErrCodeInternal       = "ERR_501_INTERNAL"
	ErrCodeTransformation = "ERR_502_TRANSFORMATION_FAILED"
	ErrCodeSearchFailed   = "ERR_503_SEARCH_FAILED"
	ErrCodeIndexFailed    = "ERR_504_INDEX_FAILED"
)

// Sentinels for errors.Is matching. Matching is by code only.
var (
	ErrMalformedQuery     = &Error{Code: ErrCodeMalformedQuery}
	ErrInvalidSlice       = &Error{Code: ErrCodeInvalidSlice}
	ErrInvalidInput       = &Error{Code: ErrCodeInvalidInput}
	ErrPageOutOfRange     = &Error{Code: ErrCodePageOutOfRange}
	ErrBackendTimeout     = &Error{Code: ErrCodeBackendTimeout}
	ErrBackendUnavailable = &Error{Code: ErrCodeBackendUnavailable}
	ErrTransformation     = &Error{Code: ErrCodeTransformation}
	ErrSearchFailed       = &Error{Code: ErrCodeSearchFailed}
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "401" from "ERR_401_MALFORMED_QUERY")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryBackend
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeInvalidSlice:
		return SeverityFatal
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeBackendTimeout, ErrCodeBackendUnavailable, ErrCodeIndexLocked:
		return true
	default:
		return false
	}
}
