package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ParseFailed indicates a source file could not be parsed
	ParseFailed ErrorCode = "PARSE_FAILED"
	// FileUnreadable indicates a source file could not be read
	FileUnreadable ErrorCode = "FILE_UNREADABLE"
	// IgnoreInvalid indicates an ignore file contains an unusable pattern
	IgnoreInvalid ErrorCode = "IGNORE_INVALID"
	// ConfigInvalid indicates the configuration failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// RulesInvalid indicates a rules file failed to load or validate
	RulesInvalid ErrorCode = "RULES_INVALID"
	// CacheUnavailable indicates the extraction cache could not be opened
	CacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
	// IndexMissing indicates a SCIP index was requested but not found
	IndexMissing ErrorCode = "INDEX_MISSING"
	// IndexInvalid indicates a SCIP index could not be decoded
	IndexInvalid ErrorCode = "INDEX_INVALID"
	// UnsupportedFramework indicates an unknown test framework name
	UnsupportedFramework ErrorCode = "UNSUPPORTED_FRAMEWORK"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// ExtractError represents an axe error with code, message, and cause
type ExtractError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// New creates a new ExtractError
func New(code ErrorCode, message string, cause error) *ExtractError {
	return &ExtractError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error implements the error interface
func (e *ExtractError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ExtractError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *ExtractError) WithDetails(details interface{}) *ExtractError {
	e.Details = details
	return e
}

// Suggestions maps error codes to a suggested follow-up command
var Suggestions = map[ErrorCode]string{
	ConfigInvalid:        "axe init",
	CacheUnavailable:     "axe cache clear",
	IndexMissing:         "scip-clang --help (generate an index first)",
	UnsupportedFramework: "use one of: auto, catch2, gtest, boost",
}

// Suggest returns the suggested follow-up for an error code, if any
func Suggest(code ErrorCode) string {
	return Suggestions[code]
}
