// Package errors provides structured error types for the datagroom system.
// All errors include a category, code, message, and retryable flag for
// consistent error handling across components.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by pipeline stage.
type ErrorCategory string

const (
	ErrCategoryValidation ErrorCategory = "VALIDATION"
	ErrCategoryLoad       ErrorCategory = "LOAD"
	ErrCategoryParse      ErrorCategory = "PARSE"
	ErrCategoryExecute    ErrorCategory = "EXECUTE"
	ErrCategoryStore      ErrorCategory = "STORE"
	ErrCategoryArchive    ErrorCategory = "ARCHIVE"
	ErrCategoryConfig     ErrorCategory = "CONFIG"
	ErrCategoryInternal   ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Validation codes
	CodeEmptyPrompt  = "EMPTY_PROMPT"
	CodeEmptyTable   = "EMPTY_TABLE"
	CodeInvalidRules = "INVALID_RULES"

	// Load codes
	CodeFileNotFound = "FILE_NOT_FOUND"
	CodeFileTooLarge = "FILE_TOO_LARGE"
	CodeBadEncoding  = "BAD_ENCODING"
	CodeMalformedCSV = "MALFORMED_CSV"

	// Parse codes
	CodeModelUnavailable = "MODEL_UNAVAILABLE"
	CodeBadModelReply    = "BAD_MODEL_REPLY"

	// Execute codes
	CodeRuleFailed = "RULE_FAILED"

	// Store codes
	CodeDatasetNotFound = "DATASET_NOT_FOUND"
	CodeWriteConflict   = "WRITE_CONFLICT"
	CodeStoreFailed     = "STORE_FAILED"

	// Archive codes
	CodeUploadFailed   = "UPLOAD_FAILED"
	CodeDownloadFailed = "DOWNLOAD_FAILED"
	CodeDeleteFailed   = "DELETE_FAILED"
	CodeObjectNotFound = "OBJECT_NOT_FOUND"

	// Config codes
	CodeInvalidConfig = "INVALID_CONFIG"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// DatagroomError is the structured error type used throughout the system.
type DatagroomError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *DatagroomError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *DatagroomError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *DatagroomError) Is(target error) bool {
	var t *DatagroomError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new DatagroomError.
func New(category ErrorCategory, code, message string) *DatagroomError {
	return &DatagroomError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new DatagroomError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *DatagroomError {
	return &DatagroomError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DatagroomError) WithDetails(details map[string]interface{}) *DatagroomError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var de *DatagroomError
	if errors.As(err, &de) {
		return de.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a DatagroomError.
func GetCategory(err error) ErrorCategory {
	var de *DatagroomError
	if errors.As(err, &de) {
		return de.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a DatagroomError.
func GetCode(err error) string {
	var de *DatagroomError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// isRetryable determines whether an error code describes a transient
// condition. Network calls to the archive backend and the model endpoint
// are transient; everything else is not.
func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryArchive && code == CodeUploadFailed:
		return true
	case category == ErrCategoryArchive && code == CodeDownloadFailed:
		return true
	case category == ErrCategoryParse && code == CodeModelUnavailable:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewValidationError(code, message string) *DatagroomError {
	return New(ErrCategoryValidation, code, message)
}

func NewLoadError(code, message string, cause error) *DatagroomError {
	return Wrap(ErrCategoryLoad, code, message, cause)
}

func NewParseError(code, message string, cause error) *DatagroomError {
	return Wrap(ErrCategoryParse, code, message, cause)
}

func NewStoreError(code, message string, cause error) *DatagroomError {
	return Wrap(ErrCategoryStore, code, message, cause)
}

func NewArchiveError(code, message string, cause error) *DatagroomError {
	return Wrap(ErrCategoryArchive, code, message, cause)
}

func NewConfigError(message string) *DatagroomError {
	return New(ErrCategoryConfig, CodeInvalidConfig, message)
}

func NewInternalError(message string, cause error) *DatagroomError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
