// Package errors provides structured error types for csv-verify.
//
// Every failure the tool can hit is one of these codes. None of them are
// recovered from: the first error aborts the run, but the code and metadata
// make the diagnostic printed on exit specific enough to act on.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier for categorization.
type ErrorCode string

const (
	// Input errors
	CodeFileNotFound  ErrorCode = "FILE_NOT_FOUND"
	CodeFileReadError ErrorCode = "FILE_READ_ERROR"

	// Mapping document errors
	CodeInvalidJSON    ErrorCode = "INVALID_JSON"
	CodeInvalidMapping ErrorCode = "INVALID_MAPPING"

	// Workout export errors
	CodeCSVMalformed     ErrorCode = "CSV_MALFORMED"
	CodeCSVMissingColumn ErrorCode = "CSV_MISSING_COLUMN"

	// Infrastructure errors
	CodeConfigError    ErrorCode = "CONFIG_ERROR"
	CodeStorageError   ErrorCode = "STORAGE_ERROR"
	CodeFirestoreError ErrorCode = "FIRESTORE_ERROR"
	CodePubSubError    ErrorCode = "PUBSUB_ERROR"

	CodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// VerifyError is the error type returned by every csv-verify package.
type VerifyError struct {
	Code      ErrorCode         // Unique error code for categorization
	Message   string            // Human-readable error message
	Cause     error             // Underlying error (if any)
	Retryable bool              // Whether re-running could succeed without changing inputs
	Metadata  map[string]string // Additional context (path, row, column...)
}

// Error implements the error interface.
func (e *VerifyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *VerifyError) Unwrap() error {
	return e.Cause
}

// Is matches on error code so sentinels work with errors.Is after wrapping.
func (e *VerifyError) Is(target error) bool {
	t, ok := target.(*VerifyError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *VerifyError) WithCause(cause error) *VerifyError {
	return &VerifyError{
		Code:      e.Code,
		Message:   e.Message,
		Cause:     cause,
		Retryable: e.Retryable,
		Metadata:  e.Metadata,
	}
}

// WithMessage adds a custom message.
func (e *VerifyError) WithMessage(msg string) *VerifyError {
	return &VerifyError{
		Code:      e.Code,
		Message:   msg,
		Cause:     e.Cause,
		Retryable: e.Retryable,
		Metadata:  e.Metadata,
	}
}

// WithMetadata adds contextual metadata.
func (e *VerifyError) WithMetadata(key, value string) *VerifyError {
	meta := make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		meta[k] = v
	}
	meta[key] = value
	return &VerifyError{
		Code:      e.Code,
		Message:   e.Message,
		Cause:     e.Cause,
		Retryable: e.Retryable,
		Metadata:  meta,
	}
}

// Pre-defined sentinel errors. Use these with errors.Is() or derive from
// them with .WithCause() / .WithMessage().
var (
	ErrFileNotFound   = &VerifyError{Code: CodeFileNotFound, Message: "file not found", Retryable: false}
	ErrFileRead       = &VerifyError{Code: CodeFileReadError, Message: "failed to read file", Retryable: true}
	ErrInvalidJSON    = &VerifyError{Code: CodeInvalidJSON, Message: "invalid JSON", Retryable: false}
	ErrInvalidMapping = &VerifyError{Code: CodeInvalidMapping, Message: "invalid exercise mapping", Retryable: false}

	ErrCSVMalformed     = &VerifyError{Code: CodeCSVMalformed, Message: "malformed CSV", Retryable: false}
	ErrCSVMissingColumn = &VerifyError{Code: CodeCSVMissingColumn, Message: "CSV missing required column", Retryable: false}

	ErrConfig    = &VerifyError{Code: CodeConfigError, Message: "invalid configuration", Retryable: false}
	ErrStorage   = &VerifyError{Code: CodeStorageError, Message: "storage error", Retryable: true}
	ErrFirestore = &VerifyError{Code: CodeFirestoreError, Message: "firestore error", Retryable: true}
	ErrPubSub    = &VerifyError{Code: CodePubSubError, Message: "pubsub error", Retryable: true}
	ErrInternal  = &VerifyError{Code: CodeInternalError, Message: "internal error", Retryable: false}
)

// New creates a new VerifyError with the given code and message.
func New(code ErrorCode, message string) *VerifyError {
	return &VerifyError{
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// Wrap wraps an error with a VerifyError.
func Wrap(cause error, code ErrorCode, message string) *VerifyError {
	return &VerifyError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: false,
	}
}

// WrapRetryable wraps an error with a retryable VerifyError.
func WrapRetryable(cause error, code ErrorCode, message string) *VerifyError {
	return &VerifyError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: true,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var vErr *VerifyError
	if errors.As(err, &vErr) {
		return vErr.Retryable
	}
	return false
}

// GetCode extracts the error code from an error, if available.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var vErr *VerifyError
	if errors.As(err, &vErr) {
		return vErr.Code
	}
	return CodeInternalError
}
