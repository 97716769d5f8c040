// Package domain contains the core domain models and types.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure cases.
var (
	// ErrEmptyLog indicates the log content is empty or whitespace only.
	ErrEmptyLog = errors.New("log content is empty")

	// ErrAITimeout indicates the AI service did not respond in time.
	ErrAITimeout = errors.New("AI service timeout")

	// ErrAIUnavailable indicates the AI service is not available.
	ErrAIUnavailable = errors.New("AI service unavailable")

	// ErrAuthFailed indicates the AI service rejected the credential.
	ErrAuthFailed = errors.New("AI service authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrContentBlocked indicates the AI service refused to answer.
	ErrContentBlocked = errors.New("AI service blocked the content")

	// ErrInvalidJSON indicates the AI response body is not a JSON document.
	ErrInvalidJSON = errors.New("AI response is not valid JSON")

	// ErrSchemaViolation indicates the AI response does not match the result schema.
	ErrSchemaViolation = errors.New("AI response violates the result schema")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ErrorKind classifies analysis failures for diagnostics.
type ErrorKind string

const (
	KindInput   ErrorKind = "input"
	KindService ErrorKind = "service"
	KindParse   ErrorKind = "parse"
	KindSchema  ErrorKind = "schema"
)

// AnalysisError wraps an error with additional context.
type AnalysisError struct {
	// Kind groups the failure into input, service, parse or schema.
	Kind ErrorKind

	// Op is the operation that failed.
	Op string

	// Err is the underlying error.
	Err error

	// Retryable indicates if a caller may reasonably try again.
	Retryable bool
}

// Error implements the error interface.
func (e *AnalysisError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// WrapError creates a new service-kind AnalysisError with context.
func WrapError(op string, err error, retryable bool) *AnalysisError {
	return &AnalysisError{
		Kind:      KindService,
		Op:        op,
		Err:       err,
		Retryable: retryable,
	}
}

// NewError creates a non-retryable AnalysisError of the given kind.
func NewError(kind ErrorKind, op string, err error) *AnalysisError {
	return &AnalysisError{
		Kind: kind,
		Op:   op,
		Err:  err,
	}
}

// KindOf reports the kind of an analysis error.
// Errors that are not AnalysisErrors are treated as service failures.
func KindOf(err error) ErrorKind {
	var ae *AnalysisError
	if errors.As(err, &ae) && ae.Kind != "" {
		return ae.Kind
	}
	return KindService
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Retryable
	}
	return false
}
