// Package errors provides standardized error types for the Athena query runner.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the query lifecycle.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeQueryFailed      = "QUERY_FAILED"
	CodeQueryCancelled   = "QUERY_CANCELLED"
	CodeDeadlineExceeded = "DEADLINE_EXCEEDED"
	CodeInternal         = "INTERNAL_ERROR"
)

// UnknownFailureReason is reported when Athena marks a query FAILED or
// CANCELLED without a state change reason.
const UnknownFailureReason = "Unknown error"

// QueryError represents a query runner error with a code, message, and optional details.
type QueryError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison by code.
func (e *QueryError) Is(target error) bool {
	t, ok := target.(*QueryError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail adds a single detail to the error.
func (e *QueryError) WithDetail(key string, value interface{}) *QueryError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Common errors
var (
	ErrEmptyDatabase         = &QueryError{Code: CodeInvalidRequest, Message: "database cannot be empty"}
	ErrEmptyQuery            = &QueryError{Code: CodeInvalidRequest, Message: "query text cannot be empty"}
	ErrInvalidOutputLocation = &QueryError{Code: CodeInvalidRequest, Message: "output location must be an s3:// URI"}
	ErrEmptyRegion           = &QueryError{Code: CodeInvalidRequest, Message: "region cannot be empty"}
)

// New creates a new QueryError with the given code and message.
func New(code, message string) *QueryError {
	return &QueryError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new QueryError with a formatted message.
func Newf(code, format string, args ...interface{}) *QueryError {
	return &QueryError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with a QueryError.
func Wrap(err error, code, message string) *QueryError {
	if err == nil {
		return nil
	}
	return &QueryError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// QueryFailure builds the terminal-state error for a FAILED or CANCELLED
// query. An empty reason becomes the UnknownFailureReason sentinel.
func QueryFailure(code, reason string) *QueryError {
	if reason == "" {
		reason = UnknownFailureReason
	}
	return &QueryError{
		Code:    code,
		Message: reason,
	}
}

// IsQueryFailure checks if an error is a terminal FAILED/CANCELLED error.
func IsQueryFailure(err error) bool {
	var qErr *QueryError
	if errors.As(err, &qErr) {
		return qErr.Code == CodeQueryFailed || qErr.Code == CodeQueryCancelled
	}
	return false
}

// IsInvalidRequest checks if an error is an invalid request error.
func IsInvalidRequest(err error) bool {
	var qErr *QueryError
	if errors.As(err, &qErr) {
		return qErr.Code == CodeInvalidRequest
	}
	return false
}

// GetCode extracts the error code from an error.
func GetCode(err error) string {
	var qErr *QueryError
	if errors.As(err, &qErr) {
		return qErr.Code
	}
	return CodeInternal
}

// GetMessage extracts the error message from an error.
func GetMessage(err error) string {
	var qErr *QueryError
	if errors.As(err, &qErr) {
		return qErr.Message
	}
	return err.Error()
}
