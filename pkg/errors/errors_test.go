package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *QueryError
		expected string
	}{
		{
			name: "error without cause",
			err: &QueryError{
				Code:    CodeInvalidRequest,
				Message: "invalid input",
			},
			expected: "INVALID_REQUEST: invalid input",
		},
		{
			name: "error with cause",
			err: &QueryError{
				Code:    CodeQueryFailed,
				Message: "query failed",
				Cause:   fmt.Errorf("underlying error"),
			},
			expected: "QUERY_FAILED: query failed (caused by: underlying error)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestQueryError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := &QueryError{
		Code:    CodeInvalidRequest,
		Message: "invalid input",
		Cause:   cause,
	}

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, &QueryError{Code: CodeInvalidRequest}))
}

func TestQueryError_Is(t *testing.T) {
	err1 := &QueryError{Code: CodeQueryFailed, Message: "boom"}
	err2 := &QueryError{Code: CodeQueryFailed, Message: "different message"}
	err3 := &QueryError{Code: CodeInvalidRequest, Message: "invalid"}
	stdErr := fmt.Errorf("standard error")

	assert.True(t, err1.Is(err2), "errors with same code should match")
	assert.False(t, err1.Is(err3), "errors with different codes should not match")
	assert.False(t, err1.Is(stdErr), "query error should not match standard error")
}

func TestQueryFailure(t *testing.T) {
	err := QueryFailure(CodeQueryFailed, "SYNTAX_ERROR: line 1:8")
	assert.Equal(t, "SYNTAX_ERROR: line 1:8", GetMessage(err))
	assert.True(t, IsQueryFailure(err))

	cancelled := QueryFailure(CodeQueryCancelled, "cancelled by user")
	assert.True(t, IsQueryFailure(cancelled))
	assert.False(t, err.Is(cancelled))
}

func TestQueryFailure_UnknownReason(t *testing.T) {
	err := QueryFailure(CodeQueryFailed, "")
	assert.Equal(t, UnknownFailureReason, err.Message)
	assert.Equal(t, "Unknown error", GetMessage(err))
}

func TestIsInvalidRequest(t *testing.T) {
	assert.True(t, IsInvalidRequest(ErrEmptyDatabase))
	assert.True(t, IsInvalidRequest(ErrEmptyQuery))
	assert.True(t, IsInvalidRequest(Wrap(fmt.Errorf("bad"), CodeInvalidRequest, "wrapped")))
	assert.False(t, IsInvalidRequest(fmt.Errorf("plain error")))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeQueryFailed, GetCode(New(CodeQueryFailed, "boom")))
	assert.Equal(t, CodeInternal, GetCode(fmt.Errorf("plain error")))
}

func TestGetMessage(t *testing.T) {
	assert.Equal(t, "boom", GetMessage(New(CodeQueryFailed, "boom")))
	assert.Equal(t, "plain error", GetMessage(fmt.Errorf("plain error")))
}
