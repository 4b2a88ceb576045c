package dto

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeUnknown, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeValidationRequired, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeBusinessRule, http.StatusUnprocessableEntity},
		{ErrCodeUnbalancedEntry, http.StatusUnprocessableEntity},
		{ErrCodeReferenced, http.StatusBadRequest},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeTooManyRequests, http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}

	t.Run("unmapped codes fall back by prefix", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, GetHTTPStatus("INVALID_SOMETHING"))
		assert.Equal(t, http.StatusBadRequest, GetHTTPStatus("MISSING_HEADERS"))
		assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus("UNKNOWN_CODE"))
	})
}

func TestNormalizeErrorCode(t *testing.T) {
	legacy := map[string]string{
		"NOT_FOUND":                 ErrCodeNotFound,
		"ALREADY_EXISTS":            ErrCodeAlreadyExists,
		"INVALID_INPUT":             ErrCodeInvalidInput,
		"INVALID_STATE":             ErrCodeInvalidState,
		"UNAUTHORIZED":              ErrCodeUnauthorized,
		"FORBIDDEN":                 ErrCodeForbidden,
		"CONCURRENCY_CONFLICT":      ErrCodeConcurrencyConflict,
		"UNBALANCED_JOURNAL_ENTRY":  ErrCodeUnbalancedEntry,
		"PARTY_REFERENCED":          ErrCodeReferenced,
		"INVALID_STATUS_TRANSITION": ErrCodeInvalidState,
		"VALIDATION_ERROR":          ErrCodeValidation,
		"BAD_REQUEST":               ErrCodeBadRequest,
		"INTERNAL_ERROR":            ErrCodeInternal,
	}

	for input, expected := range legacy {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, expected, NormalizeErrorCode(input))
		})
	}

	t.Run("ERR_ codes pass through", func(t *testing.T) {
		assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(ErrCodeNotFound))
		assert.Equal(t, ErrCodeValidation, NormalizeErrorCode(ErrCodeValidation))
	})

	t.Run("unknown codes pass through", func(t *testing.T) {
		assert.Equal(t, "CUSTOM_ERROR", NormalizeErrorCode("CUSTOM_ERROR"))
	})
}

// Every constant must resolve in the status map so no handler response ever
// falls back to the prefix heuristic.
func TestErrorCodeConstants(t *testing.T) {
	allCodes := []string{
		ErrCodeUnknown,
		ErrCodeInternal,
		ErrCodeValidation,
		ErrCodeValidationRequired,
		ErrCodeValidationFormat,
		ErrCodeValidationRange,
		ErrCodeValidationLength,
		ErrCodeUnauthorized,
		ErrCodeForbidden,
		ErrCodeTokenExpired,
		ErrCodeTokenInvalid,
		ErrCodeNotFound,
		ErrCodeAlreadyExists,
		ErrCodeConflict,
		ErrCodeConcurrencyConflict,
		ErrCodeInvalidState,
		ErrCodeBusinessRule,
		ErrCodeUnbalancedEntry,
		ErrCodeReferenced,
		ErrCodeBadRequest,
		ErrCodeInvalidInput,
		ErrCodeInvalidJSON,
		ErrCodeRateLimited,
		ErrCodeTooManyRequests,
	}

	for _, code := range allCodes {
		t.Run(code, func(t *testing.T) {
			status, ok := ErrorCodeHTTPStatus[code]
			assert.True(t, ok, "code %s missing from ErrorCodeHTTPStatus", code)
			assert.GreaterOrEqual(t, status, 400)
			assert.Contains(t, code, "ERR_")
		})
	}
}

func TestErrorResponses(t *testing.T) {
	t.Run("legacy code is normalized", func(t *testing.T) {
		resp := NewErrorResponse("NOT_FOUND", "Party not found")

		assert.False(t, resp.Success)
		assert.Nil(t, resp.Data)
		assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
		assert.Equal(t, "Party not found", resp.Error.Message)
		assert.NotZero(t, resp.Error.Timestamp)
	})

	t.Run("with request ID", func(t *testing.T) {
		resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Party not found", "req-123-456")

		assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
		assert.Equal(t, "req-123-456", resp.Error.RequestID)
	})

	t.Run("with validation details", func(t *testing.T) {
		details := []ValidationDetail{
			{Field: "email", Message: "Invalid email format"},
			{Field: "code", Message: "Party code is required"},
		}

		resp := NewValidationErrorResponse("Validation failed", "req-789", details)

		assert.Equal(t, ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "req-789", resp.Error.RequestID)
		assert.Len(t, resp.Error.Details, 2)
		assert.Equal(t, "email", resp.Error.Details[0].Field)
		assert.Equal(t, "Invalid email format", resp.Error.Details[0].Message)
	})

	t.Run("with help link", func(t *testing.T) {
		help := "https://docs.example.com/errors/auth"
		resp := NewErrorResponseWithHelp(ErrCodeUnauthorized, "Not authenticated", "req-001", help)

		assert.Equal(t, ErrCodeUnauthorized, resp.Error.Code)
		assert.Equal(t, help, resp.Error.Help)
	})

	t.Run("timestamp is set at construction", func(t *testing.T) {
		before := time.Now()
		resp := NewErrorResponse(ErrCodeInternal, "Server error")
		after := time.Now()

		assert.False(t, resp.Error.Timestamp.Before(before))
		assert.False(t, resp.Error.Timestamp.After(after))
	})
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Account not found", "req-test-123")

	data, err := json.Marshal(resp)
	assert.NoError(t, err)

	var decoded Response
	assert.NoError(t, json.Unmarshal(data, &decoded))

	assert.False(t, decoded.Success)
	assert.Equal(t, ErrCodeNotFound, decoded.Error.Code)
	assert.Equal(t, "Account not found", decoded.Error.Message)
	assert.Equal(t, "req-test-123", decoded.Error.RequestID)
}

func TestNewSuccessResponse(t *testing.T) {
	resp := NewSuccessResponse(map[string]string{"name": "test"})

	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
	assert.Nil(t, resp.Meta)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"item1", "item2"}, 100, 1, 10)

	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.Equal(t, int64(100), resp.Meta.Total)
	assert.Equal(t, 1, resp.Meta.Page)
	assert.Equal(t, 10, resp.Meta.PageSize)
	assert.Equal(t, 10, resp.Meta.TotalPages)
}

func TestSuccessMetaPagination(t *testing.T) {
	tests := []struct {
		name          string
		total         int64
		pageSize      int
		expectedPages int
		expectedSize  int
	}{
		{"exact pages", 100, 10, 10, 10},
		{"partial last page", 101, 10, 11, 10},
		{"empty result", 0, 10, 0, 10},
		{"under one page", 9, 10, 1, 10},
		{"boundary", 10, 10, 1, 10},
		{"just over boundary", 11, 10, 2, 10},
		{"zero page size defaults to 20", 100, 0, 5, 20},
		{"negative page size defaults to 20", 100, -1, 5, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewSuccessResponseWithMeta(nil, tt.total, 1, tt.pageSize)
			assert.Equal(t, tt.expectedPages, resp.Meta.TotalPages)
			assert.Equal(t, tt.expectedSize, resp.Meta.PageSize)
		})
	}
}
