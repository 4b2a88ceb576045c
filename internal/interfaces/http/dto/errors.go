package dto

import (
	"net/http"
	"strings"
)

// API error codes, ERR_<CATEGORY>_<DESCRIPTION>. Handlers emit these in the
// error envelope; clients switch on them rather than on HTTP status.
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"
	ErrCodeValidationRange    = "ERR_VALIDATION_RANGE"
	ErrCodeValidationLength   = "ERR_VALIDATION_LENGTH"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"

	// Business rule violations: the request is well formed but the
	// operation is not allowed in the current state.
	ErrCodeInvalidState    = "ERR_INVALID_STATE"
	ErrCodeBusinessRule    = "ERR_BUSINESS_RULE"
	ErrCodeUnbalancedEntry = "ERR_UNBALANCED_ENTRY"
	ErrCodeReferenced      = "ERR_REFERENCED"

	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"

	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
	ErrCodeTooManyRequests = "ERR_TOO_MANY_REQUESTS"
)

// ErrorCodeHTTPStatus maps every API error code to its HTTP status.
// Validation and input codes are 400, business rule codes are 422.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,
	ErrCodeValidationLength:   http.StatusBadRequest,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeInvalidInput:       http.StatusBadRequest,
	ErrCodeInvalidJSON:        http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidState:    http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:    http.StatusUnprocessableEntity,
	ErrCodeUnbalancedEntry: http.StatusUnprocessableEntity,

	// Deleting a party that documents or orders still reference answers 400
	ErrCodeReferenced: http.StatusBadRequest,

	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeTooManyRequests: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unmapped domain validation codes (INVALID_*, MISSING_*, NO_*) map to
// 400 Bad Request; anything else unknown is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") || strings.HasPrefix(code, "MISSING_") || strings.HasPrefix(code, "NO_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping translates the codes raised by the domain layer
// into the API's standardized codes.
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":                 ErrCodeNotFound,
	"USER_NOT_FOUND":            ErrCodeNotFound,
	"ITEM_NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":            ErrCodeAlreadyExists,
	"INVALID_INPUT":             ErrCodeInvalidInput,
	"INVALID_STATE":             ErrCodeInvalidState,
	"INVALID_STATUS_TRANSITION": ErrCodeInvalidState,
	"ALREADY_ACTIVE":            ErrCodeInvalidState,
	"ALREADY_INACTIVE":          ErrCodeInvalidState,
	"PARTY_INACTIVE":            ErrCodeBusinessRule,
	"INACTIVE_ACCOUNT":          ErrCodeBusinessRule,
	"PARTY_REFERENCED":          ErrCodeReferenced,
	"UNBALANCED_JOURNAL_ENTRY":  ErrCodeUnbalancedEntry,
	"UNAUTHORIZED":              ErrCodeUnauthorized,
	"INVALID_CREDENTIALS":       ErrCodeUnauthorized,
	"ACCOUNT_DEACTIVATED":       ErrCodeUnauthorized,
	"TOKEN_EXPIRED":             ErrCodeTokenExpired,
	"TOKEN_INVALID":             ErrCodeTokenInvalid,
	"TOKEN_MAX_REFRESH":         ErrCodeTokenInvalid,
	"TOKEN_ERROR":               ErrCodeTokenInvalid,
	"FORBIDDEN":                 ErrCodeForbidden,
	"CANNOT_MODIFY_SELF":        ErrCodeForbidden,
	"CONCURRENCY_CONFLICT":      ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":          ErrCodeValidation,
	"BAD_REQUEST":               ErrCodeBadRequest,
	"INTERNAL_ERROR":            ErrCodeInternal,
	"PASSWORD_HASH_ERROR":       ErrCodeInternal,
}

// NormalizeErrorCode converts a legacy domain code to the API format.
// Codes already in the new format, and unknown codes, pass through as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
