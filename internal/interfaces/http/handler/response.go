package handler

import "github.com/backoffice/backend/internal/interfaces/http/dto"

// APIResponse is the typed response envelope used in OpenAPI annotations.
// At runtime handlers marshal dto.APIResponse; this generic mirror exists so
// swag can document the concrete data type per endpoint.
// @Description Standard API response wrapper with typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse documents the error envelope.
// @Description Standard error response
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// SuccessResponse documents a bare success envelope.
// @Description Simple success response without data
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// CountData documents count-only payloads.
// @Description Count data
type CountData struct {
	Count int64 `json:"count"`
}
