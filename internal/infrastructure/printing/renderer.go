package printing

import (
	"context"
	"fmt"
	"time"
)

// Render error codes
const (
	ErrCodeInvalidHTML   = "INVALID_HTML"
	ErrCodeRenderTimeout = "RENDER_TIMEOUT"
	ErrCodeRenderFailed  = "RENDER_FAILED"
)

// RenderError describes a PDF rendering failure
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}

// RenderRequest carries the HTML to turn into a PDF
type RenderRequest struct {
	HTML    string
	Title   string
	Timeout time.Duration
}

// RenderResult is the rendered PDF
type RenderResult struct {
	PDFData        []byte
	RenderDuration time.Duration
}

// PDFRenderer renders HTML to PDF
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}
