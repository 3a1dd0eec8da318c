// Package printing renders quote and order documents to PDF with a headless
// Chrome and stores them on disk or in S3-compatible object storage.
package printing

import (
	"context"
	"time"
)

// PaperSize names a supported page format
type PaperSize string

// Supported paper sizes
const (
	PaperA4     PaperSize = "A4"
	PaperLetter PaperSize = "LETTER"
)

// Dimensions returns width and height in millimeters
func (p PaperSize) Dimensions() (float64, float64) {
	switch p {
	case PaperLetter:
		return 215.9, 279.4
	default:
		return 210, 297
	}
}

// IsValid checks if the paper size is supported
func (p PaperSize) IsValid() bool {
	return p == PaperA4 || p == PaperLetter
}

// Margins in millimeters
type Margins struct {
	Top, Right, Bottom, Left float64
}

// DefaultMargins returns 15mm on every side
func DefaultMargins() Margins {
	return Margins{Top: 15, Right: 15, Bottom: 15, Left: 15}
}

// RenderRequest contains the parameters for rendering HTML to PDF
type RenderRequest struct {
	HTML       string
	Title      string
	PaperSize  PaperSize
	Landscape  bool
	Margins    Margins
	FooterHTML string
	// Timeout overrides the renderer default
	Timeout time.Duration
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	PDFData        []byte
	PageCount      int
	RenderDuration time.Duration
}

// PDFRenderer converts HTML into PDF
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// RenderError represents an error during rendering or storage
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes
const (
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
	ErrCodeTemplateFailed   = "TEMPLATE_FAILED"
	ErrCodeStorageFailed    = "STORAGE_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}
