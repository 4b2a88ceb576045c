package printing

import (
	"context"

	"github.com/backoffice/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// DocumentPrinter turns sales documents into PDFs
type DocumentPrinter struct {
	renderer PDFRenderer
	logger   *zap.Logger
}

// NewDocumentPrinter creates a new DocumentPrinter
func NewDocumentPrinter(renderer PDFRenderer, logger *zap.Logger) *DocumentPrinter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentPrinter{renderer: renderer, logger: logger}
}

// Print renders the document as a PDF
func (p *DocumentPrinter) Print(ctx context.Context, doc *trade.Document) ([]byte, error) {
	html, err := RenderDocumentHTML(doc)
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "template execution failed", err)
	}

	result, err := p.renderer.Render(ctx, &RenderRequest{
		HTML:  html,
		Title: doc.DocumentNumber,
	})
	if err != nil {
		return nil, err
	}

	p.logger.Debug("document printed",
		zap.String("document_number", doc.DocumentNumber),
		zap.Int("bytes", len(result.PDFData)))

	return result.PDFData, nil
}
