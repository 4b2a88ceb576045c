package storage

import (
	"context"
	"path"
	"time"

	"go.uber.org/zap"
)

const pdfContentType = "application/pdf"

// DocumentArchive files rendered document PDFs under a key prefix
type DocumentArchive struct {
	store  ObjectStorage
	prefix string
	logger *zap.Logger
}

// NewDocumentArchive creates a new DocumentArchive
func NewDocumentArchive(store ObjectStorage, prefix string, logger *zap.Logger) *DocumentArchive {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentArchive{store: store, prefix: prefix, logger: logger}
}

// Key returns the storage key for a document number
func (a *DocumentArchive) Key(documentNumber string) string {
	return path.Join(a.prefix, documentNumber+".pdf")
}

// Store archives a rendered PDF and returns its storage key
func (a *DocumentArchive) Store(ctx context.Context, documentNumber string, pdf []byte) (string, error) {
	key := a.Key(documentNumber)
	if err := a.store.Put(ctx, key, pdfContentType, pdf); err != nil {
		return "", err
	}

	a.logger.Info("document archived",
		zap.String("document_number", documentNumber),
		zap.String("key", key),
		zap.Int("bytes", len(pdf)))
	return key, nil
}

// DownloadURL returns a time-limited URL for an archived PDF
func (a *DocumentArchive) DownloadURL(ctx context.Context, documentNumber string, expiresIn time.Duration) (string, time.Time, error) {
	return a.store.DownloadURL(ctx, a.Key(documentNumber), expiresIn)
}
