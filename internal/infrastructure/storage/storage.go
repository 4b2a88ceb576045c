// Package storage provides object storage for archived document PDFs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	infraconfig "github.com/backoffice/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrObjectNotFound is returned when a storage key does not exist
var ErrObjectNotFound = errors.New("storage object not found")

// ObjectStorage stores and retrieves archived files
type ObjectStorage interface {
	// Put stores an object under the given key
	Put(ctx context.Context, key, contentType string, data []byte) error

	// Get retrieves an object by key
	Get(ctx context.Context, key string) ([]byte, error)

	// DownloadURL returns a time-limited URL for downloading the object
	DownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)

	// Delete removes an object
	Delete(ctx context.Context, key string) error
}

// NewFromConfig builds the storage backend named by the configuration
func NewFromConfig(cfg *infraconfig.StorageConfig, logger *zap.Logger) (ObjectStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}

	switch cfg.Provider {
	case "s3":
		return NewS3Storage(cfg, logger)
	case "stub", "":
		return NewStubStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Provider)
	}
}
