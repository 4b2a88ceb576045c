package audit

import (
	"context"
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// HistoryFilter narrows an operation history listing
type HistoryFilter struct {
	EntityType string
	EntityID   *uuid.UUID
	ActorID    *uuid.UUID
	From       *time.Time
	To         *time.Time
}

// OperationHistoryRepository persists operation records.
// The history is append-only: no update or delete methods exist.
type OperationHistoryRepository interface {
	// Append stores a new record
	Append(ctx context.Context, record *OperationRecord) error

	// FindAll lists records matching the filter, newest first
	FindAll(ctx context.Context, filter HistoryFilter, page shared.Filter) ([]OperationRecord, error)

	// Count counts records matching the filter
	Count(ctx context.Context, filter HistoryFilter) (int64, error)
}
