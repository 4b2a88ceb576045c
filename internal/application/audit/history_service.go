package audit

import (
	"context"
	"time"

	"github.com/backoffice/backend/internal/domain/audit"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// HistoryService exposes the operation history for reading. Writes go
// through the owning services; nothing here mutates records.
type HistoryService struct {
	historyRepo audit.OperationHistoryRepository
}

// NewHistoryService creates a new history service
func NewHistoryService(historyRepo audit.OperationHistoryRepository) *HistoryService {
	return &HistoryService{historyRepo: historyRepo}
}

// List retrieves history records matching the filter, newest first
func (s *HistoryService) List(ctx context.Context, filter HistoryListFilter) ([]OperationRecordResponse, int64, error) {
	// Set defaults
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}

	domainFilter := audit.HistoryFilter{
		EntityType: filter.EntityType,
		EntityID:   filter.EntityID,
		ActorID:    filter.ActorID,
		From:       filter.From,
		To:         filter.To,
	}

	page := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "occurred_at",
		OrderDir: "desc",
	}

	records, err := s.historyRepo.FindAll(ctx, domainFilter, page)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.historyRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToOperationRecordResponses(records), total, nil
}

// ListForEntity retrieves the full history of a single entity
func (s *HistoryService) ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID, filter HistoryListFilter) ([]OperationRecordResponse, int64, error) {
	filter.EntityType = entityType
	filter.EntityID = &entityID
	return s.List(ctx, filter)
}

// HistoryListFilter represents filter options for listing history
type HistoryListFilter struct {
	EntityType string     `form:"entity_type"`
	EntityID   *uuid.UUID `form:"entity_id"`
	ActorID    *uuid.UUID `form:"actor_id"`
	From       *time.Time `form:"from"`
	To         *time.Time `form:"to"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
}

// OperationRecordResponse represents a history record in API responses
type OperationRecordResponse struct {
	ID         uuid.UUID             `json:"id"`
	OccurredAt time.Time             `json:"occurred_at"`
	ActorID    *uuid.UUID            `json:"actor_id,omitempty"`
	ActorName  string                `json:"actor_name,omitempty"`
	EntityType string                `json:"entity_type"`
	EntityID   uuid.UUID             `json:"entity_id"`
	Action     audit.OperationAction `json:"action"`
	FromStatus string                `json:"from_status,omitempty"`
	ToStatus   string                `json:"to_status,omitempty"`
	Detail     string                `json:"detail,omitempty"`
	Summary    string                `json:"summary"`
}

// ToOperationRecordResponses converts domain records to response DTOs
func ToOperationRecordResponses(records []audit.OperationRecord) []OperationRecordResponse {
	responses := make([]OperationRecordResponse, 0, len(records))
	for i := range records {
		r := &records[i]
		responses = append(responses, OperationRecordResponse{
			ID:         r.ID,
			OccurredAt: r.OccurredAt,
			ActorID:    r.ActorID,
			ActorName:  r.ActorName,
			EntityType: r.EntityType,
			EntityID:   r.EntityID,
			Action:     r.Action,
			FromStatus: r.FromStatus,
			ToStatus:   r.ToStatus,
			Detail:     r.Detail,
			Summary:    r.Summary(),
		})
	}
	return responses
}
