package persistence

import (
	"context"

	"github.com/backoffice/backend/internal/domain/audit"
	"github.com/backoffice/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormOperationHistoryRepository implements OperationHistoryRepository using GORM.
// Records are append-only: rows are never updated or deleted.
type GormOperationHistoryRepository struct {
	db *gorm.DB
}

// NewGormOperationHistoryRepository creates a new GormOperationHistoryRepository
func NewGormOperationHistoryRepository(db *gorm.DB) *GormOperationHistoryRepository {
	return &GormOperationHistoryRepository{db: db}
}

// Append stores a new record
func (r *GormOperationHistoryRepository) Append(ctx context.Context, record *audit.OperationRecord) error {
	return translateError(r.db.WithContext(ctx).Create(record).Error)
}

// FindAll lists records matching the filter, newest first
func (r *GormOperationHistoryRepository) FindAll(ctx context.Context, filter audit.HistoryFilter, page shared.Filter) ([]audit.OperationRecord, error) {
	var records []audit.OperationRecord
	query := r.applyHistoryFilter(r.db.WithContext(ctx).Model(&audit.OperationRecord{}), filter)

	if page.Paginates() {
		query = query.Offset(page.Offset()).Limit(page.PageSize)
	}

	orderBy := ValidateSortField(page.OrderBy, OperationHistorySortFields, "occurred_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(page.OrderDir))

	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Count counts records matching the filter
func (r *GormOperationHistoryRepository) Count(ctx context.Context, filter audit.HistoryFilter) (int64, error) {
	var count int64
	query := r.applyHistoryFilter(r.db.WithContext(ctx).Model(&audit.OperationRecord{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyHistoryFilter applies the history filter to the query
func (r *GormOperationHistoryRepository) applyHistoryFilter(query *gorm.DB, filter audit.HistoryFilter) *gorm.DB {
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.From != nil {
		query = query.Where("occurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("occurred_at <= ?", *filter.To)
	}
	return query
}

// Ensure GormOperationHistoryRepository implements OperationHistoryRepository
var _ audit.OperationHistoryRepository = (*GormOperationHistoryRepository)(nil)
