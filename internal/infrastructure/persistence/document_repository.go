package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/trade"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDocumentRepository implements DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// FindByID finds a document by its ID, line items included
func (r *GormDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Document, error) {
	var doc trade.Document
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound.WithMessage("Document not found")
		}
		return nil, err
	}
	return &doc, nil
}

// FindByNumber finds a document by its document number
func (r *GormDocumentRepository) FindByNumber(ctx context.Context, documentNumber string) (*trade.Document, error) {
	var doc trade.Document
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("document_number = ?", documentNumber).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound.WithMessage("Document not found")
		}
		return nil, err
	}
	return &doc, nil
}

// FindAll finds all documents matching the filter
func (r *GormDocumentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.Document, error) {
	var docs []trade.Document
	query := r.applyFilter(r.db.WithContext(ctx).Model(&trade.Document{}).Preload("Items"), filter)

	if err := query.Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// FindByCustomer finds documents for a given customer
func (r *GormDocumentRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]trade.Document, error) {
	var docs []trade.Document
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&trade.Document{}).
			Preload("Items").
			Where("customer_id = ?", customerID),
		filter,
	)

	if err := query.Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// Save creates or updates a document and replaces its line items in a
// single transaction. Updates are version-checked.
func (r *GormDocumentRepository) Save(ctx context.Context, doc *trade.Document) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing trade.Document
		err := tx.Select("version").First(&existing, "id = ?", doc.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return translateError(tx.Create(doc).Error)
		}
		if err != nil {
			return err
		}
		if existing.Version >= doc.Version {
			return shared.ErrConcurrencyConflict
		}

		updates := map[string]interface{}{
			"document_number": doc.DocumentNumber,
			"type":            doc.Type,
			"customer_id":     doc.CustomerID,
			"customer_name":   doc.CustomerName,
			"issue_date":      doc.IssueDate,
			"due_date":        doc.DueDate,
			"subtotal_amount": doc.SubtotalAmount,
			"tax_rate":        doc.TaxRate,
			"tax_amount":      doc.TaxAmount,
			"total_amount":    doc.TotalAmount,
			"status":          doc.Status,
			"notes":           doc.Notes,
			"issued_at":       doc.IssuedAt,
			"paid_at":         doc.PaidAt,
			"cancelled_at":    doc.CancelledAt,
			"cancel_reason":   doc.CancelReason,
			"version":         doc.Version,
			"updated_at":      doc.UpdatedAt,
		}
		result := tx.Model(&trade.Document{}).
			Where("id = ? AND version = ?", doc.ID, existing.Version).
			Updates(updates)
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		return r.replaceItems(tx, doc)
	})
}

// replaceItems synchronizes the stored line items with the aggregate
func (r *GormDocumentRepository) replaceItems(tx *gorm.DB, doc *trade.Document) error {
	keepIDs := make([]uuid.UUID, 0, len(doc.Items))
	for i := range doc.Items {
		keepIDs = append(keepIDs, doc.Items[i].ID)
	}

	del := tx.Where("document_id = ?", doc.ID)
	if len(keepIDs) > 0 {
		del = del.Where("id NOT IN ?", keepIDs)
	}
	if err := del.Delete(&trade.DocumentItem{}).Error; err != nil {
		return err
	}

	for i := range doc.Items {
		doc.Items[i].DocumentID = doc.ID
		if err := tx.Save(&doc.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a document and its line items
func (r *GormDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&trade.DocumentItem{}, "document_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&trade.Document{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// CountByCustomer counts documents referencing a customer
func (r *GormDocumentRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&trade.Document{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Count counts documents matching the filter
func (r *GormDocumentRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&trade.Document{})
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// NextDocumentNumber issues the next sequential document number for the
// given issue date. Format: DOC-YYYYMMDD-NNNN (e.g., DOC-20240131-0007)
func (r *GormDocumentRepository) NextDocumentNumber(ctx context.Context, issueDate time.Time) (string, error) {
	prefix := fmt.Sprintf("DOC-%s-", issueDate.Format("20060102"))

	// Get the highest document number for this date
	var last trade.Document
	err := r.db.WithContext(ctx).
		Model(&trade.Document{}).
		Where("document_number LIKE ?", prefix+"%").
		Order("document_number DESC").
		First(&last).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && last.DocumentNumber != "" {
		parts := strings.Split(last.DocumentNumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	documentNumber := fmt.Sprintf("%s%04d", prefix, nextNum)

	// Verify uniqueness
	exists, err := r.existsByNumber(ctx, documentNumber)
	if err != nil {
		return "", err
	}
	if exists {
		for i := 0; i < 100; i++ {
			nextNum++
			documentNumber = fmt.Sprintf("%s%04d", prefix, nextNum)
			exists, err = r.existsByNumber(ctx, documentNumber)
			if err != nil {
				return "", err
			}
			if !exists {
				break
			}
		}
	}

	return documentNumber, nil
}

func (r *GormDocumentRepository) existsByNumber(ctx context.Context, documentNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&trade.Document{}).
		Where("document_number = ?", documentNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies filter options to the query
func (r *GormDocumentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Paginates() {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	// Apply ordering
	orderBy := ValidateSortField(filter.OrderBy, DocumentSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormDocumentRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	// Apply search
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("document_number ILIKE ? OR customer_name ILIKE ?",
			searchPattern, searchPattern)
	}

	// Apply additional filters
	for key, value := range filter.Filters {
		switch key {
		case "type":
			query = query.Where("type = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "issue_date_from":
			query = query.Where("issue_date >= ?", value)
		case "issue_date_to":
			query = query.Where("issue_date <= ?", value)
		}
	}

	return query
}

// Ensure GormDocumentRepository implements DocumentRepository
var _ trade.DocumentRepository = (*GormDocumentRepository)(nil)
