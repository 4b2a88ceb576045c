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

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByID finds an order by its ID, line items included
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	var order trade.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByNumber finds an order by its order number
func (r *GormPurchaseOrderRepository) FindByNumber(ctx context.Context, orderNumber string) (*trade.PurchaseOrder, error) {
	var order trade.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("order_number = ?", orderNumber).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindAll finds all orders matching the filter
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.PurchaseOrder, error) {
	var orders []trade.PurchaseOrder
	query := r.applyFilter(r.db.WithContext(ctx).Model(&trade.PurchaseOrder{}).Preload("Items"), filter)

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindBySupplier finds orders for a given supplier
func (r *GormPurchaseOrderRepository) FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]trade.PurchaseOrder, error) {
	var orders []trade.PurchaseOrder
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&trade.PurchaseOrder{}).
			Preload("Items").
			Where("supplier_id = ?", supplierID),
		filter,
	)

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Save creates or updates an order and replaces its line items in a
// single transaction. Updates are version-checked.
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, order *trade.PurchaseOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing trade.PurchaseOrder
		err := tx.Select("version").First(&existing, "id = ?", order.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return translateError(tx.Create(order).Error)
		}
		if err != nil {
			return err
		}
		if existing.Version >= order.Version {
			return shared.ErrConcurrencyConflict
		}

		updates := map[string]interface{}{
			"order_number":    order.OrderNumber,
			"supplier_id":     order.SupplierID,
			"supplier_name":   order.SupplierName,
			"order_date":      order.OrderDate,
			"expected_date":   order.ExpectedDate,
			"subtotal_amount": order.SubtotalAmount,
			"tax_rate":        order.TaxRate,
			"tax_amount":      order.TaxAmount,
			"total_amount":    order.TotalAmount,
			"status":          order.Status,
			"notes":           order.Notes,
			"delivered_at":    order.DeliveredAt,
			"cancelled_at":    order.CancelledAt,
			"cancel_reason":   order.CancelReason,
			"version":         order.Version,
			"updated_at":      order.UpdatedAt,
		}
		result := tx.Model(&trade.PurchaseOrder{}).
			Where("id = ? AND version = ?", order.ID, existing.Version).
			Updates(updates)
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		return r.replaceItems(tx, order)
	})
}

// replaceItems synchronizes the stored line items with the aggregate
func (r *GormPurchaseOrderRepository) replaceItems(tx *gorm.DB, order *trade.PurchaseOrder) error {
	keepIDs := make([]uuid.UUID, 0, len(order.Items))
	for i := range order.Items {
		keepIDs = append(keepIDs, order.Items[i].ID)
	}

	del := tx.Where("order_id = ?", order.ID)
	if len(keepIDs) > 0 {
		del = del.Where("id NOT IN ?", keepIDs)
	}
	if err := del.Delete(&trade.PurchaseOrderItem{}).Error; err != nil {
		return err
	}

	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		if err := tx.Save(&order.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete removes an order and its line items
func (r *GormPurchaseOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&trade.PurchaseOrderItem{}, "order_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&trade.PurchaseOrder{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// CountBySupplier counts orders referencing a supplier
func (r *GormPurchaseOrderRepository) CountBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&trade.PurchaseOrder{}).
		Where("supplier_id = ?", supplierID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Count counts orders matching the filter
func (r *GormPurchaseOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&trade.PurchaseOrder{})
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// NextOrderNumber issues the next sequential order number for the given
// order date. Format: PO-YYYYMMDD-NNNN (e.g., PO-20240131-0003)
func (r *GormPurchaseOrderRepository) NextOrderNumber(ctx context.Context, orderDate time.Time) (string, error) {
	prefix := fmt.Sprintf("PO-%s-", orderDate.Format("20060102"))

	// Get the highest order number for this date
	var last trade.PurchaseOrder
	err := r.db.WithContext(ctx).
		Model(&trade.PurchaseOrder{}).
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number DESC").
		First(&last).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && last.OrderNumber != "" {
		parts := strings.Split(last.OrderNumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	orderNumber := fmt.Sprintf("%s%04d", prefix, nextNum)

	// Verify uniqueness
	exists, err := r.existsByNumber(ctx, orderNumber)
	if err != nil {
		return "", err
	}
	if exists {
		for i := 0; i < 100; i++ {
			nextNum++
			orderNumber = fmt.Sprintf("%s%04d", prefix, nextNum)
			exists, err = r.existsByNumber(ctx, orderNumber)
			if err != nil {
				return "", err
			}
			if !exists {
				break
			}
		}
	}

	return orderNumber, nil
}

func (r *GormPurchaseOrderRepository) existsByNumber(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&trade.PurchaseOrder{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies filter options to the query
func (r *GormPurchaseOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Paginates() {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	// Apply ordering
	orderBy := ValidateSortField(filter.OrderBy, PurchaseOrderSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormPurchaseOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	// Apply search
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("order_number ILIKE ? OR supplier_name ILIKE ?",
			searchPattern, searchPattern)
	}

	// Apply additional filters
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "supplier_id":
			query = query.Where("supplier_id = ?", value)
		case "order_date_from":
			query = query.Where("order_date >= ?", value)
		case "order_date_to":
			query = query.Where("order_date <= ?", value)
		}
	}

	return query
}

// Ensure GormPurchaseOrderRepository implements PurchaseOrderRepository
var _ trade.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
