package trade

import (
	"context"
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DocumentRepository defines the interface for sales document persistence
type DocumentRepository interface {
	// FindByID finds a document by its ID, line items included
	FindByID(ctx context.Context, id uuid.UUID) (*Document, error)

	// FindByNumber finds a document by its document number
	FindByNumber(ctx context.Context, documentNumber string) (*Document, error)

	// FindAll finds all documents matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Document, error)

	// FindByCustomer finds documents for a given customer
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]Document, error)

	// Save creates or updates a document and replaces its line items
	// in a single transaction. Updates are version-checked and return
	// shared.ErrConcurrencyConflict on a stale write.
	Save(ctx context.Context, doc *Document) error

	// Delete removes a document and its line items
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByCustomer counts documents referencing a customer
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)

	// Count counts documents matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// NextDocumentNumber issues the next sequential document number
	// for the given issue date, e.g. DOC-20240131-0007
	NextDocumentNumber(ctx context.Context, issueDate time.Time) (string, error)
}

// PurchaseOrderRepository defines the interface for purchase order persistence
type PurchaseOrderRepository interface {
	// FindByID finds an order by its ID, line items included
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindByNumber finds an order by its order number
	FindByNumber(ctx context.Context, orderNumber string) (*PurchaseOrder, error)

	// FindAll finds all orders matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]PurchaseOrder, error)

	// FindBySupplier finds orders for a given supplier
	FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]PurchaseOrder, error)

	// Save creates or updates an order and replaces its line items
	// in a single transaction. Updates are version-checked and return
	// shared.ErrConcurrencyConflict on a stale write.
	Save(ctx context.Context, order *PurchaseOrder) error

	// Delete removes an order and its line items
	Delete(ctx context.Context, id uuid.UUID) error

	// CountBySupplier counts orders referencing a supplier
	CountBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error)

	// Count counts orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// NextOrderNumber issues the next sequential order number for the
	// given order date, e.g. PO-20240131-0003
	NextOrderNumber(ctx context.Context, orderDate time.Time) (string, error)
}
