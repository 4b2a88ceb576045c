package trade

import (
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeDocument      = "Document"
	AggregateTypePurchaseOrder = "PurchaseOrder"
)

// Event type constants
const (
	EventTypeDocumentCreated            = "DocumentCreated"
	EventTypeDocumentStatusChanged      = "DocumentStatusChanged"
	EventTypePurchaseOrderCreated       = "PurchaseOrderCreated"
	EventTypePurchaseOrderStatusChanged = "PurchaseOrderStatusChanged"
)

// DocumentCreatedEvent is published when a new sales document is created
type DocumentCreatedEvent struct {
	shared.BaseDomainEvent
	DocumentID     uuid.UUID    `json:"document_id"`
	DocumentNumber string       `json:"document_number"`
	DocumentType   DocumentType `json:"document_type"`
	CustomerID     uuid.UUID    `json:"customer_id"`
}

// NewDocumentCreatedEvent creates a new DocumentCreatedEvent
func NewDocumentCreatedEvent(doc *Document) *DocumentCreatedEvent {
	return &DocumentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentCreated, AggregateTypeDocument, doc.ID),
		DocumentID:      doc.ID,
		DocumentNumber:  doc.DocumentNumber,
		DocumentType:    doc.Type,
		CustomerID:      doc.CustomerID,
	}
}

// DocumentStatusChangedEvent is published on every document status transition
type DocumentStatusChangedEvent struct {
	shared.BaseDomainEvent
	DocumentID     uuid.UUID       `json:"document_id"`
	DocumentNumber string          `json:"document_number"`
	FromStatus     DocumentStatus  `json:"from_status"`
	ToStatus       DocumentStatus  `json:"to_status"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// NewDocumentStatusChangedEvent creates a new DocumentStatusChangedEvent
func NewDocumentStatusChangedEvent(doc *Document, from, to DocumentStatus) *DocumentStatusChangedEvent {
	return &DocumentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentStatusChanged, AggregateTypeDocument, doc.ID),
		DocumentID:      doc.ID,
		DocumentNumber:  doc.DocumentNumber,
		FromStatus:      from,
		ToStatus:        to,
		TotalAmount:     doc.TotalAmount,
	}
}

// PurchaseOrderCreatedEvent is published when a new purchase order is created
type PurchaseOrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	SupplierID  uuid.UUID `json:"supplier_id"`
}

// NewPurchaseOrderCreatedEvent creates a new PurchaseOrderCreatedEvent
func NewPurchaseOrderCreatedEvent(order *PurchaseOrder) *PurchaseOrderCreatedEvent {
	return &PurchaseOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCreated, AggregateTypePurchaseOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		SupplierID:      order.SupplierID,
	}
}

// PurchaseOrderStatusChangedEvent is published on every order status transition
type PurchaseOrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID           `json:"order_id"`
	OrderNumber string              `json:"order_number"`
	FromStatus  PurchaseOrderStatus `json:"from_status"`
	ToStatus    PurchaseOrderStatus `json:"to_status"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
}

// NewPurchaseOrderStatusChangedEvent creates a new PurchaseOrderStatusChangedEvent
func NewPurchaseOrderStatusChangedEvent(order *PurchaseOrder, from, to PurchaseOrderStatus) *PurchaseOrderStatusChangedEvent {
	return &PurchaseOrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderStatusChanged, AggregateTypePurchaseOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		FromStatus:      from,
		ToStatus:        to,
		TotalAmount:     order.TotalAmount,
	}
}
