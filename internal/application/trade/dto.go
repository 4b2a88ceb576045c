package trade

import (
	"time"

	"github.com/backoffice/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Request DTOs
// =============================================================================

// CreateDocumentRequest represents a request to create a sales document
type CreateDocumentRequest struct {
	Type       string              `json:"type" binding:"required,oneof=quote invoice receipt"`
	CustomerID uuid.UUID           `json:"customer_id" binding:"required"`
	IssueDate  time.Time           `json:"issue_date" binding:"required"`
	DueDate    *time.Time          `json:"due_date"`
	TaxRate    *decimal.Decimal    `json:"tax_rate"`
	Notes      string              `json:"notes"`
	Items      []CreateItemRequest `json:"items" binding:"omitempty,dive"`
}

// UpdateDocumentRequest represents a request to update a draft document
type UpdateDocumentRequest struct {
	DueDate *time.Time       `json:"due_date"`
	TaxRate *decimal.Decimal `json:"tax_rate"`
	Notes   *string          `json:"notes"`
}

// CreateItemRequest represents a line item in a create or add request
type CreateItemRequest struct {
	Name      string          `json:"name" binding:"required,max=200"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
}

// UpdateItemRequest represents a request to update a line item
type UpdateItemRequest struct {
	Name      string          `json:"name" binding:"required,max=200"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
}

// CancelRequest carries the reason for cancelling a document or order
type CancelRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// CreatePurchaseOrderRequest represents a request to create a purchase order
type CreatePurchaseOrderRequest struct {
	SupplierID   uuid.UUID           `json:"supplier_id" binding:"required"`
	OrderDate    time.Time           `json:"order_date" binding:"required"`
	ExpectedDate *time.Time          `json:"expected_date"`
	TaxRate      *decimal.Decimal    `json:"tax_rate"`
	Notes        string              `json:"notes"`
	Items        []CreateItemRequest `json:"items" binding:"omitempty,dive"`
}

// UpdatePurchaseOrderRequest represents a request to update an order
type UpdatePurchaseOrderRequest struct {
	ExpectedDate *time.Time       `json:"expected_date"`
	TaxRate      *decimal.Decimal `json:"tax_rate"`
	Notes        *string          `json:"notes"`
}

// DocumentListFilter represents filter options for listing documents
type DocumentListFilter struct {
	Type       *trade.DocumentType   `form:"type" binding:"omitempty,oneof=quote invoice receipt"`
	Status     *trade.DocumentStatus `form:"status"`
	CustomerID *uuid.UUID            `form:"customer_id"`
	DateFrom   *time.Time            `form:"date_from"`
	DateTo     *time.Time            `form:"date_to"`
	Search     string                `form:"search"`
	Page       int                   `form:"page"`
	PageSize   int                   `form:"page_size"`
	OrderBy    string                `form:"order_by"`
	OrderDir   string                `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// PurchaseOrderListFilter represents filter options for listing orders
type PurchaseOrderListFilter struct {
	Status     *trade.PurchaseOrderStatus `form:"status"`
	SupplierID *uuid.UUID                 `form:"supplier_id"`
	DateFrom   *time.Time                 `form:"date_from"`
	DateTo     *time.Time                 `form:"date_to"`
	Search     string                     `form:"search"`
	Page       int                        `form:"page"`
	PageSize   int                        `form:"page_size"`
	OrderBy    string                     `form:"order_by"`
	OrderDir   string                     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// =============================================================================
// Response DTOs
// =============================================================================

// ItemResponse represents a line item in API responses
type ItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
	SortOrder int             `json:"sort_order"`
}

// DocumentResponse represents a sales document in API responses
type DocumentResponse struct {
	ID             uuid.UUID            `json:"id"`
	DocumentNumber string               `json:"document_number"`
	Type           trade.DocumentType   `json:"type"`
	CustomerID     uuid.UUID            `json:"customer_id"`
	CustomerName   string               `json:"customer_name"`
	IssueDate      time.Time            `json:"issue_date"`
	DueDate        *time.Time           `json:"due_date,omitempty"`
	Items          []ItemResponse       `json:"items"`
	SubtotalAmount decimal.Decimal      `json:"subtotal_amount"`
	TaxRate        decimal.Decimal      `json:"tax_rate"`
	TaxAmount      decimal.Decimal      `json:"tax_amount"`
	TotalAmount    decimal.Decimal      `json:"total_amount"`
	Status         trade.DocumentStatus `json:"status"`
	Notes          string               `json:"notes,omitempty"`
	IssuedAt       *time.Time           `json:"issued_at,omitempty"`
	PaidAt         *time.Time           `json:"paid_at,omitempty"`
	CancelledAt    *time.Time           `json:"cancelled_at,omitempty"`
	CancelReason   string               `json:"cancel_reason,omitempty"`
	Version        int                  `json:"version"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// DocumentListResponse represents a sales document in list responses
type DocumentListResponse struct {
	ID             uuid.UUID            `json:"id"`
	DocumentNumber string               `json:"document_number"`
	Type           trade.DocumentType   `json:"type"`
	CustomerName   string               `json:"customer_name"`
	IssueDate      time.Time            `json:"issue_date"`
	TotalAmount    decimal.Decimal      `json:"total_amount"`
	Status         trade.DocumentStatus `json:"status"`
	CreatedAt      time.Time            `json:"created_at"`
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID             uuid.UUID                 `json:"id"`
	OrderNumber    string                    `json:"order_number"`
	SupplierID     uuid.UUID                 `json:"supplier_id"`
	SupplierName   string                    `json:"supplier_name"`
	OrderDate      time.Time                 `json:"order_date"`
	ExpectedDate   *time.Time                `json:"expected_date,omitempty"`
	Items          []ItemResponse            `json:"items"`
	SubtotalAmount decimal.Decimal           `json:"subtotal_amount"`
	TaxRate        decimal.Decimal           `json:"tax_rate"`
	TaxAmount      decimal.Decimal           `json:"tax_amount"`
	TotalAmount    decimal.Decimal           `json:"total_amount"`
	Status         trade.PurchaseOrderStatus `json:"status"`
	Notes          string                    `json:"notes,omitempty"`
	DeliveredAt    *time.Time                `json:"delivered_at,omitempty"`
	CancelledAt    *time.Time                `json:"cancelled_at,omitempty"`
	CancelReason   string                    `json:"cancel_reason,omitempty"`
	Version        int                       `json:"version"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

// PurchaseOrderListResponse represents a purchase order in list responses
type PurchaseOrderListResponse struct {
	ID           uuid.UUID                 `json:"id"`
	OrderNumber  string                    `json:"order_number"`
	SupplierName string                    `json:"supplier_name"`
	OrderDate    time.Time                 `json:"order_date"`
	TotalAmount  decimal.Decimal           `json:"total_amount"`
	Status       trade.PurchaseOrderStatus `json:"status"`
	CreatedAt    time.Time                 `json:"created_at"`
}

// =============================================================================
// Mappers
// =============================================================================

// ToDocumentResponse converts a domain document to a response DTO
func ToDocumentResponse(d *trade.Document) DocumentResponse {
	items := make([]ItemResponse, 0, len(d.Items))
	for i := range d.Items {
		item := &d.Items[i]
		items = append(items, ItemResponse{
			ID:        item.ID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Amount:    item.Amount,
			SortOrder: item.SortOrder,
		})
	}

	return DocumentResponse{
		ID:             d.ID,
		DocumentNumber: d.DocumentNumber,
		Type:           d.Type,
		CustomerID:     d.CustomerID,
		CustomerName:   d.CustomerName,
		IssueDate:      d.IssueDate,
		DueDate:        d.DueDate,
		Items:          items,
		SubtotalAmount: d.SubtotalAmount,
		TaxRate:        d.TaxRate,
		TaxAmount:      d.TaxAmount,
		TotalAmount:    d.TotalAmount,
		Status:         d.Status,
		Notes:          d.Notes,
		IssuedAt:       d.IssuedAt,
		PaidAt:         d.PaidAt,
		CancelledAt:    d.CancelledAt,
		CancelReason:   d.CancelReason,
		Version:        d.Version,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// ToDocumentListResponses converts domain documents to list response DTOs
func ToDocumentListResponses(documents []trade.Document) []DocumentListResponse {
	responses := make([]DocumentListResponse, 0, len(documents))
	for i := range documents {
		d := &documents[i]
		responses = append(responses, DocumentListResponse{
			ID:             d.ID,
			DocumentNumber: d.DocumentNumber,
			Type:           d.Type,
			CustomerName:   d.CustomerName,
			IssueDate:      d.IssueDate,
			TotalAmount:    d.TotalAmount,
			Status:         d.Status,
			CreatedAt:      d.CreatedAt,
		})
	}
	return responses
}

// ToPurchaseOrderResponse converts a domain purchase order to a response DTO
func ToPurchaseOrderResponse(o *trade.PurchaseOrder) PurchaseOrderResponse {
	items := make([]ItemResponse, 0, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		items = append(items, ItemResponse{
			ID:        item.ID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Amount:    item.Amount,
			SortOrder: item.SortOrder,
		})
	}

	return PurchaseOrderResponse{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		SupplierID:     o.SupplierID,
		SupplierName:   o.SupplierName,
		OrderDate:      o.OrderDate,
		ExpectedDate:   o.ExpectedDate,
		Items:          items,
		SubtotalAmount: o.SubtotalAmount,
		TaxRate:        o.TaxRate,
		TaxAmount:      o.TaxAmount,
		TotalAmount:    o.TotalAmount,
		Status:         o.Status,
		Notes:          o.Notes,
		DeliveredAt:    o.DeliveredAt,
		CancelledAt:    o.CancelledAt,
		CancelReason:   o.CancelReason,
		Version:        o.Version,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

// ToPurchaseOrderListResponses converts domain orders to list response DTOs
func ToPurchaseOrderListResponses(orders []trade.PurchaseOrder) []PurchaseOrderListResponse {
	responses := make([]PurchaseOrderListResponse, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		responses = append(responses, PurchaseOrderListResponse{
			ID:           o.ID,
			OrderNumber:  o.OrderNumber,
			SupplierName: o.SupplierName,
			OrderDate:    o.OrderDate,
			TotalAmount:  o.TotalAmount,
			Status:       o.Status,
			CreatedAt:    o.CreatedAt,
		})
	}
	return responses
}
