package trade

import (
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentType represents the kind of sales document
type DocumentType string

const (
	DocumentTypeQuote   DocumentType = "quote"
	DocumentTypeInvoice DocumentType = "invoice"
	DocumentTypeReceipt DocumentType = "receipt"
)

// IsValid checks if the document type is a known value
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeQuote, DocumentTypeInvoice, DocumentTypeReceipt:
		return true
	}
	return false
}

// DocumentItem represents a line item on a sales document
type DocumentItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	DocumentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name       string          `gorm:"type:varchar(200);not null"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,0);not null"` // whole yen
	SortOrder  int             `gorm:"not null;default:0"`
	CreatedAt  time.Time       `gorm:"not null"`
	UpdatedAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentItem) TableName() string {
	return "document_items"
}

// NewDocumentItem creates a new document line item.
// The amount is quantity times unit price rounded half up to a yen.
func NewDocumentItem(documentID uuid.UUID, name string, quantity decimal.Decimal, unitPrice valueobject.Money) (*DocumentItem, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ITEM_NAME", "Item name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_ITEM_NAME", "Item name cannot exceed 200 characters")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.Amount().IsNegative() {
		return nil, shared.NewDomainError("INVALID_UNIT_PRICE", "Unit price cannot be negative")
	}

	now := time.Now()
	return &DocumentItem{
		ID:         uuid.New(),
		DocumentID: documentID,
		Name:       name,
		Quantity:   quantity,
		UnitPrice:  unitPrice.Amount(),
		Amount:     lineAmount(quantity, unitPrice.Amount()),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Update changes the item fields and recomputes its amount
func (i *DocumentItem) Update(name string, quantity decimal.Decimal, unitPrice valueobject.Money) error {
	if name == "" {
		return shared.NewDomainError("INVALID_ITEM_NAME", "Item name cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.Amount().IsNegative() {
		return shared.NewDomainError("INVALID_UNIT_PRICE", "Unit price cannot be negative")
	}

	i.Name = name
	i.Quantity = quantity
	i.UnitPrice = unitPrice.Amount()
	i.Amount = lineAmount(quantity, unitPrice.Amount())
	i.UpdatedAt = time.Now()

	return nil
}

// GetAmountMoney returns the line amount as Money
func (i *DocumentItem) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyJPY(i.Amount)
}

// Document represents a sales document aggregate root (quote,
// invoice or receipt). It manages the lifecycle from draft through
// issue and payment.
type Document struct {
	shared.BaseAggregateRoot
	DocumentNumber string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Type           DocumentType    `gorm:"type:varchar(20);not null"`
	CustomerID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerName   string          `gorm:"type:varchar(200);not null"`
	IssueDate      time.Time       `gorm:"type:date;not null"`
	DueDate        *time.Time      `gorm:"type:date"`
	Items          []DocumentItem  `gorm:"foreignKey:DocumentID;references:ID"`
	SubtotalAmount decimal.Decimal `gorm:"type:decimal(18,0);not null;default:0"`
	TaxRate        decimal.Decimal `gorm:"type:decimal(5,2);not null;default:10"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(18,0);not null;default:0"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,0);not null;default:0"`
	Status         DocumentStatus  `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	Notes          string          `gorm:"type:text"`
	IssuedAt       *time.Time      `gorm:"index"`
	PaidAt         *time.Time
	CancelledAt    *time.Time
	CancelReason   string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Document) TableName() string {
	return "documents"
}

// NewDocument creates a new sales document in draft status
func NewDocument(documentNumber string, docType DocumentType, customerID uuid.UUID, customerName string, issueDate time.Time) (*Document, error) {
	if documentNumber == "" {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_NUMBER", "Document number cannot be empty")
	}
	if len(documentNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_NUMBER", "Document number cannot exceed 50 characters")
	}
	if !docType.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_TYPE", "Document type must be 'quote', 'invoice' or 'receipt'")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if customerName == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	if issueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_ISSUE_DATE", "Issue date cannot be empty")
	}

	doc := &Document{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DocumentNumber:    documentNumber,
		Type:              docType,
		CustomerID:        customerID,
		CustomerName:      customerName,
		IssueDate:         issueDate,
		Items:             make([]DocumentItem, 0),
		SubtotalAmount:    decimal.Zero,
		TaxRate:           DefaultTaxRate,
		TaxAmount:         decimal.Zero,
		TotalAmount:       decimal.Zero,
		Status:            DocumentStatusDraft,
	}

	doc.AddDomainEvent(NewDocumentCreatedEvent(doc))

	return doc, nil
}

// AddItem adds a new line item to the document
// Only allowed in DRAFT status
func (d *Document) AddItem(name string, quantity decimal.Decimal, unitPrice valueobject.Money) (*DocumentItem, error) {
	if d.Status != DocumentStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to a non-draft document")
	}

	item, err := NewDocumentItem(d.ID, name, quantity, unitPrice)
	if err != nil {
		return nil, err
	}
	item.SortOrder = len(d.Items)

	d.Items = append(d.Items, *item)
	d.recalculateTotals()
	d.Touch()
	d.IncrementVersion()

	return &d.Items[len(d.Items)-1], nil
}

// UpdateItem updates an existing line item
// Only allowed in DRAFT status
func (d *Document) UpdateItem(itemID uuid.UUID, name string, quantity decimal.Decimal, unitPrice valueobject.Money) error {
	if d.Status != DocumentStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot update items in a non-draft document")
	}

	for idx := range d.Items {
		if d.Items[idx].ID == itemID {
			if err := d.Items[idx].Update(name, quantity, unitPrice); err != nil {
				return err
			}
			d.recalculateTotals()
			d.Touch()
			d.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Document item not found")
}

// RemoveItem removes a line item from the document
// Only allowed in DRAFT status
func (d *Document) RemoveItem(itemID uuid.UUID) error {
	if d.Status != DocumentStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot remove items from a non-draft document")
	}

	for idx, item := range d.Items {
		if item.ID == itemID {
			d.Items = append(d.Items[:idx], d.Items[idx+1:]...)
			for i := range d.Items {
				d.Items[i].SortOrder = i
			}
			d.recalculateTotals()
			d.Touch()
			d.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Document item not found")
}

// ReplaceItems replaces all line items at once
// Only allowed in DRAFT status
func (d *Document) ReplaceItems(items []DocumentItem) error {
	if d.Status != DocumentStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot replace items in a non-draft document")
	}

	for i := range items {
		items[i].DocumentID = d.ID
		items[i].SortOrder = i
	}
	d.Items = items
	d.recalculateTotals()
	d.Touch()
	d.IncrementVersion()

	return nil
}

// SetTaxRate sets the consumption tax rate (percentage) and recomputes totals
// Only allowed in DRAFT status
func (d *Document) SetTaxRate(rate decimal.Decimal) error {
	if d.Status != DocumentStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot change tax rate of a non-draft document")
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_TAX_RATE", "Tax rate must be between 0 and 100")
	}

	d.TaxRate = rate
	d.recalculateTotals()
	d.Touch()
	d.IncrementVersion()

	return nil
}

// SetDueDate sets the payment due date
func (d *Document) SetDueDate(dueDate *time.Time) error {
	if dueDate != nil && dueDate.Before(d.IssueDate) {
		return shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before issue date")
	}

	d.DueDate = dueDate
	d.Touch()
	d.IncrementVersion()

	return nil
}

// SetNotes sets free-form notes
func (d *Document) SetNotes(notes string) {
	d.Notes = notes
	d.Touch()
	d.IncrementVersion()
}

// Issue transitions the document from DRAFT to ISSUED
// Requires at least one line item
func (d *Document) Issue() error {
	if !d.Status.CanTransitionTo(DocumentStatusIssued) {
		return NewInvalidTransitionError("Document", d.Status.String(), DocumentStatusIssued.String())
	}
	if len(d.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot issue a document without items")
	}

	from := d.Status
	now := time.Now()
	d.Status = DocumentStatusIssued
	d.IssuedAt = &now
	d.UpdatedAt = now
	d.IncrementVersion()

	d.AddDomainEvent(NewDocumentStatusChangedEvent(d, from, DocumentStatusIssued))

	return nil
}

// MarkPaid transitions the document from ISSUED to PAID
func (d *Document) MarkPaid() error {
	if !d.Status.CanTransitionTo(DocumentStatusPaid) {
		return NewInvalidTransitionError("Document", d.Status.String(), DocumentStatusPaid.String())
	}

	from := d.Status
	now := time.Now()
	d.Status = DocumentStatusPaid
	d.PaidAt = &now
	d.UpdatedAt = now
	d.IncrementVersion()

	d.AddDomainEvent(NewDocumentStatusChangedEvent(d, from, DocumentStatusPaid))

	return nil
}

// Cancel cancels the document. Allowed from DRAFT or ISSUED status.
func (d *Document) Cancel(reason string) error {
	if !d.Status.CanTransitionTo(DocumentStatusCancelled) {
		return NewInvalidTransitionError("Document", d.Status.String(), DocumentStatusCancelled.String())
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	from := d.Status
	now := time.Now()
	d.Status = DocumentStatusCancelled
	d.CancelledAt = &now
	d.CancelReason = reason
	d.UpdatedAt = now
	d.IncrementVersion()

	d.AddDomainEvent(NewDocumentStatusChangedEvent(d, from, DocumentStatusCancelled))

	return nil
}

// recalculateTotals recomputes subtotal, tax and total from the line
// items. Each line amount is already a whole yen; tax is rounded half
// up at the yen. Recomputing an unchanged document is a no-op.
func (d *Document) recalculateTotals() {
	subtotal := decimal.Zero
	for _, item := range d.Items {
		subtotal = subtotal.Add(item.Amount)
	}
	d.SubtotalAmount = subtotal
	d.TaxAmount = taxAmount(subtotal, d.TaxRate)
	d.TotalAmount = d.SubtotalAmount.Add(d.TaxAmount)
}

// RecalculateTotals recomputes the totals from current lines
func (d *Document) RecalculateTotals() {
	d.recalculateTotals()
}

// GetSubtotalMoney returns the subtotal as Money
func (d *Document) GetSubtotalMoney() valueobject.Money {
	return valueobject.NewMoneyJPY(d.SubtotalAmount)
}

// GetTaxAmountMoney returns the tax amount as Money
func (d *Document) GetTaxAmountMoney() valueobject.Money {
	return valueobject.NewMoneyJPY(d.TaxAmount)
}

// GetTotalAmountMoney returns the total amount as Money
func (d *Document) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyJPY(d.TotalAmount)
}

// ItemCount returns the number of line items
func (d *Document) ItemCount() int {
	return len(d.Items)
}

// IsDraft returns true if the document is in draft status
func (d *Document) IsDraft() bool {
	return d.Status == DocumentStatusDraft
}

// IsTerminal returns true if the document is paid or cancelled
func (d *Document) IsTerminal() bool {
	return d.Status.IsTerminal()
}

// CanModify returns true if lines and tax rate can still change
func (d *Document) CanModify() bool {
	return d.IsDraft()
}

// GetItem returns a line item by its ID
func (d *Document) GetItem(itemID uuid.UUID) *DocumentItem {
	for idx := range d.Items {
		if d.Items[idx].ID == itemID {
			return &d.Items[idx]
		}
	}
	return nil
}
