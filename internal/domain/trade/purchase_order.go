package trade

import (
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderItem represents a line item in a purchase order
type PurchaseOrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name      string          `gorm:"type:varchar(200);not null"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,0);not null"` // whole yen
	SortOrder int             `gorm:"not null;default:0"`
	CreatedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItem) TableName() string {
	return "purchase_order_items"
}

// NewPurchaseOrderItem creates a new purchase order line item.
// The amount is quantity times unit price rounded half up to a yen.
func NewPurchaseOrderItem(orderID uuid.UUID, name string, quantity decimal.Decimal, unitPrice valueobject.Money) (*PurchaseOrderItem, error) {
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
	return &PurchaseOrderItem{
		ID:        uuid.New(),
		OrderID:   orderID,
		Name:      name,
		Quantity:  quantity,
		UnitPrice: unitPrice.Amount(),
		Amount:    lineAmount(quantity, unitPrice.Amount()),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Update changes the item fields and recomputes its amount
func (i *PurchaseOrderItem) Update(name string, quantity decimal.Decimal, unitPrice valueobject.Money) error {
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
func (i *PurchaseOrderItem) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyJPY(i.Amount)
}

// PurchaseOrder represents a purchase order aggregate root.
// Orders start life in ORDERED status and either get delivered or
// cancelled.
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	OrderNumber    string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID     uuid.UUID           `gorm:"type:uuid;not null;index"`
	SupplierName   string              `gorm:"type:varchar(200);not null"`
	OrderDate      time.Time           `gorm:"type:date;not null"`
	ExpectedDate   *time.Time          `gorm:"type:date"`
	Items          []PurchaseOrderItem `gorm:"foreignKey:OrderID;references:ID"`
	SubtotalAmount decimal.Decimal     `gorm:"type:decimal(18,0);not null;default:0"`
	TaxRate        decimal.Decimal     `gorm:"type:decimal(5,2);not null;default:10"`
	TaxAmount      decimal.Decimal     `gorm:"type:decimal(18,0);not null;default:0"`
	TotalAmount    decimal.Decimal     `gorm:"type:decimal(18,0);not null;default:0"`
	Status         PurchaseOrderStatus `gorm:"type:varchar(20);not null;default:'ORDERED'"`
	Notes          string              `gorm:"type:text"`
	DeliveredAt    *time.Time          `gorm:"index"`
	CancelledAt    *time.Time
	CancelReason   string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// NewPurchaseOrder creates a new purchase order in ORDERED status
func NewPurchaseOrder(orderNumber string, supplierID uuid.UUID, supplierName string, orderDate time.Time) (*PurchaseOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if supplierName == "" {
		return nil, shared.NewDomainError("INVALID_SUPPLIER_NAME", "Supplier name cannot be empty")
	}
	if orderDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_ORDER_DATE", "Order date cannot be empty")
	}

	order := &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		SupplierID:        supplierID,
		SupplierName:      supplierName,
		OrderDate:         orderDate,
		Items:             make([]PurchaseOrderItem, 0),
		SubtotalAmount:    decimal.Zero,
		TaxRate:           DefaultTaxRate,
		TaxAmount:         decimal.Zero,
		TotalAmount:       decimal.Zero,
		Status:            PurchaseOrderStatusOrdered,
	}

	order.AddDomainEvent(NewPurchaseOrderCreatedEvent(order))

	return order, nil
}

// AddItem adds a new line item to the order
// Only allowed in ORDERED status
func (o *PurchaseOrder) AddItem(name string, quantity decimal.Decimal, unitPrice valueobject.Money) (*PurchaseOrderItem, error) {
	if o.Status != PurchaseOrderStatusOrdered {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to a delivered or cancelled order")
	}

	item, err := NewPurchaseOrderItem(o.ID, name, quantity, unitPrice)
	if err != nil {
		return nil, err
	}
	item.SortOrder = len(o.Items)

	o.Items = append(o.Items, *item)
	o.recalculateTotals()
	o.Touch()
	o.IncrementVersion()

	return &o.Items[len(o.Items)-1], nil
}

// UpdateItem updates an existing line item
// Only allowed in ORDERED status
func (o *PurchaseOrder) UpdateItem(itemID uuid.UUID, name string, quantity decimal.Decimal, unitPrice valueobject.Money) error {
	if o.Status != PurchaseOrderStatusOrdered {
		return shared.NewDomainError("INVALID_STATE", "Cannot update items in a delivered or cancelled order")
	}

	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			if err := o.Items[idx].Update(name, quantity, unitPrice); err != nil {
				return err
			}
			o.recalculateTotals()
			o.Touch()
			o.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
}

// RemoveItem removes a line item from the order
// Only allowed in ORDERED status
func (o *PurchaseOrder) RemoveItem(itemID uuid.UUID) error {
	if o.Status != PurchaseOrderStatusOrdered {
		return shared.NewDomainError("INVALID_STATE", "Cannot remove items from a delivered or cancelled order")
	}

	for idx, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			for i := range o.Items {
				o.Items[i].SortOrder = i
			}
			o.recalculateTotals()
			o.Touch()
			o.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
}

// ReplaceItems replaces all line items at once
// Only allowed in ORDERED status
func (o *PurchaseOrder) ReplaceItems(items []PurchaseOrderItem) error {
	if o.Status != PurchaseOrderStatusOrdered {
		return shared.NewDomainError("INVALID_STATE", "Cannot replace items in a delivered or cancelled order")
	}

	for i := range items {
		items[i].OrderID = o.ID
		items[i].SortOrder = i
	}
	o.Items = items
	o.recalculateTotals()
	o.Touch()
	o.IncrementVersion()

	return nil
}

// SetTaxRate sets the consumption tax rate (percentage) and recomputes totals
// Only allowed in ORDERED status
func (o *PurchaseOrder) SetTaxRate(rate decimal.Decimal) error {
	if o.Status != PurchaseOrderStatusOrdered {
		return shared.NewDomainError("INVALID_STATE", "Cannot change tax rate of a delivered or cancelled order")
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_TAX_RATE", "Tax rate must be between 0 and 100")
	}

	o.TaxRate = rate
	o.recalculateTotals()
	o.Touch()
	o.IncrementVersion()

	return nil
}

// SetExpectedDate sets the expected delivery date
func (o *PurchaseOrder) SetExpectedDate(expected *time.Time) error {
	if expected != nil && expected.Before(o.OrderDate) {
		return shared.NewDomainError("INVALID_EXPECTED_DATE", "Expected date cannot be before order date")
	}

	o.ExpectedDate = expected
	o.Touch()
	o.IncrementVersion()

	return nil
}

// SetNotes sets free-form notes
func (o *PurchaseOrder) SetNotes(notes string) {
	o.Notes = notes
	o.Touch()
	o.IncrementVersion()
}

// MarkDelivered transitions the order from ORDERED to DELIVERED
func (o *PurchaseOrder) MarkDelivered() error {
	if !o.Status.CanTransitionTo(PurchaseOrderStatusDelivered) {
		return NewInvalidTransitionError("PurchaseOrder", o.Status.String(), PurchaseOrderStatusDelivered.String())
	}
	if len(o.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot deliver an order without items")
	}

	from := o.Status
	now := time.Now()
	o.Status = PurchaseOrderStatusDelivered
	o.DeliveredAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewPurchaseOrderStatusChangedEvent(o, from, PurchaseOrderStatusDelivered))

	return nil
}

// Cancel cancels the order. Allowed only in ORDERED status.
func (o *PurchaseOrder) Cancel(reason string) error {
	if !o.Status.CanTransitionTo(PurchaseOrderStatusCancelled) {
		return NewInvalidTransitionError("PurchaseOrder", o.Status.String(), PurchaseOrderStatusCancelled.String())
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	from := o.Status
	now := time.Now()
	o.Status = PurchaseOrderStatusCancelled
	o.CancelledAt = &now
	o.CancelReason = reason
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewPurchaseOrderStatusChangedEvent(o, from, PurchaseOrderStatusCancelled))

	return nil
}

// recalculateTotals recomputes subtotal, tax and total from the line items
func (o *PurchaseOrder) recalculateTotals() {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.Amount)
	}
	o.SubtotalAmount = subtotal
	o.TaxAmount = taxAmount(subtotal, o.TaxRate)
	o.TotalAmount = o.SubtotalAmount.Add(o.TaxAmount)
}

// RecalculateTotals recomputes the totals from current lines
func (o *PurchaseOrder) RecalculateTotals() {
	o.recalculateTotals()
}

// GetSubtotalMoney returns the subtotal as Money
func (o *PurchaseOrder) GetSubtotalMoney() valueobject.Money {
	return valueobject.NewMoneyJPY(o.SubtotalAmount)
}

// GetTaxAmountMoney returns the tax amount as Money
func (o *PurchaseOrder) GetTaxAmountMoney() valueobject.Money {
	return valueobject.NewMoneyJPY(o.TaxAmount)
}

// GetTotalAmountMoney returns the total amount as Money
func (o *PurchaseOrder) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyJPY(o.TotalAmount)
}

// ItemCount returns the number of line items
func (o *PurchaseOrder) ItemCount() int {
	return len(o.Items)
}

// IsOrdered returns true if the order is still open
func (o *PurchaseOrder) IsOrdered() bool {
	return o.Status == PurchaseOrderStatusOrdered
}

// IsTerminal returns true if the order is delivered or cancelled
func (o *PurchaseOrder) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// CanModify returns true if lines and tax rate can still change
func (o *PurchaseOrder) CanModify() bool {
	return o.IsOrdered()
}

// GetItem returns a line item by its ID
func (o *PurchaseOrder) GetItem(itemID uuid.UUID) *PurchaseOrderItem {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx]
		}
	}
	return nil
}
