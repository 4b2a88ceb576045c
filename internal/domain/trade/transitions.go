package trade

import (
	"fmt"

	"github.com/backoffice/backend/internal/domain/shared"
)

// DocumentStatus represents the lifecycle state of a sales document
type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "DRAFT"
	DocumentStatusIssued    DocumentStatus = "ISSUED"
	DocumentStatusPaid      DocumentStatus = "PAID"
	DocumentStatusCancelled DocumentStatus = "CANCELLED"
)

// PurchaseOrderStatus represents the lifecycle state of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusOrdered   PurchaseOrderStatus = "ORDERED"
	PurchaseOrderStatusDelivered PurchaseOrderStatus = "DELIVERED"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "CANCELLED"
)

// documentTransitions is the single source of truth for legal document
// status changes. A status missing from the map is terminal.
var documentTransitions = map[DocumentStatus][]DocumentStatus{
	DocumentStatusDraft:  {DocumentStatusIssued, DocumentStatusCancelled},
	DocumentStatusIssued: {DocumentStatusPaid, DocumentStatusCancelled},
}

// purchaseOrderTransitions is the single source of truth for legal
// purchase order status changes.
var purchaseOrderTransitions = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	PurchaseOrderStatusOrdered: {PurchaseOrderStatusDelivered, PurchaseOrderStatusCancelled},
}

// IsValid checks if the status is a known DocumentStatus
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusDraft, DocumentStatusIssued, DocumentStatusPaid, DocumentStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of DocumentStatus
func (s DocumentStatus) String() string {
	return string(s)
}

// CanTransitionTo checks the transition table for a legal move
func (s DocumentStatus) CanTransitionTo(target DocumentStatus) bool {
	for _, allowed := range documentTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s DocumentStatus) IsTerminal() bool {
	return len(documentTransitions[s]) == 0
}

// IsValid checks if the status is a known PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusOrdered, PurchaseOrderStatusDelivered, PurchaseOrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PurchaseOrderStatus
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks the transition table for a legal move
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	for _, allowed := range purchaseOrderTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s PurchaseOrderStatus) IsTerminal() bool {
	return len(purchaseOrderTransitions[s]) == 0
}

// NewInvalidTransitionError builds the error returned for any illegal
// status change, naming both states
func NewInvalidTransitionError(entity, from, to string) *shared.DomainError {
	return shared.NewDomainError("INVALID_STATUS_TRANSITION",
		fmt.Sprintf("%s cannot transition from %s to %s", entity, from, to))
}
