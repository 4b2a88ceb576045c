package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// PartySortFields contains allowed sort fields for parties
var PartySortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"code":       true,
	"name":       true,
	"kana":       true,
	"type":       true,
	"is_active":  true,
}

// DocumentSortFields contains allowed sort fields for sales documents
var DocumentSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"document_number": true,
	"type":            true,
	"customer_id":     true,
	"customer_name":   true,
	"issue_date":      true,
	"due_date":        true,
	"status":          true,
	"total_amount":    true,
	"issued_at":       true,
}

// PurchaseOrderSortFields contains allowed sort fields for purchase orders
var PurchaseOrderSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"order_number":  true,
	"supplier_id":   true,
	"supplier_name": true,
	"order_date":    true,
	"expected_date": true,
	"status":        true,
	"total_amount":  true,
	"delivered_at":  true,
}

// AccountSortFields contains allowed sort fields for accounts
var AccountSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"code":       true,
	"name":       true,
	"type":       true,
	"is_active":  true,
}

// JournalEntrySortFields contains allowed sort fields for journal entries
var JournalEntrySortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"entry_number": true,
	"entry_date":   true,
	"debit_total":  true,
	"credit_total": true,
}

// OperationHistorySortFields contains allowed sort fields for operation history
var OperationHistorySortFields = map[string]bool{
	"id":          true,
	"occurred_at": true,
	"entity_type": true,
	"action":      true,
	"actor_name":  true,
}

// UserSortFields contains allowed sort fields for users
var UserSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"username":      true,
	"display_name":  true,
	"role":          true,
	"is_active":     true,
	"last_login_at": true,
}
