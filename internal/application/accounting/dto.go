package accounting

import (
	"time"

	"github.com/backoffice/backend/internal/domain/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Request DTOs
// =============================================================================

// CreateAccountRequest represents a request to create an account
type CreateAccountRequest struct {
	Code     string     `json:"code" binding:"required,max=20"`
	Name     string     `json:"name" binding:"required,max=100"`
	Type     string     `json:"type" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	ParentID *uuid.UUID `json:"parent_id"`
}

// UpdateAccountRequest represents a request to update an account
type UpdateAccountRequest struct {
	Name     *string    `json:"name" binding:"omitempty,max=100"`
	ParentID *uuid.UUID `json:"parent_id"`
}

// AccountListFilter represents filter options for listing accounts
type AccountListFilter struct {
	Type     *accounting.AccountType `form:"type" binding:"omitempty,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	IsActive *bool                   `form:"is_active"`
	Search   string                  `form:"search"`
	Page     int                     `form:"page"`
	PageSize int                     `form:"page_size"`
	OrderBy  string                  `form:"order_by"`
	OrderDir string                  `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CreateJournalEntryRequest represents a request to post a journal entry
type CreateJournalEntryRequest struct {
	EntryDate   time.Time                  `json:"entry_date" binding:"required"`
	Description string                     `json:"description" binding:"required,max=500"`
	Lines       []CreateJournalLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// CreateJournalLineRequest represents one debit or credit line
type CreateJournalLineRequest struct {
	AccountCode  string          `json:"account_code" binding:"required,max=20"`
	DebitAmount  decimal.Decimal `json:"debit_amount"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
	Memo         string          `json:"memo" binding:"max=500"`
}

// JournalEntryListFilter represents filter options for listing entries
type JournalEntryListFilter struct {
	AccountID *uuid.UUID `form:"account_id"`
	DateFrom  *time.Time `form:"date_from"`
	DateTo    *time.Time `form:"date_to"`
	Search    string     `form:"search"`
	Page      int        `form:"page"`
	PageSize  int        `form:"page_size"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// TrialBalanceRequest selects the reporting period
type TrialBalanceRequest struct {
	From time.Time `form:"from" binding:"required"`
	To   time.Time `form:"to" binding:"required"`
}

// =============================================================================
// Response DTOs
// =============================================================================

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID            uuid.UUID              `json:"id"`
	Code          string                 `json:"code"`
	Name          string                 `json:"name"`
	Type          accounting.AccountType `json:"type"`
	NormalBalance accounting.EntrySide   `json:"normal_balance"`
	ParentID      *uuid.UUID             `json:"parent_id,omitempty"`
	IsActive      bool                   `json:"is_active"`
	Version       int                    `json:"version"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// JournalLineResponse represents a journal line in API responses
type JournalLineResponse struct {
	ID           uuid.UUID            `json:"id"`
	AccountID    uuid.UUID            `json:"account_id"`
	AccountCode  string               `json:"account_code"`
	AccountName  string               `json:"account_name"`
	Side         accounting.EntrySide `json:"side"`
	DebitAmount  decimal.Decimal      `json:"debit_amount"`
	CreditAmount decimal.Decimal      `json:"credit_amount"`
	Memo         string               `json:"memo,omitempty"`
	SortOrder    int                  `json:"sort_order"`
}

// JournalEntryResponse represents a journal entry in API responses
type JournalEntryResponse struct {
	ID          uuid.UUID             `json:"id"`
	EntryNumber string                `json:"entry_number"`
	EntryDate   time.Time             `json:"entry_date"`
	Description string                `json:"description"`
	Lines       []JournalLineResponse `json:"lines"`
	DebitTotal  decimal.Decimal       `json:"debit_total"`
	CreditTotal decimal.Decimal       `json:"credit_total"`
	CreatedAt   time.Time             `json:"created_at"`
}

// JournalEntryListResponse represents a journal entry in list responses
type JournalEntryListResponse struct {
	ID          uuid.UUID       `json:"id"`
	EntryNumber string          `json:"entry_number"`
	EntryDate   time.Time       `json:"entry_date"`
	Description string          `json:"description"`
	DebitTotal  decimal.Decimal `json:"debit_total"`
	LineCount   int             `json:"line_count"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TrialBalanceRowResponse represents one account's totals in the report
type TrialBalanceRowResponse struct {
	AccountID   uuid.UUID              `json:"account_id"`
	AccountCode string                 `json:"account_code"`
	AccountName string                 `json:"account_name"`
	AccountType accounting.AccountType `json:"account_type"`
	DebitTotal  decimal.Decimal        `json:"debit_total"`
	CreditTotal decimal.Decimal        `json:"credit_total"`
	Balance     decimal.Decimal        `json:"balance"`
}

// TrialBalanceResponse represents the trial balance report
type TrialBalanceResponse struct {
	From        time.Time                 `json:"from"`
	To          time.Time                 `json:"to"`
	Rows        []TrialBalanceRowResponse `json:"rows"`
	DebitTotal  decimal.Decimal           `json:"debit_total"`
	CreditTotal decimal.Decimal           `json:"credit_total"`
	IsBalanced  bool                      `json:"is_balanced"`
}

// =============================================================================
// Mappers
// =============================================================================

// ToAccountResponse converts a domain account to a response DTO
func ToAccountResponse(a *accounting.Account) AccountResponse {
	return AccountResponse{
		ID:            a.ID,
		Code:          a.Code,
		Name:          a.Name,
		Type:          a.Type,
		NormalBalance: a.Type.NormalBalance(),
		ParentID:      a.ParentID,
		IsActive:      a.IsActive,
		Version:       a.Version,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// ToAccountResponses converts domain accounts to response DTOs
func ToAccountResponses(accounts []accounting.Account) []AccountResponse {
	responses := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		responses = append(responses, ToAccountResponse(&accounts[i]))
	}
	return responses
}

// ToJournalEntryResponse converts a domain entry to a response DTO
func ToJournalEntryResponse(e *accounting.JournalEntry) JournalEntryResponse {
	lines := make([]JournalLineResponse, 0, len(e.Lines))
	for i := range e.Lines {
		l := &e.Lines[i]
		lines = append(lines, JournalLineResponse{
			ID:           l.ID,
			AccountID:    l.AccountID,
			AccountCode:  l.AccountCode,
			AccountName:  l.AccountName,
			Side:         l.Side(),
			DebitAmount:  l.DebitAmount,
			CreditAmount: l.CreditAmount,
			Memo:         l.Memo,
			SortOrder:    l.SortOrder,
		})
	}

	return JournalEntryResponse{
		ID:          e.ID,
		EntryNumber: e.EntryNumber,
		EntryDate:   e.EntryDate,
		Description: e.Description,
		Lines:       lines,
		DebitTotal:  e.DebitTotal,
		CreditTotal: e.CreditTotal,
		CreatedAt:   e.CreatedAt,
	}
}

// ToJournalEntryListResponses converts domain entries to list response DTOs
func ToJournalEntryListResponses(entries []accounting.JournalEntry) []JournalEntryListResponse {
	responses := make([]JournalEntryListResponse, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		responses = append(responses, JournalEntryListResponse{
			ID:          e.ID,
			EntryNumber: e.EntryNumber,
			EntryDate:   e.EntryDate,
			Description: e.Description,
			DebitTotal:  e.DebitTotal,
			LineCount:   e.LineCount(),
			CreatedAt:   e.CreatedAt,
		})
	}
	return responses
}

// ToTrialBalanceResponse converts the domain report to a response DTO
func ToTrialBalanceResponse(tb accounting.TrialBalance) TrialBalanceResponse {
	rows := make([]TrialBalanceRowResponse, 0, len(tb.Rows))
	for _, row := range tb.Rows {
		rows = append(rows, TrialBalanceRowResponse{
			AccountID:   row.AccountID,
			AccountCode: row.AccountCode,
			AccountName: row.AccountName,
			AccountType: row.AccountType,
			DebitTotal:  row.DebitTotal,
			CreditTotal: row.CreditTotal,
			Balance:     row.Balance(),
		})
	}

	return TrialBalanceResponse{
		From:        tb.From,
		To:          tb.To,
		Rows:        rows,
		DebitTotal:  tb.DebitTotal,
		CreditTotal: tb.CreditTotal,
		IsBalanced:  tb.IsBalanced(),
	}
}
