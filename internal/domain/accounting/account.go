package accounting

import (
	"strings"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountType represents the fundamental classification of an account
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// IsValid checks if the account type is a known value
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// NormalBalance returns which side of an entry increases this account
func (t AccountType) NormalBalance() EntrySide {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return EntrySideDebit
	default:
		return EntrySideCredit
	}
}

// EntrySide distinguishes the debit and credit sides of a journal line
type EntrySide string

const (
	EntrySideDebit  EntrySide = "debit"
	EntrySideCredit EntrySide = "credit"
)

// Account represents an account in the chart of accounts
type Account struct {
	shared.BaseAggregateRoot
	Code     string      `gorm:"type:varchar(20);not null;uniqueIndex"`
	Name     string      `gorm:"type:varchar(100);not null"`
	Type     AccountType `gorm:"type:varchar(20);not null;index"`
	ParentID *uuid.UUID  `gorm:"type:uuid;index"`
	IsActive bool        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Account) TableName() string {
	return "accounts"
}

// NewAccount creates a new account
func NewAccount(code, name string, accountType AccountType) (*Account, error) {
	if err := validateAccountCode(code); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Account name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_NAME", "Account name cannot exceed 100 characters")
	}
	if !accountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_TYPE", "Account type must be ASSET, LIABILITY, EQUITY, REVENUE or EXPENSE")
	}

	return &Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.TrimSpace(code),
		Name:              name,
		Type:              accountType,
		IsActive:          true,
	}, nil
}

// Update updates the account name
func (a *Account) Update(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Account name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Account name cannot exceed 100 characters")
	}

	a.Name = name
	a.Touch()
	a.IncrementVersion()

	return nil
}

// SetParent places the account under a parent account
func (a *Account) SetParent(parentID *uuid.UUID) error {
	if parentID != nil && *parentID == a.ID {
		return shared.NewDomainError("INVALID_PARENT", "Account cannot be its own parent")
	}

	a.ParentID = parentID
	a.Touch()
	a.IncrementVersion()

	return nil
}

// Deactivate marks the account as inactive.
// Inactive accounts cannot appear on new journal entries.
func (a *Account) Deactivate() error {
	if !a.IsActive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Account is already inactive")
	}

	a.IsActive = false
	a.Touch()
	a.IncrementVersion()

	return nil
}

// Activate marks the account as active again
func (a *Account) Activate() error {
	if a.IsActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Account is already active")
	}

	a.IsActive = true
	a.Touch()
	a.IncrementVersion()

	return nil
}

func validateAccountCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Account code cannot be empty")
	}
	if len(code) > 20 {
		return shared.NewDomainError("INVALID_CODE", "Account code cannot exceed 20 characters")
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return shared.NewDomainError("INVALID_CODE", "Account code must be numeric")
		}
	}
	return nil
}
