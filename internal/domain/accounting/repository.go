package accounting

import (
	"context"
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountRepository defines the interface for account persistence
type AccountRepository interface {
	// FindByID finds an account by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// FindByCode finds an account by its code
	FindByCode(ctx context.Context, code string) (*Account, error)

	// FindByIDs finds multiple accounts by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Account, error)

	// FindAll finds all accounts matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Account, error)

	// FindByType finds accounts of a given type
	FindByType(ctx context.Context, accountType AccountType, filter shared.Filter) ([]Account, error)

	// Save creates or updates an account
	Save(ctx context.Context, account *Account) error

	// ExistsByCode checks if an account with the given code exists
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// Count counts accounts matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// JournalEntryRepository defines the interface for journal entry persistence
type JournalEntryRepository interface {
	// FindByID finds an entry by its ID, lines included
	FindByID(ctx context.Context, id uuid.UUID) (*JournalEntry, error)

	// FindAll finds all entries matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]JournalEntry, error)

	// FindByDateRange finds entries dated within [from, to]
	FindByDateRange(ctx context.Context, from, to time.Time, filter shared.Filter) ([]JournalEntry, error)

	// FindByAccount finds entries with at least one line on the account
	FindByAccount(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]JournalEntry, error)

	// Save persists an entry and its lines in a single transaction
	Save(ctx context.Context, entry *JournalEntry) error

	// Delete removes an entry and its lines
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByAccount counts entries with at least one line on the account
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)

	// Count counts entries matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// NextEntryNumber issues the next sequential entry number for the
	// given entry date, e.g. JE-20240131-0002
	NextEntryNumber(ctx context.Context, entryDate time.Time) (string, error)

	// TrialBalance aggregates per-account debit and credit totals over
	// a date range
	TrialBalance(ctx context.Context, from, to time.Time) ([]TrialBalanceRow, error)
}
