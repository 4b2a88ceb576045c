package accounting

import (
	"fmt"
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JournalLine is a single debit or credit on a journal entry.
// Exactly one of DebitAmount and CreditAmount is non-zero.
type JournalLine struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	EntryID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountCode  string          `gorm:"type:varchar(20);not null"`
	AccountName  string          `gorm:"type:varchar(100);not null"`
	DebitAmount  decimal.Decimal `gorm:"type:decimal(18,0);not null;default:0"`
	CreditAmount decimal.Decimal `gorm:"type:decimal(18,0);not null;default:0"`
	Memo         string          `gorm:"type:varchar(500)"`
	SortOrder    int             `gorm:"not null;default:0"`
	CreatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (JournalLine) TableName() string {
	return "journal_lines"
}

// Side returns which side of the entry this line sits on
func (l *JournalLine) Side() EntrySide {
	if l.DebitAmount.IsPositive() {
		return EntrySideDebit
	}
	return EntrySideCredit
}

// NewDebitLine creates a journal line debiting the given account
func NewDebitLine(entryID uuid.UUID, account *Account, amount decimal.Decimal, memo string) (*JournalLine, error) {
	return newJournalLine(entryID, account, amount, decimal.Zero, memo)
}

// NewCreditLine creates a journal line crediting the given account
func NewCreditLine(entryID uuid.UUID, account *Account, amount decimal.Decimal, memo string) (*JournalLine, error) {
	return newJournalLine(entryID, account, decimal.Zero, amount, memo)
}

func newJournalLine(entryID uuid.UUID, account *Account, debit, credit decimal.Decimal, memo string) (*JournalLine, error) {
	if account == nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Account is required")
	}
	if !account.IsActive {
		return nil, shared.NewDomainError("INACTIVE_ACCOUNT", fmt.Sprintf("Account %s is inactive", account.Code))
	}
	if debit.IsNegative() || credit.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Journal amounts cannot be negative")
	}
	if debit.IsPositive() == credit.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "A journal line must be debit-only or credit-only")
	}

	return &JournalLine{
		ID:           uuid.New(),
		EntryID:      entryID,
		AccountID:    account.ID,
		AccountCode:  account.Code,
		AccountName:  account.Name,
		DebitAmount:  debit,
		CreditAmount: credit,
		Memo:         memo,
		CreatedAt:    time.Now(),
	}, nil
}

// JournalEntry is a double-entry bookkeeping record.
// An entry is only valid when its debit and credit totals are equal.
type JournalEntry struct {
	shared.BaseAggregateRoot
	EntryNumber string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	EntryDate   time.Time       `gorm:"type:date;not null;index"`
	Description string          `gorm:"type:varchar(500);not null"`
	Lines       []JournalLine   `gorm:"foreignKey:EntryID;references:ID"`
	DebitTotal  decimal.Decimal `gorm:"type:decimal(18,0);not null;default:0"`
	CreditTotal decimal.Decimal `gorm:"type:decimal(18,0);not null;default:0"`
}

// TableName returns the table name for GORM
func (JournalEntry) TableName() string {
	return "journal_entries"
}

// NewJournalEntry assembles and validates a journal entry.
// The lines must already carry the entry's debits and credits; the
// constructor rejects empty or unbalanced entries.
func NewJournalEntry(entryNumber string, entryDate time.Time, description string, lines []JournalLine) (*JournalEntry, error) {
	if entryNumber == "" {
		return nil, shared.NewDomainError("INVALID_ENTRY_NUMBER", "Entry number cannot be empty")
	}
	if entryDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_ENTRY_DATE", "Entry date cannot be empty")
	}
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot be empty")
	}

	entry := &JournalEntry{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		EntryNumber:       entryNumber,
		EntryDate:         entryDate,
		Description:       description,
	}

	for i := range lines {
		lines[i].EntryID = entry.ID
		lines[i].SortOrder = i
	}
	entry.Lines = lines
	entry.recalculateTotals()

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	entry.AddDomainEvent(NewJournalEntryPostedEvent(entry))

	return entry, nil
}

// Validate checks the double-entry invariants: at least one line,
// every line debit-only or credit-only with a non-negative amount,
// and debit total equal to credit total.
func (e *JournalEntry) Validate() error {
	if len(e.Lines) == 0 {
		return shared.NewDomainError("NO_LINES", "Journal entry must have at least one line")
	}

	for _, line := range e.Lines {
		if line.DebitAmount.IsNegative() || line.CreditAmount.IsNegative() {
			return shared.NewDomainError("INVALID_AMOUNT", "Journal amounts cannot be negative")
		}
		if line.DebitAmount.IsPositive() == line.CreditAmount.IsPositive() {
			return shared.NewDomainError("INVALID_AMOUNT", "A journal line must be debit-only or credit-only")
		}
	}

	if !e.DebitTotal.Equal(e.CreditTotal) {
		return NewUnbalancedEntryError(e.DebitTotal, e.CreditTotal)
	}

	return nil
}

func (e *JournalEntry) recalculateTotals() {
	debit := decimal.Zero
	credit := decimal.Zero
	for _, line := range e.Lines {
		debit = debit.Add(line.DebitAmount)
		credit = credit.Add(line.CreditAmount)
	}
	e.DebitTotal = debit
	e.CreditTotal = credit
}

// IsBalanced reports whether debits equal credits
func (e *JournalEntry) IsBalanced() bool {
	return e.DebitTotal.Equal(e.CreditTotal)
}

// LineCount returns the number of lines on the entry
func (e *JournalEntry) LineCount() int {
	return len(e.Lines)
}

// NewUnbalancedEntryError reports the failed balance check with both totals
func NewUnbalancedEntryError(debitTotal, creditTotal decimal.Decimal) *shared.DomainError {
	return shared.NewDomainError("UNBALANCED_JOURNAL_ENTRY",
		fmt.Sprintf("Journal entry is not balanced: debit total %s does not equal credit total %s",
			debitTotal.String(), creditTotal.String()))
}
