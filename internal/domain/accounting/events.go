package accounting

import (
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeJournalEntry = "JournalEntry"

// Event type constants
const (
	EventTypeJournalEntryPosted  = "JournalEntryPosted"
	EventTypeJournalEntryDeleted = "JournalEntryDeleted"
)

// JournalEntryPostedEvent is published when a balanced entry is posted
type JournalEntryPostedEvent struct {
	shared.BaseDomainEvent
	EntryID     uuid.UUID       `json:"entry_id"`
	EntryNumber string          `json:"entry_number"`
	EntryDate   time.Time       `json:"entry_date"`
	DebitTotal  decimal.Decimal `json:"debit_total"`
	CreditTotal decimal.Decimal `json:"credit_total"`
}

// NewJournalEntryPostedEvent creates a new JournalEntryPostedEvent
func NewJournalEntryPostedEvent(entry *JournalEntry) *JournalEntryPostedEvent {
	return &JournalEntryPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJournalEntryPosted, AggregateTypeJournalEntry, entry.ID),
		EntryID:         entry.ID,
		EntryNumber:     entry.EntryNumber,
		EntryDate:       entry.EntryDate,
		DebitTotal:      entry.DebitTotal,
		CreditTotal:     entry.CreditTotal,
	}
}

// JournalEntryDeletedEvent is published when an entry is removed
type JournalEntryDeletedEvent struct {
	shared.BaseDomainEvent
	EntryID     uuid.UUID `json:"entry_id"`
	EntryNumber string    `json:"entry_number"`
}

// NewJournalEntryDeletedEvent creates a new JournalEntryDeletedEvent
func NewJournalEntryDeletedEvent(entry *JournalEntry) *JournalEntryDeletedEvent {
	return &JournalEntryDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJournalEntryDeleted, AggregateTypeJournalEntry, entry.ID),
		EntryID:         entry.ID,
		EntryNumber:     entry.EntryNumber,
	}
}
