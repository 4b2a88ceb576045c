package accounting

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/backoffice/backend/internal/domain/accounting"
	"github.com/backoffice/backend/internal/domain/audit"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const entityTypeJournalEntry = "journal_entry"

// JournalEntryService handles journal posting application logic
type JournalEntryService struct {
	entryRepo      accounting.JournalEntryRepository
	accountRepo    accounting.AccountRepository
	historyRepo    audit.OperationHistoryRepository
	eventPublisher shared.EventPublisher
	reportCache    shared.ReportCache
	logger         *zap.Logger
}

const (
	trialBalanceCachePrefix = "trial_balance:"
	trialBalanceCacheTTL    = 5 * time.Minute
)

// NewJournalEntryService creates a new journal entry service
func NewJournalEntryService(entryRepo accounting.JournalEntryRepository, accountRepo accounting.AccountRepository, historyRepo audit.OperationHistoryRepository) *JournalEntryService {
	return &JournalEntryService{
		entryRepo:   entryRepo,
		accountRepo: accountRepo,
		historyRepo: historyRepo,
		logger:      zap.NewNop(),
	}
}

// SetLogger sets the logger used for non-fatal failures
func (s *JournalEntryService) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *JournalEntryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetReportCache sets the cache used for trial balance reports.
// Cached reports are invalidated whenever an entry is posted or deleted.
func (s *JournalEntryService) SetReportCache(cache shared.ReportCache) {
	s.reportCache = cache
}

// Create posts a new journal entry. Lines reference accounts by code;
// unbalanced entries are rejected before anything is written.
func (s *JournalEntryService) Create(ctx context.Context, req CreateJournalEntryRequest, actor audit.Actor) (*JournalEntryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "journal_entry", "create",
		telemetry.WithAttribute("line_count", len(req.Lines)))
	defer span.End()

	lines := make([]accounting.JournalLine, 0, len(req.Lines))
	for _, lineReq := range req.Lines {
		account, err := s.accountRepo.FindByCode(ctx, lineReq.AccountCode)
		if err != nil {
			return nil, err
		}

		var line *accounting.JournalLine
		switch {
		case lineReq.DebitAmount.IsPositive() && lineReq.CreditAmount.IsZero():
			line, err = accounting.NewDebitLine(uuid.Nil, account, lineReq.DebitAmount, lineReq.Memo)
		case lineReq.CreditAmount.IsPositive() && lineReq.DebitAmount.IsZero():
			line, err = accounting.NewCreditLine(uuid.Nil, account, lineReq.CreditAmount, lineReq.Memo)
		default:
			return nil, shared.NewDomainError("INVALID_LINE",
				fmt.Sprintf("Line for account %s must carry either a debit or a credit amount", lineReq.AccountCode))
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}

	entryNumber, err := s.entryRepo.NextEntryNumber(ctx, req.EntryDate)
	if err != nil {
		return nil, err
	}

	entry, err := accounting.NewJournalEntry(entryNumber, req.EntryDate, req.Description, lines)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.entryRepo.Save(ctx, entry); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrEntryID, entry.ID.String(),
		telemetry.SpanAttrEntryNumber, entry.EntryNumber,
	)
	s.invalidateReports(ctx)

	s.recordHistory(ctx, entry.ID, audit.OperationActionCreated,
		fmt.Sprintf("journal entry %s posted: %s", entry.EntryNumber, entry.Description), actor)
	s.publishEvents(ctx, entry)

	response := ToJournalEntryResponse(entry)
	return &response, nil
}

// GetByID retrieves a journal entry by ID
func (s *JournalEntryService) GetByID(ctx context.Context, entryID uuid.UUID) (*JournalEntryResponse, error) {
	entry, err := s.entryRepo.FindByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	response := ToJournalEntryResponse(entry)
	return &response, nil
}

// List retrieves journal entries matching the filter
func (s *JournalEntryService) List(ctx context.Context, filter JournalEntryListFilter) ([]JournalEntryListResponse, int64, error) {
	// Set defaults
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "entry_date"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.AccountID != nil {
		domainFilter.Filters["account_id"] = *filter.AccountID
	}
	if filter.DateFrom != nil {
		domainFilter.Filters["date_from"] = *filter.DateFrom
	}
	if filter.DateTo != nil {
		domainFilter.Filters["date_to"] = *filter.DateTo
	}

	entries, err := s.entryRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.entryRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToJournalEntryListResponses(entries), total, nil
}

// Delete removes a journal entry
func (s *JournalEntryService) Delete(ctx context.Context, entryID uuid.UUID, actor audit.Actor) error {
	entry, err := s.entryRepo.FindByID(ctx, entryID)
	if err != nil {
		return err
	}

	if err := s.entryRepo.Delete(ctx, entryID); err != nil {
		return err
	}
	s.invalidateReports(ctx)

	s.recordHistory(ctx, entry.ID, audit.OperationActionDeleted,
		fmt.Sprintf("journal entry %s deleted", entry.EntryNumber), actor)
	return nil
}

// TrialBalance builds the per-account totals report for a period
func (s *JournalEntryService) TrialBalance(ctx context.Context, req TrialBalanceRequest) (*TrialBalanceResponse, error) {
	if req.To.Before(req.From) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Report end date cannot precede the start date")
	}

	cacheKey := fmt.Sprintf("%s%s:%s", trialBalanceCachePrefix,
		req.From.Format("20060102"), req.To.Format("20060102"))

	if s.reportCache != nil {
		if payload, hit, err := s.reportCache.Get(ctx, cacheKey); err == nil && hit {
			var cached TrialBalanceResponse
			if err := json.Unmarshal(payload, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	rows, err := s.entryRepo.TrialBalance(ctx, req.From, req.To)
	if err != nil {
		return nil, err
	}

	response := ToTrialBalanceResponse(accounting.NewTrialBalance(req.From, req.To, rows))

	if s.reportCache != nil {
		if payload, err := json.Marshal(response); err == nil {
			// Cache failures only cost the next caller a recompute
			_ = s.reportCache.Set(ctx, cacheKey, payload, trialBalanceCacheTTL)
		}
	}

	return &response, nil
}

func (s *JournalEntryService) invalidateReports(ctx context.Context) {
	if s.reportCache == nil {
		return
	}
	_ = s.reportCache.InvalidatePrefix(ctx, trialBalanceCachePrefix)
}

// recordHistory appends an operation history record. The business change is
// already persisted at this point, so a failed append is logged and swallowed.
func (s *JournalEntryService) recordHistory(ctx context.Context, entryID uuid.UUID, action audit.OperationAction, detail string, actor audit.Actor) {
	if s.historyRepo == nil {
		return
	}
	record, err := audit.NewOperationRecord(entityTypeJournalEntry, entryID, action, detail)
	if err == nil {
		err = s.historyRepo.Append(ctx, record.Attribute(actor))
	}
	if err != nil {
		s.logger.Warn("Failed to record operation history",
			zap.String("entity_type", entityTypeJournalEntry),
			zap.String("entity_id", entryID.String()),
			zap.Error(err))
	}
}

func (s *JournalEntryService) publishEvents(ctx context.Context, entry *accounting.JournalEntry) {
	if s.eventPublisher == nil {
		return
	}
	events := entry.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	entry.ClearDomainEvents()
}
