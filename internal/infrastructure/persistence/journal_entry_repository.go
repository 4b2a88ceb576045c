package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/backoffice/backend/internal/domain/accounting"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormJournalEntryRepository implements JournalEntryRepository using GORM
type GormJournalEntryRepository struct {
	db *gorm.DB
}

// NewGormJournalEntryRepository creates a new GormJournalEntryRepository
func NewGormJournalEntryRepository(db *gorm.DB) *GormJournalEntryRepository {
	return &GormJournalEntryRepository{db: db}
}

// FindByID finds an entry by its ID, lines included
func (r *GormJournalEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*accounting.JournalEntry, error) {
	var entry accounting.JournalEntry
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// FindAll finds all entries matching the filter
func (r *GormJournalEntryRepository) FindAll(ctx context.Context, filter shared.Filter) ([]accounting.JournalEntry, error) {
	var entries []accounting.JournalEntry
	query := r.applyFilter(r.db.WithContext(ctx).Model(&accounting.JournalEntry{}).Preload("Lines"), filter)

	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByDateRange finds entries dated within [from, to]
func (r *GormJournalEntryRepository) FindByDateRange(ctx context.Context, from, to time.Time, filter shared.Filter) ([]accounting.JournalEntry, error) {
	var entries []accounting.JournalEntry
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&accounting.JournalEntry{}).
			Preload("Lines").
			Where("entry_date >= ? AND entry_date <= ?", from, to),
		filter,
	)

	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByAccount finds entries with at least one line on the account
func (r *GormJournalEntryRepository) FindByAccount(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]accounting.JournalEntry, error) {
	lineEntries := r.db.Model(&accounting.JournalLine{}).
		Select("entry_id").
		Where("account_id = ?", accountID)

	var entries []accounting.JournalEntry
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&accounting.JournalEntry{}).
			Preload("Lines").
			Where("id IN (?)", lineEntries),
		filter,
	)

	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Save persists an entry and its lines in a single transaction.
// Updates are version-checked.
func (r *GormJournalEntryRepository) Save(ctx context.Context, entry *accounting.JournalEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing accounting.JournalEntry
		err := tx.Select("version").First(&existing, "id = ?", entry.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return translateError(tx.Create(entry).Error)
		}
		if err != nil {
			return err
		}
		if existing.Version >= entry.Version {
			return shared.ErrConcurrencyConflict
		}

		updates := map[string]interface{}{
			"entry_number": entry.EntryNumber,
			"entry_date":   entry.EntryDate,
			"description":  entry.Description,
			"debit_total":  entry.DebitTotal,
			"credit_total": entry.CreditTotal,
			"version":      entry.Version,
			"updated_at":   entry.UpdatedAt,
		}
		result := tx.Model(&accounting.JournalEntry{}).
			Where("id = ? AND version = ?", entry.ID, existing.Version).
			Updates(updates)
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		return r.replaceLines(tx, entry)
	})
}

// replaceLines synchronizes the stored lines with the aggregate
func (r *GormJournalEntryRepository) replaceLines(tx *gorm.DB, entry *accounting.JournalEntry) error {
	keepIDs := make([]uuid.UUID, 0, len(entry.Lines))
	for i := range entry.Lines {
		keepIDs = append(keepIDs, entry.Lines[i].ID)
	}

	del := tx.Where("entry_id = ?", entry.ID)
	if len(keepIDs) > 0 {
		del = del.Where("id NOT IN ?", keepIDs)
	}
	if err := del.Delete(&accounting.JournalLine{}).Error; err != nil {
		return err
	}

	for i := range entry.Lines {
		entry.Lines[i].EntryID = entry.ID
		if err := tx.Save(&entry.Lines[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete removes an entry and its lines
func (r *GormJournalEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&accounting.JournalLine{}, "entry_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&accounting.JournalEntry{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// CountByAccount counts entries with at least one line on the account
func (r *GormJournalEntryRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&accounting.JournalLine{}).
		Distinct("entry_id").
		Where("account_id = ?", accountID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Count counts entries matching the filter
func (r *GormJournalEntryRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&accounting.JournalEntry{})
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// NextEntryNumber issues the next sequential entry number for the given
// entry date. Format: JE-YYYYMMDD-NNNN (e.g., JE-20240131-0002)
func (r *GormJournalEntryRepository) NextEntryNumber(ctx context.Context, entryDate time.Time) (string, error) {
	prefix := fmt.Sprintf("JE-%s-", entryDate.Format("20060102"))

	// Get the highest entry number for this date
	var last accounting.JournalEntry
	err := r.db.WithContext(ctx).
		Model(&accounting.JournalEntry{}).
		Where("entry_number LIKE ?", prefix+"%").
		Order("entry_number DESC").
		First(&last).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && last.EntryNumber != "" {
		parts := strings.Split(last.EntryNumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	entryNumber := fmt.Sprintf("%s%04d", prefix, nextNum)

	// Verify uniqueness
	exists, err := r.existsByNumber(ctx, entryNumber)
	if err != nil {
		return "", err
	}
	if exists {
		for i := 0; i < 100; i++ {
			nextNum++
			entryNumber = fmt.Sprintf("%s%04d", prefix, nextNum)
			exists, err = r.existsByNumber(ctx, entryNumber)
			if err != nil {
				return "", err
			}
			if !exists {
				break
			}
		}
	}

	return entryNumber, nil
}

func (r *GormJournalEntryRepository) existsByNumber(ctx context.Context, entryNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&accounting.JournalEntry{}).
		Where("entry_number = ?", entryNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// TrialBalance aggregates per-account debit and credit totals over a date range
func (r *GormJournalEntryRepository) TrialBalance(ctx context.Context, from, to time.Time) ([]accounting.TrialBalanceRow, error) {
	var rows []accounting.TrialBalanceRow
	err := r.db.WithContext(ctx).
		Table("journal_lines").
		Select("accounts.id AS account_id, " +
			"accounts.code AS account_code, " +
			"accounts.name AS account_name, " +
			"accounts.type AS account_type, " +
			"COALESCE(SUM(journal_lines.debit_amount), 0) AS debit_total, " +
			"COALESCE(SUM(journal_lines.credit_amount), 0) AS credit_total").
		Joins("JOIN journal_entries ON journal_entries.id = journal_lines.entry_id").
		Joins("JOIN accounts ON accounts.id = journal_lines.account_id").
		Where("journal_entries.entry_date >= ? AND journal_entries.entry_date <= ?", from, to).
		Group("accounts.id, accounts.code, accounts.name, accounts.type").
		Order("accounts.code ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// applyFilter applies filter options to the query
func (r *GormJournalEntryRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Paginates() {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	// Apply ordering
	orderBy := ValidateSortField(filter.OrderBy, JournalEntrySortFields, "entry_date")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormJournalEntryRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	// Apply search
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("entry_number ILIKE ? OR description ILIKE ?",
			searchPattern, searchPattern)
	}

	// Apply additional filters
	for key, value := range filter.Filters {
		switch key {
		case "entry_date_from":
			query = query.Where("entry_date >= ?", value)
		case "entry_date_to":
			query = query.Where("entry_date <= ?", value)
		}
	}

	return query
}

// Ensure GormJournalEntryRepository implements JournalEntryRepository
var _ accounting.JournalEntryRepository = (*GormJournalEntryRepository)(nil)
