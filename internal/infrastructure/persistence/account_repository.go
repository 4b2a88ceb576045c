package persistence

import (
	"context"
	"errors"

	"github.com/backoffice/backend/internal/domain/accounting"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAccountRepository implements AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByID finds an account by its ID
func (r *GormAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*accounting.Account, error) {
	var account accounting.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindByCode finds an account by its code
func (r *GormAccountRepository) FindByCode(ctx context.Context, code string) (*accounting.Account, error) {
	var account accounting.Account
	if err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindByIDs finds multiple accounts by their IDs
func (r *GormAccountRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]accounting.Account, error) {
	if len(ids) == 0 {
		return []accounting.Account{}, nil
	}

	var accounts []accounting.Account
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// FindAll finds all accounts matching the filter
func (r *GormAccountRepository) FindAll(ctx context.Context, filter shared.Filter) ([]accounting.Account, error) {
	var accounts []accounting.Account
	query := r.applyFilter(r.db.WithContext(ctx).Model(&accounting.Account{}), filter)

	if err := query.Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// FindByType finds accounts of a given type
func (r *GormAccountRepository) FindByType(ctx context.Context, accountType accounting.AccountType, filter shared.Filter) ([]accounting.Account, error) {
	var accounts []accounting.Account
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&accounting.Account{}).
			Where("type = ?", accountType),
		filter,
	)

	if err := query.Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// Save creates or updates an account. Updates are version-checked.
func (r *GormAccountRepository) Save(ctx context.Context, account *accounting.Account) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing accounting.Account
		err := tx.Select("version").First(&existing, "id = ?", account.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return translateError(tx.Create(account).Error)
		}
		if err != nil {
			return err
		}
		if existing.Version >= account.Version {
			return shared.ErrConcurrencyConflict
		}

		updates := map[string]interface{}{
			"code":       account.Code,
			"name":       account.Name,
			"type":       account.Type,
			"parent_id":  account.ParentID,
			"is_active":  account.IsActive,
			"version":    account.Version,
			"updated_at": account.UpdatedAt,
		}
		result := tx.Model(&accounting.Account{}).
			Where("id = ? AND version = ?", account.ID, existing.Version).
			Updates(updates)
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return nil
	})
}

// ExistsByCode checks if an account with the given code exists
func (r *GormAccountRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&accounting.Account{}).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Count counts accounts matching the filter
func (r *GormAccountRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&accounting.Account{})
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormAccountRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Paginates() {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	// Apply ordering
	orderBy := ValidateSortField(filter.OrderBy, AccountSortFields, "code")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormAccountRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	// Apply search
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("code ILIKE ? OR name ILIKE ?", searchPattern, searchPattern)
	}

	// Apply additional filters
	for key, value := range filter.Filters {
		switch key {
		case "type":
			query = query.Where("type = ?", value)
		case "is_active":
			query = query.Where("is_active = ?", value)
		}
	}

	return query
}

// Ensure GormAccountRepository implements AccountRepository
var _ accounting.AccountRepository = (*GormAccountRepository)(nil)
