package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/backoffice/backend/internal/domain/partner"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPartyRepository implements PartyRepository using GORM
type GormPartyRepository struct {
	db *gorm.DB
}

// NewGormPartyRepository creates a new GormPartyRepository
func NewGormPartyRepository(db *gorm.DB) *GormPartyRepository {
	return &GormPartyRepository{db: db}
}

// FindByID finds a party by its ID, contacts included
func (r *GormPartyRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Party, error) {
	var party partner.Party
	if err := r.db.WithContext(ctx).
		Preload("Contacts").
		First(&party, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound.WithMessage("Party not found")
		}
		return nil, err
	}
	return &party, nil
}

// FindByCode finds a party by its code within a type
func (r *GormPartyRepository) FindByCode(ctx context.Context, partyType partner.PartyType, code string) (*partner.Party, error) {
	var party partner.Party
	if err := r.db.WithContext(ctx).
		Preload("Contacts").
		Where("type = ? AND code = ?", partyType, strings.ToUpper(code)).
		First(&party).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound.WithMessage("Party not found")
		}
		return nil, err
	}
	return &party, nil
}

// FindAll finds all parties matching the filter
func (r *GormPartyRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Party, error) {
	var parties []partner.Party
	query := r.applyFilter(r.db.WithContext(ctx).Model(&partner.Party{}).Preload("Contacts"), filter)

	if err := query.Find(&parties).Error; err != nil {
		return nil, err
	}
	return parties, nil
}

// FindByType finds parties of the given type
func (r *GormPartyRepository) FindByType(ctx context.Context, partyType partner.PartyType, filter shared.Filter) ([]partner.Party, error) {
	var parties []partner.Party
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&partner.Party{}).
			Preload("Contacts").
			Where("type = ?", partyType),
		filter,
	)

	if err := query.Find(&parties).Error; err != nil {
		return nil, err
	}
	return parties, nil
}

// Save creates or updates a party together with its contacts.
// Updates are version-checked: a stale version returns shared.ErrConcurrencyConflict.
func (r *GormPartyRepository) Save(ctx context.Context, party *partner.Party) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing partner.Party
		err := tx.Select("version").First(&existing, "id = ?", party.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return translateError(tx.Create(party).Error)
		}
		if err != nil {
			return err
		}
		if existing.Version >= party.Version {
			return shared.ErrConcurrencyConflict
		}

		updates := map[string]interface{}{
			"code":                 party.Code,
			"name":                 party.Name,
			"kana":                 party.Kana,
			"postal_code":          party.PostalCode,
			"address":              party.Address,
			"phone":                party.Phone,
			"fax":                  party.Fax,
			"email":                party.Email,
			"closing_day":          party.ClosingDay,
			"payment_month_offset": party.PaymentMonthOffset,
			"payment_day":          party.PaymentDay,
			"notes":                party.Notes,
			"is_active":            party.IsActive,
			"version":              party.Version,
			"updated_at":           party.UpdatedAt,
		}
		result := tx.Model(&partner.Party{}).
			Where("id = ? AND version = ?", party.ID, existing.Version).
			Updates(updates)
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		return r.replaceContacts(tx, party)
	})
}

// replaceContacts synchronizes the stored contact rows with the aggregate
func (r *GormPartyRepository) replaceContacts(tx *gorm.DB, party *partner.Party) error {
	keepIDs := make([]uuid.UUID, 0, len(party.Contacts))
	for i := range party.Contacts {
		keepIDs = append(keepIDs, party.Contacts[i].ID)
	}

	del := tx.Where("party_id = ?", party.ID)
	if len(keepIDs) > 0 {
		del = del.Where("id NOT IN ?", keepIDs)
	}
	if err := del.Delete(&partner.Contact{}).Error; err != nil {
		return err
	}

	for i := range party.Contacts {
		party.Contacts[i].PartyID = party.ID
		if err := tx.Save(&party.Contacts[i]).Error; err != nil {
			return translateError(err)
		}
	}
	return nil
}

// Delete removes a party without any dependency check
func (r *GormPartyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&partner.Contact{}, "party_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&partner.Party{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// DeleteGuarded deletes the party only if no documents or purchase orders
// reference it. The guard and the delete are one conditional DELETE, so a
// reference created concurrently cannot slip between a check and the delete;
// the foreign keys on documents.customer_id and purchase_orders.supplier_id
// back the same rule at the schema level. A non-zero reference count is
// returned without deleting anything.
func (r *GormPartyRepository) DeleteGuarded(ctx context.Context, id uuid.UUID, partyType partner.PartyType) (int64, error) {
	var refTable, refColumn string
	switch partyType {
	case partner.PartyTypeCustomer:
		refTable, refColumn = "documents", "customer_id"
	case partner.PartyTypeSupplier:
		refTable, refColumn = "purchase_orders", "supplier_id"
	default:
		return 0, shared.NewDomainError("INVALID_TYPE", "Party type must be 'customer' or 'supplier'")
	}

	var refs int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Where("id = ?", id).
			Where("NOT EXISTS (SELECT 1 FROM "+refTable+" WHERE "+refColumn+" = ?)", id).
			Delete(&partner.Party{})
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			if err := tx.Table(refTable).Where(refColumn+" = ?", id).Count(&refs).Error; err != nil {
				return err
			}
			if refs > 0 {
				return nil
			}
			return shared.ErrNotFound
		}
		return tx.Delete(&partner.Contact{}, "party_id = ?", id).Error
	})
	return refs, err
}

// ExistsByCode checks if a party with the given type and code exists
func (r *GormPartyRepository) ExistsByCode(ctx context.Context, partyType partner.PartyType, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&partner.Party{}).
		Where("type = ? AND code = ?", partyType, strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Count counts parties matching the filter
func (r *GormPartyRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&partner.Party{})
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormPartyRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Paginates() {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	// Apply ordering
	orderBy := ValidateSortField(filter.OrderBy, PartySortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormPartyRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	// Apply search
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR kana ILIKE ? OR code ILIKE ?",
			searchPattern, searchPattern, searchPattern)
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

// Ensure GormPartyRepository implements PartyRepository
var _ partner.PartyRepository = (*GormPartyRepository)(nil)
