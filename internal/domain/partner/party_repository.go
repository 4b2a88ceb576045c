package partner

import (
	"context"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PartyRepository defines the interface for party persistence
type PartyRepository interface {
	// FindByID finds a party by its ID, contacts included
	FindByID(ctx context.Context, id uuid.UUID) (*Party, error)

	// FindByCode finds a party by its code within a type
	FindByCode(ctx context.Context, partyType PartyType, code string) (*Party, error)

	// FindAll finds all parties matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Party, error)

	// FindByType finds parties of the given type
	FindByType(ctx context.Context, partyType PartyType, filter shared.Filter) ([]Party, error)

	// Save creates or updates a party together with its contacts.
	// Updates are version-checked and return shared.ErrConcurrencyConflict
	// on a stale write.
	Save(ctx context.Context, party *Party) error

	// Delete removes a party without any dependency check
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteGuarded deletes the party only if no documents or purchase
	// orders reference it. The dependency count and the delete run in a
	// single transaction; a non-zero count is returned without deleting.
	DeleteGuarded(ctx context.Context, id uuid.UUID, partyType PartyType) (int64, error)

	// ExistsByCode checks if a party with the given type and code exists
	ExistsByCode(ctx context.Context, partyType PartyType, code string) (bool, error)

	// Count counts parties matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
