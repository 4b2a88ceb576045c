package partner

import (
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeParty = "Party"

// Event type constants
const (
	EventTypePartyCreated     = "PartyCreated"
	EventTypePartyUpdated     = "PartyUpdated"
	EventTypePartyDeactivated = "PartyDeactivated"
	EventTypePartyDeleted     = "PartyDeleted"
)

// PartyCreatedEvent is published when a new party is created
type PartyCreatedEvent struct {
	shared.BaseDomainEvent
	PartyID uuid.UUID `json:"party_id"`
	Code    string    `json:"code"`
	Name    string    `json:"name"`
	Type    PartyType `json:"type"`
}

// NewPartyCreatedEvent creates a new PartyCreatedEvent
func NewPartyCreatedEvent(party *Party) *PartyCreatedEvent {
	return &PartyCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePartyCreated, AggregateTypeParty, party.ID),
		PartyID:         party.ID,
		Code:            party.Code,
		Name:            party.Name,
		Type:            party.Type,
	}
}

// PartyUpdatedEvent is published when a party is updated
type PartyUpdatedEvent struct {
	shared.BaseDomainEvent
	PartyID uuid.UUID `json:"party_id"`
	Code    string    `json:"code"`
	Name    string    `json:"name"`
}

// NewPartyUpdatedEvent creates a new PartyUpdatedEvent
func NewPartyUpdatedEvent(party *Party) *PartyUpdatedEvent {
	return &PartyUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePartyUpdated, AggregateTypeParty, party.ID),
		PartyID:         party.ID,
		Code:            party.Code,
		Name:            party.Name,
	}
}

// PartyDeactivatedEvent is published when a party is deactivated
type PartyDeactivatedEvent struct {
	shared.BaseDomainEvent
	PartyID uuid.UUID `json:"party_id"`
	Code    string    `json:"code"`
}

// NewPartyDeactivatedEvent creates a new PartyDeactivatedEvent
func NewPartyDeactivatedEvent(party *Party) *PartyDeactivatedEvent {
	return &PartyDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePartyDeactivated, AggregateTypeParty, party.ID),
		PartyID:         party.ID,
		Code:            party.Code,
	}
}

// PartyDeletedEvent is published when a party is deleted
type PartyDeletedEvent struct {
	shared.BaseDomainEvent
	PartyID uuid.UUID `json:"party_id"`
	Code    string    `json:"code"`
	Type    PartyType `json:"type"`
}

// NewPartyDeletedEvent creates a new PartyDeletedEvent
func NewPartyDeletedEvent(party *Party) *PartyDeletedEvent {
	return &PartyDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePartyDeleted, AggregateTypeParty, party.ID),
		PartyID:         party.ID,
		Code:            party.Code,
		Type:            party.Type,
	}
}
