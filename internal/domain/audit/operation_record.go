// Package audit provides the append-only operation history.
// Records are written once and never updated or deleted.
package audit

import (
	"fmt"
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// OperationAction classifies what happened to an entity
type OperationAction string

const (
	OperationActionCreated       OperationAction = "created"
	OperationActionUpdated       OperationAction = "updated"
	OperationActionDeleted       OperationAction = "deleted"
	OperationActionStatusChanged OperationAction = "status_changed"
)

// IsValid checks if the action is a known value
func (a OperationAction) IsValid() bool {
	switch a {
	case OperationActionCreated, OperationActionUpdated, OperationActionDeleted, OperationActionStatusChanged:
		return true
	}
	return false
}

// OperationRecord is one line of the operation history
type OperationRecord struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	OccurredAt time.Time       `gorm:"not null;index"`
	ActorID    *uuid.UUID      `gorm:"type:uuid;index"`
	ActorName  string          `gorm:"type:varchar(100)"`
	EntityType string          `gorm:"type:varchar(50);not null;index:idx_operation_entity,priority:1"`
	EntityID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_operation_entity,priority:2"`
	Action     OperationAction `gorm:"type:varchar(30);not null"`
	FromStatus string          `gorm:"type:varchar(30)"`
	ToStatus   string          `gorm:"type:varchar(30)"`
	Detail     string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (OperationRecord) TableName() string {
	return "operation_history"
}

// NewOperationRecord creates a history record for a create, update or
// delete action
func NewOperationRecord(entityType string, entityID uuid.UUID, action OperationAction, detail string) (*OperationRecord, error) {
	if entityType == "" {
		return nil, shared.NewDomainError("INVALID_ENTITY_TYPE", "Entity type cannot be empty")
	}
	if entityID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ENTITY_ID", "Entity ID cannot be empty")
	}
	if !action.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACTION", "Unknown operation action")
	}

	return &OperationRecord{
		ID:         uuid.New(),
		OccurredAt: time.Now(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Detail:     detail,
	}, nil
}

// NewStatusChangeRecord creates a history record for a status transition
func NewStatusChangeRecord(entityType string, entityID uuid.UUID, fromStatus, toStatus, detail string) (*OperationRecord, error) {
	record, err := NewOperationRecord(entityType, entityID, OperationActionStatusChanged, detail)
	if err != nil {
		return nil, err
	}
	if fromStatus == "" || toStatus == "" {
		return nil, shared.NewDomainError("INVALID_STATUS", "Status change record requires both statuses")
	}

	record.FromStatus = fromStatus
	record.ToStatus = toStatus
	return record, nil
}

// Actor identifies who performed an operation. A zero value means the
// actor is unknown and the record stays unattributed.
type Actor struct {
	ID   *uuid.UUID
	Name string
}

// WithActor attributes the record to a user
func (r *OperationRecord) WithActor(actorID uuid.UUID, actorName string) *OperationRecord {
	r.ActorID = &actorID
	r.ActorName = actorName
	return r
}

// Attribute applies the actor if one is known
func (r *OperationRecord) Attribute(actor Actor) *OperationRecord {
	if actor.ID != nil {
		r.ActorID = actor.ID
		r.ActorName = actor.Name
	}
	return r
}

// Summary renders a single-line description of the record
func (r *OperationRecord) Summary() string {
	if r.Action == OperationActionStatusChanged {
		return fmt.Sprintf("%s %s: %s -> %s", r.EntityType, r.EntityID, r.FromStatus, r.ToStatus)
	}
	return fmt.Sprintf("%s %s: %s", r.EntityType, r.EntityID, r.Action)
}
