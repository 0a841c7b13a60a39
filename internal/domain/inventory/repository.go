package inventory

import (
	"context"
	"time"

	"bookstore/internal/core/id"
)

// ItemStore locks and updates catalog items. Implementations are bound to one transaction.
type ItemStore interface {
	// LockForUpdate reads the item holding an exclusive row lock until the transaction ends.
	// Returns a NOT_FOUND AppError when the item does not exist.
	LockForUpdate(ctx context.Context, entityType EntityType, entityID id.ID) (ItemSnapshot, error)

	// Update writes the new quantity and, when set, the new price.
	Update(ctx context.Context, entityType EntityType, entityID id.ID, update ItemUpdate) error
}

// MovementRepository persists ledger entries.
type MovementRepository interface {
	// Create inserts a new entry.
	Create(ctx context.Context, m *Movement) error

	// UpdateStatus persists a transition of a PENDING entry (status, notes, updated_at).
	UpdateStatus(ctx context.Context, m *Movement) error

	// CreateBatch inserts several entries in one round trip.
	CreateBatch(ctx context.Context, movements []*Movement) error
}

// Outbox enqueues integration events in the same transaction as the movement.
type Outbox interface {
	Publish(ctx context.Context, event Event) error
}

// UnitOfWork is the explicit handle of one open transaction.
// Stores obtained from it must not be used after the transaction ends.
type UnitOfWork interface {
	Items() ItemStore
	Movements() MovementRepository
	Outbox() Outbox
}

// TxRunner runs fn inside a transaction: committed when fn returns nil, rolled back otherwise.
// Rollback happens on every exit path, including panics and context cancellation.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}

// MovementReader serves ledger queries outside of any engine transaction.
type MovementReader interface {
	Get(ctx context.Context, movementID id.ID) (*Movement, error)
	List(ctx context.Context, filter MovementFilter) ([]*Movement, error)
}

// MovementFilter narrows ledger queries.
type MovementFilter struct {
	EntityType   *EntityType
	EntityID     *id.ID
	Status       *Status
	MovementType *MovementType
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

// Event is an integration event emitted for a completed movement.
type Event struct {
	Type       string
	EntityType EntityType
	EntityID   id.ID
	Payload    any
}

// EventMovementCompleted is published once per committed movement.
const EventMovementCompleted = "inventory.movement.completed"

// MovementCompletedPayload is the body of EventMovementCompleted.
type MovementCompletedPayload struct {
	*Movement
	Direction Direction `json:"direction"`
}

func completedEvent(m *Movement) Event {
	return Event{
		Type:       EventMovementCompleted,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Payload:    MovementCompletedPayload{Movement: m, Direction: m.Direction()},
	}
}
