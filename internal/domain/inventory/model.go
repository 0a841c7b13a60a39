// Package inventory implements the inventory movement engine: every change of a catalog
// item's quantity or price is applied under a row lock together with an append-only
// ledger entry (a Movement), and a failed attempt leaves an ERROR entry behind.
package inventory

import (
	"errors"
	"fmt"
	"time"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/core/types"
)

// EntityType names the kind of catalog item a movement applies to.
type EntityType string

const (
	EntityBook EntityType = "BOOK"
)

// Valid reports whether the engine knows how to lock and update this entity type.
func (t EntityType) Valid() bool {
	return t == EntityBook
}

// Status is the lifecycle state of a ledger entry.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusError     Status = "ERROR"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPending || s.IsTerminal()
}

// ErrTerminalStatus is returned when a transition out of COMPLETED or ERROR is attempted.
var ErrTerminalStatus = errors.New("movement is in a terminal status")

// Actor identifies who caused a movement. Copied verbatim into the ledger.
type Actor struct {
	UserID   string
	FullName string
	Role     string
}

// ItemSnapshot is the locked state of a catalog item.
type ItemSnapshot struct {
	Quantity int64
	Price    types.Money
	Active   bool
}

// ItemUpdate is the new state written to a catalog item.
// Nil fields leave the stored value untouched.
type ItemUpdate struct {
	Quantity int64
	Price    *types.Money
	Active   *bool
}

// Change is a requested quantity and/or price change of one catalog item.
//
// QuantityBefore is the caller's view of the current quantity and acts as an optimistic
// precondition. PriceBefore is checked the same way when set. An empty MovementType is
// derived with DetermineMovementType after the item is locked.
type Change struct {
	EntityType     EntityType
	EntityID       id.ID
	Actor          Actor
	QuantityBefore int64
	QuantityAfter  int64
	PriceBefore    *types.Money
	PriceAfter     *types.Money
	MovementType   MovementType
	Notes          string
}

// Validate checks the change against the invariants that hold regardless of stored state.
func (c Change) Validate() error {
	if !c.EntityType.Valid() {
		return apperror.NewInvariantViolation(fmt.Sprintf("unsupported entity type %q", c.EntityType)).
			WithDetail("entity_type", c.EntityType)
	}
	if id.IsNil(c.EntityID) {
		return apperror.NewInvariantViolation("entity id is required")
	}
	if c.QuantityAfter < 0 {
		return apperror.NewInvariantViolation("quantity must not be negative").
			WithDetail("entity_id", c.EntityID).
			WithDetail("quantity_after", c.QuantityAfter)
	}
	if c.PriceAfter != nil && c.PriceAfter.IsNegative() {
		return apperror.NewInvariantViolation("price must not be negative").
			WithDetail("entity_id", c.EntityID).
			WithDetail("price_after", c.PriceAfter.String())
	}
	for _, p := range []*types.Money{c.PriceBefore, c.PriceAfter} {
		if p != nil && !types.FitsMoneyColumn(*p) {
			return apperror.NewInvariantViolation(
				fmt.Sprintf("price must have at most %d decimal places and fewer than 11 integer digits", types.MoneyScale)).
				WithDetail("entity_id", c.EntityID).
				WithDetail("price", p.String())
		}
	}
	if c.MovementType != "" && !c.MovementType.Valid() {
		return apperror.NewInvariantViolation(fmt.Sprintf("invalid movement type %q", c.MovementType))
	}
	return nil
}

// Movement is one ledger entry: a single attempt to change a catalog item.
type Movement struct {
	ID             id.ID        `db:"id" json:"id"`
	EntityType     EntityType   `db:"entity_type" json:"entityType"`
	EntityID       id.ID        `db:"entity_id" json:"entityId"`
	UserID         string       `db:"user_id" json:"userId"`
	UserFullName   string       `db:"user_full_name" json:"userFullName"`
	UserRole       string       `db:"user_role" json:"userRole"`
	QuantityBefore int64        `db:"quantity_before" json:"quantityBefore"`
	QuantityAfter  int64        `db:"quantity_after" json:"quantityAfter"`
	PriceBefore    *types.Money `db:"price_before" json:"priceBefore,omitempty"`
	PriceAfter     *types.Money `db:"price_after" json:"priceAfter,omitempty"`
	MovementType   MovementType `db:"movement_type" json:"movementType"`
	Status         Status       `db:"status" json:"status"`
	Notes          string       `db:"notes" json:"notes"`
	CreatedAt      time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updatedAt"`
}

// NewMovement creates a PENDING ledger entry for the change.
func NewMovement(change Change, now time.Time) *Movement {
	m := fromChange(change, now)
	m.Status = StatusPending
	return m
}

// NewFailedMovement creates a fresh ERROR ledger entry recording why the change was not applied.
func NewFailedMovement(change Change, reason string, now time.Time) *Movement {
	m := fromChange(change, now)
	if m.MovementType == "" || !m.MovementType.Valid() {
		m.MovementType = DetermineMovementType(false, false,
			change.PriceBefore, change.PriceAfter, change.QuantityBefore, change.QuantityAfter)
	}
	m.Status = StatusError
	m.Notes = reason
	return m
}

func fromChange(change Change, now time.Time) *Movement {
	now = now.UTC()
	return &Movement{
		ID:             id.New(),
		EntityType:     change.EntityType,
		EntityID:       change.EntityID,
		UserID:         change.Actor.UserID,
		UserFullName:   change.Actor.FullName,
		UserRole:       change.Actor.Role,
		QuantityBefore: change.QuantityBefore,
		QuantityAfter:  change.QuantityAfter,
		PriceBefore:    copyMoney(change.PriceBefore),
		PriceAfter:     copyMoney(change.PriceAfter),
		MovementType:   change.MovementType,
		Notes:          change.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Complete moves a PENDING entry to COMPLETED.
func (m *Movement) Complete(now time.Time) error {
	if err := m.transition(); err != nil {
		return err
	}
	m.Status = StatusCompleted
	m.UpdatedAt = now.UTC()
	return nil
}

// Fail moves a PENDING entry to ERROR, overwriting notes with the reason.
func (m *Movement) Fail(reason string, now time.Time) error {
	if err := m.transition(); err != nil {
		return err
	}
	m.Status = StatusError
	m.Notes = reason
	m.UpdatedAt = now.UTC()
	return nil
}

func (m *Movement) transition() error {
	if m.Status.IsTerminal() {
		return fmt.Errorf("movement %s (%s): %w", m.ID, m.Status, ErrTerminalStatus)
	}
	return nil
}

// Direction reports the stock direction of a movement.
func (m *Movement) Direction() Direction {
	return StockDirection(m.QuantityBefore, m.QuantityAfter)
}

func copyMoney(m *types.Money) *types.Money {
	if m == nil {
		return nil
	}
	v := *m
	return &v
}
