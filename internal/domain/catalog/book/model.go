// Package book provides the book catalog: the caller that turns admin requests into
// inventory movements and keeps the audit trail.
package book

import (
	"strings"
	"time"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/core/types"
	"bookstore/internal/domain/inventory"
)

// EntityType is the audit and ledger entity type of books.
const EntityType = string(inventory.EntityBook)

// Book is a catalog item. Quantity and Price change only through inventory movements.
type Book struct {
	ID        id.ID       `db:"id" json:"id"`
	Title     string      `db:"title" json:"title"`
	Author    string      `db:"author" json:"author"`
	ISBN      string      `db:"isbn" json:"isbn"`
	Quantity  int64       `db:"quantity" json:"quantity"`
	Price     types.Money `db:"price" json:"price"`
	IsActive  bool        `db:"is_active" json:"isActive"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time   `db:"updated_at" json:"updatedAt"`
}

// newBook creates an inactive book with zero stock; registration activates it.
func newBook(input CreateInput, now time.Time) *Book {
	now = now.UTC()
	return &Book{
		ID:        id.New(),
		Title:     strings.TrimSpace(input.Title),
		Author:    strings.TrimSpace(input.Author),
		ISBN:      strings.TrimSpace(input.ISBN),
		Price:     types.Zero(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// inventoryState is the part of a book recorded in audit diffs.
func (b *Book) inventoryState() map[string]any {
	return map[string]any{
		"quantity": b.Quantity,
		"price":    b.Price.String(),
		"isActive": b.IsActive,
	}
}

// applyMovement copies the after-values of a completed movement into the book.
func (b *Book) applyMovement(m *inventory.Movement) {
	b.Quantity = m.QuantityAfter
	if m.PriceAfter != nil {
		b.Price = *m.PriceAfter
	}
	switch m.MovementType {
	case inventory.MovementRegistration:
		b.IsActive = true
	case inventory.MovementDeactivation:
		b.IsActive = false
	}
	b.UpdatedAt = m.UpdatedAt
}

// CreateInput holds data for registering a new book.
type CreateInput struct {
	Title    string
	Author   string
	ISBN     string
	Quantity int64
	Price    types.Money
	Notes    string
}

// Validate checks the input.
func (in CreateInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return apperror.NewValidation("title is required")
	}
	if in.Quantity < 0 {
		return apperror.NewValidation("quantity must not be negative")
	}
	return validatePrice(in.Price)
}

func validatePrice(p types.Money) error {
	if p.IsNegative() {
		return apperror.NewValidation("price must not be negative")
	}
	if !types.FitsMoneyColumn(p) {
		return apperror.NewValidation("price must have at most 2 decimal places and fewer than 11 integer digits")
	}
	return nil
}

// UpdateInventoryInput changes stock and/or price of a book.
// ExpectedQuantity (and ExpectedPrice when given) is the caller's view of the book;
// a stale view is rejected with CONCURRENT_MODIFICATION.
type UpdateInventoryInput struct {
	ExpectedQuantity int64
	ExpectedPrice    *types.Money
	Quantity         *int64
	Price            *types.Money
	Notes            string
}

// Validate checks the input.
func (in UpdateInventoryInput) Validate() error {
	if in.Quantity == nil && in.Price == nil {
		return apperror.NewValidation("quantity or price is required")
	}
	if in.Price != nil {
		return validatePrice(*in.Price)
	}
	return nil
}

// BulkItem is one line of a bulk adjustment.
type BulkItem struct {
	BookID id.ID
	UpdateInventoryInput
}

// Result is a book together with the movement that produced its current state.
type Result struct {
	Book     *Book               `json:"book"`
	Movement *inventory.Movement `json:"movement"`
}
