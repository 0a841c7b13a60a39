package book

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/domain/audit"
	"bookstore/internal/domain/inventory"
	"bookstore/pkg/logger"
)

// Service provides book catalog operations.
type Service struct {
	repo   Repository
	engine Engine
	audit  audit.Logger
	now    func() time.Time
}

// NewService creates a new book service.
func NewService(repo Repository, engine Engine, auditLogger audit.Logger) *Service {
	return &Service{
		repo:   repo,
		engine: engine,
		audit:  auditLogger,
		now:    time.Now,
	}
}

// Create registers a book through a REGISTRATION movement. A new book is inserted inactive
// with zero stock first. An inactive book with the same ISBN (deactivated, or left behind by a
// failed registration) is registered again instead of inserting a duplicate.
func (s *Service) Create(ctx context.Context, actor inventory.Actor, input CreateInput) (*Result, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	b, action, err := s.prepareRegistration(ctx, input)
	if err != nil {
		return nil, err
	}
	before := b.inventoryState()

	price := input.Price
	priceBefore := b.Price
	m, err := s.engine.Execute(ctx, inventory.Change{
		EntityType:     inventory.EntityBook,
		EntityID:       b.ID,
		Actor:          actor,
		QuantityBefore: b.Quantity,
		QuantityAfter:  input.Quantity,
		PriceBefore:    &priceBefore,
		PriceAfter:     &price,
		MovementType:   inventory.MovementRegistration,
		Notes:          input.Notes,
	})
	if err != nil {
		return nil, err
	}
	b.applyMovement(m)

	state := b.inventoryState()
	state["title"] = b.Title
	state["author"] = b.Author
	state["isbn"] = b.ISBN
	s.logAudit(ctx, b.ID, action, before, state, m)

	logger.Info(ctx, "book registered", "book_id", b.ID, "quantity", b.Quantity, "action", action)
	return &Result{Book: b, Movement: m}, nil
}

// prepareRegistration returns the book row the REGISTRATION movement applies to.
func (s *Service) prepareRegistration(ctx context.Context, input CreateInput) (*Book, audit.Action, error) {
	b := newBook(input, s.now())
	if b.ISBN != "" {
		existing, err := s.repo.GetByISBN(ctx, b.ISBN)
		switch {
		case err == nil:
			if existing.IsActive {
				return nil, "", apperror.NewDuplicate("book", "isbn", b.ISBN)
			}
			if existing.Title != b.Title || existing.Author != b.Author {
				existing.Title, existing.Author, existing.UpdatedAt = b.Title, b.Author, b.UpdatedAt
				if err := s.repo.UpdateDetails(ctx, existing); err != nil {
					return nil, "", fmt.Errorf("update book details: %w", err)
				}
			}
			return existing, audit.ActionReactivate, nil
		case !apperror.IsNotFound(err):
			return nil, "", fmt.Errorf("find book by isbn: %w", err)
		}
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, "", fmt.Errorf("create book: %w", err)
	}
	return b, audit.ActionCreate, nil
}

// Get returns a book by ID.
func (s *Service) Get(ctx context.Context, bookID id.ID) (*Book, error) {
	return s.repo.GetByID(ctx, bookID)
}

// List returns books matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Book, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.List(ctx, filter)
}

// UpdateInventory changes stock and/or price. The movement type is classified from the
// locked values by the engine.
func (s *Service) UpdateInventory(ctx context.Context, actor inventory.Actor, bookID id.ID, input UpdateInventoryInput) (*Result, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	b, err := s.repo.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	m, err := s.engine.Execute(ctx, changeFor(actor, bookID, input))
	if err != nil {
		return nil, err
	}

	before := b.inventoryState()
	b.applyMovement(m)
	s.logAudit(ctx, b.ID, audit.ActionUpdate, before, b.inventoryState(), m)

	return &Result{Book: b, Movement: m}, nil
}

// Deactivate zeroes the stock of a book and marks it inactive with a DEACTIVATION movement.
func (s *Service) Deactivate(ctx context.Context, actor inventory.Actor, bookID id.ID, expectedQuantity int64, notes string) (*Result, error) {
	b, err := s.repo.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	m, err := s.engine.Execute(ctx, inventory.Change{
		EntityType:     inventory.EntityBook,
		EntityID:       bookID,
		Actor:          actor,
		QuantityBefore: expectedQuantity,
		QuantityAfter:  0,
		MovementType:   inventory.MovementDeactivation,
		Notes:          notes,
	})
	if err != nil {
		return nil, err
	}

	before := b.inventoryState()
	b.applyMovement(m)
	s.logAudit(ctx, b.ID, audit.ActionDeactivate, before, b.inventoryState(), m)

	return &Result{Book: b, Movement: m}, nil
}

// BulkAdjust applies several inventory updates atomically. Movements are returned in input order.
func (s *Service) BulkAdjust(ctx context.Context, actor inventory.Actor, items []BulkItem) ([]*inventory.Movement, error) {
	changes := make([]inventory.Change, 0, len(items))
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		changes = append(changes, changeFor(actor, item.BookID, item.UpdateInventoryInput))
	}

	movements, err := s.engine.ExecuteBulk(ctx, changes)
	if err != nil {
		return nil, err
	}

	for _, m := range movements {
		before := map[string]any{"quantity": m.QuantityBefore}
		after := map[string]any{"quantity": m.QuantityAfter}
		if m.PriceAfter != nil && m.PriceBefore != nil {
			before["price"] = m.PriceBefore.String()
			after["price"] = m.PriceAfter.String()
		}
		s.logAudit(ctx, m.EntityID, audit.ActionBulkAdjust, before, after, m)
	}

	logger.Info(ctx, "bulk inventory adjustment applied", "count", len(movements))
	return movements, nil
}

func changeFor(actor inventory.Actor, bookID id.ID, input UpdateInventoryInput) inventory.Change {
	quantityAfter := input.ExpectedQuantity
	if input.Quantity != nil {
		quantityAfter = *input.Quantity
	}
	return inventory.Change{
		EntityType:     inventory.EntityBook,
		EntityID:       bookID,
		Actor:          actor,
		QuantityBefore: input.ExpectedQuantity,
		QuantityAfter:  quantityAfter,
		PriceBefore:    input.ExpectedPrice,
		PriceAfter:     input.Price,
		Notes:          input.Notes,
	}
}

// logAudit records the change. The movement is already committed, so a failure is only logged.
func (s *Service) logAudit(ctx context.Context, bookID id.ID, action audit.Action, before, after map[string]any, m *inventory.Movement) {
	changes := audit.Diff(before, after)
	changes["movementId"] = m.ID.String()
	changes["movementType"] = string(m.MovementType)

	if err := s.audit.LogChange(ctx, EntityType, bookID, action, changes); err != nil {
		logger.Warn(ctx, "failed to write audit entry",
			"book_id", bookID,
			"action", action,
			"error", err,
		)
	}
}
