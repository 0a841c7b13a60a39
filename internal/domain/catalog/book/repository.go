package book

import (
	"context"

	"bookstore/internal/core/id"
	"bookstore/internal/domain/inventory"
)

// Repository persists book rows. Stock and price are written only by the movement engine.
type Repository interface {
	Create(ctx context.Context, b *Book) error
	GetByID(ctx context.Context, bookID id.ID) (*Book, error)
	GetByISBN(ctx context.Context, isbn string) (*Book, error)
	UpdateDetails(ctx context.Context, b *Book) error
	List(ctx context.Context, filter ListFilter) ([]*Book, error)
}

// ListFilter narrows a book listing. Search matches title or author substrings and exact ISBN.
type ListFilter struct {
	Search     string
	ActiveOnly bool
	Limit      int
	Offset     int
}

// Engine applies inventory changes.
type Engine interface {
	Execute(ctx context.Context, change inventory.Change) (*inventory.Movement, error)
	ExecuteBulk(ctx context.Context, changes []inventory.Change) ([]*inventory.Movement, error)
}
