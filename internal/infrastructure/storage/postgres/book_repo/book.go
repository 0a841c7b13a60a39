// Package book_repo provides the PostgreSQL book catalog repository.
package book_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/domain/catalog/book"
	"bookstore/internal/infrastructure/storage/postgres"
)

const (
	booksTable = "books"

	defaultListLimit = 50
	maxListLimit     = 500
)

var bookColumns = postgres.ExtractDBColumns[book.Book]()

// BookRepo stores catalog rows. Stock and price columns are written only at insert;
// afterwards they belong to the inventory engine.
type BookRepo struct {
	querier postgres.Querier
	builder squirrel.StatementBuilderType
}

var _ book.Repository = (*BookRepo)(nil)

// NewBookRepo creates a new book repository reading and writing through q.
func NewBookRepo(q postgres.Querier) *BookRepo {
	return &BookRepo{
		querier: q,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *BookRepo) insertQuery(b *book.Book) (string, []any, error) {
	data := postgres.StructToMap(b)
	filtered := make(map[string]any, len(bookColumns))
	for _, col := range bookColumns {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}
	return r.builder.Insert(booksTable).SetMap(filtered).ToSql()
}

// Create inserts a new book.
func (r *BookRepo) Create(ctx context.Context, b *book.Book) error {
	sql, args, err := r.insertQuery(b)
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier.Exec(ctx, sql, args...); err != nil {
		return apperror.FromStoreError(fmt.Errorf("insert %s: %w", booksTable, err), "book", b.ID)
	}
	return nil
}

func (r *BookRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder.Select(bookColumns...).From(booksTable)
}

// GetByID retrieves a book by ID.
func (r *BookRepo) GetByID(ctx context.Context, bookID id.ID) (*book.Book, error) {
	sql, args, err := r.baseSelect().
		Where(squirrel.Eq{"id": bookID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b book.Book
	if err := pgxscan.Get(ctx, r.querier, &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("book", bookID.String())
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &b, nil
}

// GetByISBN retrieves a book by its ISBN.
func (r *BookRepo) GetByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	sql, args, err := r.baseSelect().
		Where(squirrel.Eq{"isbn": isbn}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b book.Book
	if err := pgxscan.Get(ctx, r.querier, &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("book", isbn)
		}
		return nil, fmt.Errorf("get book by isbn: %w", err)
	}
	return &b, nil
}

func (r *BookRepo) updateDetailsQuery(b *book.Book) (string, []any, error) {
	return r.builder.Update(booksTable).
		Set("title", b.Title).
		Set("author", b.Author).
		Set("updated_at", b.UpdatedAt).
		Where(squirrel.Eq{"id": b.ID}).
		ToSql()
}

// UpdateDetails rewrites the descriptive columns of a book.
func (r *BookRepo) UpdateDetails(ctx context.Context, b *book.Book) error {
	sql, args, err := r.updateDetailsQuery(b)
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.querier.Exec(ctx, sql, args...)
	if err != nil {
		return apperror.FromStoreError(fmt.Errorf("update %s: %w", booksTable, err), "book", b.ID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("book", b.ID.String())
	}
	return nil
}

func (r *BookRepo) listQuery(f book.ListFilter) (string, []any, error) {
	q := r.baseSelect()
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"title": pattern},
			squirrel.ILike{"author": pattern},
			squirrel.Eq{"isbn": f.Search},
		})
	}
	if f.ActiveOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	return q.OrderBy("title ASC", "id ASC").
		Limit(uint64(limit)).
		Offset(uint64(max(f.Offset, 0))).
		ToSql()
}

// List returns books matching the filter ordered by title.
func (r *BookRepo) List(ctx context.Context, f book.ListFilter) ([]*book.Book, error) {
	sql, args, err := r.listQuery(f)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var books []*book.Book
	if err := pgxscan.Select(ctx, r.querier, &books, sql, args...); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}
