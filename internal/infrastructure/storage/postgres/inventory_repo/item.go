// Package inventory_repo provides the PostgreSQL side of the inventory movement engine.
// Every method takes the Querier of the transaction it runs in.
package inventory_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/core/types"
	"bookstore/internal/domain/inventory"
	"bookstore/internal/infrastructure/storage/postgres"
)

// itemTables maps engine entity types to their catalog tables.
var itemTables = map[inventory.EntityType]string{
	inventory.EntityBook: "books",
}

// ItemRepo locks and updates catalog item rows.
type ItemRepo struct {
	builder squirrel.StatementBuilderType
}

// NewItemRepo creates a new catalog item repository.
func NewItemRepo() *ItemRepo {
	return &ItemRepo{
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

type itemRow struct {
	Quantity int64       `db:"quantity"`
	Price    types.Money `db:"price"`
	IsActive bool        `db:"is_active"`
}

func tableFor(entityType inventory.EntityType) (string, error) {
	table, ok := itemTables[entityType]
	if !ok {
		return "", apperror.NewInvariantViolation(fmt.Sprintf("unsupported entity type %q", entityType))
	}
	return table, nil
}

func (r *ItemRepo) lockQuery(entityType inventory.EntityType, entityID id.ID) (string, []any, error) {
	table, err := tableFor(entityType)
	if err != nil {
		return "", nil, err
	}
	return r.builder.Select("quantity", "price", "is_active").
		From(table).
		Where(squirrel.Eq{"id": entityID}).
		Suffix("FOR UPDATE").
		ToSql()
}

// LockForUpdate reads the item holding a row lock until the transaction ends.
func (r *ItemRepo) LockForUpdate(ctx context.Context, q postgres.Querier, entityType inventory.EntityType, entityID id.ID) (inventory.ItemSnapshot, error) {
	sql, args, err := r.lockQuery(entityType, entityID)
	if err != nil {
		return inventory.ItemSnapshot{}, err
	}

	var row itemRow
	if err := pgxscan.Get(ctx, q, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return inventory.ItemSnapshot{}, apperror.NewNotFound(string(entityType), entityID)
		}
		return inventory.ItemSnapshot{}, apperror.FromStoreError(err, string(entityType), entityID)
	}

	return inventory.ItemSnapshot{Quantity: row.Quantity, Price: row.Price, Active: row.IsActive}, nil
}

func (r *ItemRepo) updateQuery(entityType inventory.EntityType, entityID id.ID, update inventory.ItemUpdate) (string, []any, error) {
	table, err := tableFor(entityType)
	if err != nil {
		return "", nil, err
	}

	q := r.builder.Update(table).
		Set("quantity", update.Quantity).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": entityID})
	if update.Price != nil {
		q = q.Set("price", *update.Price)
	}
	if update.Active != nil {
		q = q.Set("is_active", *update.Active)
	}
	return q.ToSql()
}

// Update writes the new quantity, and price or active flag when set.
func (r *ItemRepo) Update(ctx context.Context, q postgres.Querier, entityType inventory.EntityType, entityID id.ID, update inventory.ItemUpdate) error {
	sql, args, err := r.updateQuery(entityType, entityID, update)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return apperror.FromStoreError(err, string(entityType), entityID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(string(entityType), entityID)
	}
	return nil
}
