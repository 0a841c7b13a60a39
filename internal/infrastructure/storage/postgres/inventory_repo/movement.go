package inventory_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/domain/inventory"
	"bookstore/internal/infrastructure/storage/postgres"
)

const (
	movementsTable = "inventory_movements"

	defaultListLimit = 50
	maxListLimit     = 500
)

var movementColumns = postgres.ExtractDBColumns[inventory.Movement]()

// MovementRepo persists ledger entries.
// Write methods take the transaction's Querier; Get and List read from the pool.
type MovementRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ inventory.MovementReader = (*MovementRepo)(nil)

// NewMovementRepo creates a new movement repository.
func NewMovementRepo(txManager *postgres.TxManager) *MovementRepo {
	return &MovementRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *MovementRepo) insertQuery(movements ...*inventory.Movement) (string, []any, error) {
	q := r.builder.Insert(movementsTable).Columns(movementColumns...)
	for _, m := range movements {
		q = q.Values(postgres.StructValues(m)...)
	}
	return q.ToSql()
}

// Create inserts a new entry.
func (r *MovementRepo) Create(ctx context.Context, q postgres.Querier, m *inventory.Movement) error {
	sql, args, err := r.insertQuery(m)
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// CreateBatch inserts entries in one round trip.
func (r *MovementRepo) CreateBatch(ctx context.Context, q postgres.Querier, movements []*inventory.Movement) error {
	batch := &pgx.Batch{}
	for _, m := range movements {
		sql, args, err := r.insertQuery(m)
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		batch.Queue(sql, args...)
	}

	if err := postgres.ExecBatch(ctx, q, batch); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}
	return nil
}

func (r *MovementRepo) updateStatusQuery(m *inventory.Movement) (string, []any, error) {
	return r.builder.Update(movementsTable).
		Set("status", m.Status).
		Set("notes", m.Notes).
		Set("updated_at", m.UpdatedAt).
		Where(squirrel.Eq{"id": m.ID, "status": inventory.StatusPending}).
		ToSql()
}

// UpdateStatus persists the transition of a PENDING entry.
// Entries that are already terminal are never touched.
func (r *MovementRepo) UpdateStatus(ctx context.Context, q postgres.Querier, m *inventory.Movement) error {
	sql, args, err := r.updateStatusQuery(m)
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update movement status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("movement %s: %w", m.ID, inventory.ErrTerminalStatus)
	}
	return nil
}

// Get returns one ledger entry.
func (r *MovementRepo) Get(ctx context.Context, movementID id.ID) (*inventory.Movement, error) {
	sql, args, err := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"id": movementID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m inventory.Movement
	if err := pgxscan.Get(ctx, r.txManager.Querier(), &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("movement", movementID)
		}
		return nil, apperror.FromStoreError(err, "movement", movementID)
	}
	return &m, nil
}

func (r *MovementRepo) listQuery(filter inventory.MovementFilter) (string, []any, error) {
	q := r.builder.Select(movementColumns...).From(movementsTable)

	if filter.EntityType != nil {
		q = q.Where(squirrel.Eq{"entity_type": *filter.EntityType})
	}
	if filter.EntityID != nil {
		q = q.Where(squirrel.Eq{"entity_id": *filter.EntityID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.MovementType != nil {
		q = q.Where(squirrel.Eq{"movement_type": *filter.MovementType})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.Lt{"created_at": *filter.To})
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	q = q.OrderBy("created_at DESC", "id DESC").Limit(uint64(limit))
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q.ToSql()
}

// List returns ledger entries matching the filter, newest first.
func (r *MovementRepo) List(ctx context.Context, filter inventory.MovementFilter) ([]*inventory.Movement, error) {
	sql, args, err := r.listQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	movements := make([]*inventory.Movement, 0)
	if err := pgxscan.Select(ctx, r.txManager.Querier(), &movements, sql, args...); err != nil {
		return nil, apperror.FromStoreError(err, "movement", nil)
	}
	return movements, nil
}
