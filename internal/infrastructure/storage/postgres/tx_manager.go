package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bookstore/internal/core/tx"
	"bookstore/pkg/logger"
)

var tracer = otel.Tracer("bookstore/tx")

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
// Repositories receive it explicitly so the transaction they run in is always visible.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// TxManager manages database transactions with support for:
// - Lock and statement timeout protection
// - Rollback on every exit path, including panics and cancellation
// - Distributed tracing integration
type TxManager struct {
	pool     *pgxpool.Pool
	defaults tx.Options
}

// NewTxManager creates a new transaction manager.
func NewTxManager(pool *Pool, defaults tx.Options) *TxManager {
	return &TxManager{pool: pool.Pool, defaults: defaults}
}

// Querier returns the pool for statements that run outside a transaction.
func (m *TxManager) Querier() Querier {
	return m.pool
}

// RunInTransaction executes fn within a transaction using the manager defaults.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context, q Querier) error) error {
	return m.RunInTransactionWithOptions(ctx, m.defaults, fn)
}

// ReadOnly executes fn in a read-only transaction.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context, q Querier) error) error {
	opts := m.defaults
	opts.ReadOnly = true
	return m.RunInTransactionWithOptions(ctx, opts, fn)
}

// RunInTransactionWithOptions executes fn with custom transaction options.
// The transaction commits when fn returns nil and is rolled back otherwise.
func (m *TxManager) RunInTransactionWithOptions(ctx context.Context, opts tx.Options, fn func(ctx context.Context, q Querier) error) (err error) {
	ctx, span := tracer.Start(ctx, "transaction",
		trace.WithAttributes(
			attribute.String("tx.isolation", string(opts.Isolation)),
			attribute.Int64("tx.lock_timeout_ms", opts.LockTimeout.Milliseconds()),
			attribute.Bool("tx.read_only", opts.ReadOnly),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "transaction failed")
		}
		span.End()
	}()

	pgxTx, err := m.pool.BeginTx(ctx, pgxTxOptions(opts))
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	// Runs after commit as a no-op, and on every failure or panic as the real rollback.
	// A detached context lets the rollback finish when ctx is already cancelled.
	defer func() {
		rbErr := pgxTx.Rollback(context.WithoutCancel(ctx))
		if rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			logger.Error(ctx, "rollback failed", "error", rbErr, "original_error", err)
		}
	}()

	for _, stmt := range sessionSettings(opts) {
		if _, err := pgxTx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply %q: %w", stmt, err)
		}
	}

	if err := fn(ctx, pgxTx); err != nil {
		return err
	}

	if err := pgxTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func pgxTxOptions(opts tx.Options) pgx.TxOptions {
	txOpts := pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	}
	switch opts.Isolation {
	case tx.RepeatableRead:
		txOpts.IsoLevel = pgx.RepeatableRead
	case tx.Serializable:
		txOpts.IsoLevel = pgx.Serializable
	}
	if opts.ReadOnly {
		txOpts.AccessMode = pgx.ReadOnly
	}
	return txOpts
}

// sessionSettings returns the SET LOCAL statements applied at transaction start.
func sessionSettings(opts tx.Options) []string {
	var stmts []string
	if opts.LockTimeout > 0 {
		stmts = append(stmts, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", opts.LockTimeout.Milliseconds()))
	}
	if opts.StatementTimeout > 0 {
		stmts = append(stmts, fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", opts.StatementTimeout.Milliseconds()))
	}
	return stmts
}
