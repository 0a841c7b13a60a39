package inventory_repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// mockQuerier records statements and replays canned results.
type mockQuerier struct {
	execSQL  []string
	execArgs [][]any
	execTag  pgconn.CommandTag
	execErr  error

	queryErr error

	batchLen  int
	batchErrs map[int]error
}

func (m *mockQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.execSQL = append(m.execSQL, sql)
	m.execArgs = append(m.execArgs, args)
	return m.execTag, m.execErr
}

func (m *mockQuerier) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return &emptyRows{}, nil
}

func (m *mockQuerier) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return emptyRow{}
}

func (m *mockQuerier) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	m.batchLen = b.Len()
	return &mockBatchResults{errs: m.batchErrs}
}

type emptyRow struct{}

func (emptyRow) Scan(...any) error { return pgx.ErrNoRows }

// emptyRows is a result set without rows.
type emptyRows struct{ closed bool }

func (r *emptyRows) Close()                                       { r.closed = true }
func (r *emptyRows) Err() error                                   { return nil }
func (r *emptyRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT 0") }
func (r *emptyRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *emptyRows) Next() bool                                   { return false }
func (r *emptyRows) Scan(...any) error                            { return errors.New("no row") }
func (r *emptyRows) Values() ([]any, error)                       { return nil, errors.New("no row") }
func (r *emptyRows) RawValues() [][]byte                          { return nil }
func (r *emptyRows) Conn() *pgx.Conn                              { return nil }

type mockBatchResults struct {
	n      int
	errs   map[int]error
	closed bool
}

func (b *mockBatchResults) Exec() (pgconn.CommandTag, error) {
	err := b.errs[b.n]
	b.n++
	return pgconn.NewCommandTag("INSERT 0 1"), err
}

func (b *mockBatchResults) Query() (pgx.Rows, error) { return &emptyRows{}, nil }
func (b *mockBatchResults) QueryRow() pgx.Row        { return emptyRow{} }
func (b *mockBatchResults) Close() error {
	b.closed = true
	return nil
}
