package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ExecBatch sends all queued statements in one round trip and checks every result.
// Inside a transaction the first failing statement aborts the transaction.
func ExecBatch(ctx context.Context, q Querier, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}

	results := q.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("batch statement %d: %w", i, err)
		}
	}
	return results.Close()
}
