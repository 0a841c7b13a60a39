package apperror

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the service reacts to.
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
	sqlStateQueryCanceled        = "57014"
	sqlStateUniqueViolation      = "23505"
	sqlStateCheckViolation       = "23514"
)

// FromStoreError maps a storage error into the AppError taxonomy.
// AppErrors pass through unchanged; nil stays nil.
// entity and id are used for not-found and duplicate messages.
func FromStoreError(err error, entity string, id any) error {
	if err == nil {
		return nil
	}
	if IsAppError(err) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound(entity, id).WithCause(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateLockNotAvailable:
			return NewDatabase(err, true).WithDetail("sqlstate", pgErr.Code)
		case sqlStateQueryCanceled:
			return NewDatabase(err, false).WithDetail("sqlstate", pgErr.Code).
				WithDetail("reason", "statement timeout")
		case sqlStateUniqueViolation:
			return NewDuplicate(entity, pgErr.ConstraintName, "").WithCause(err)
		case sqlStateCheckViolation:
			return NewInvariantViolation("constraint violated: " + pgErr.ConstraintName).WithCause(err)
		}
		return NewDatabase(err, false).WithDetail("sqlstate", pgErr.Code)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewDatabase(err, true).WithDetail("reason", "deadline exceeded")
	}
	return NewDatabase(err, false)
}
