package inventory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/pkg/logger"
)

var tracer = otel.Tracer("bookstore/inventory")

// DefaultMaxBulkSize caps ExecuteBulk when Config.MaxBulkSize is not set.
const DefaultMaxBulkSize = 500

// failureWriteTimeout bounds the independent ERROR write after a rollback.
const failureWriteTimeout = 10 * time.Second

// Config tunes the coordinator.
type Config struct {
	MaxBulkSize int
	// Now overrides the clock. Tests only.
	Now func() time.Time
}

// Coordinator applies changes to catalog items together with their ledger entries.
//
// Every change runs as: lock item, check preconditions, insert PENDING entry, update item,
// complete entry, enqueue event, commit. Any failure rolls the transaction back and then
// writes ERROR entries in a second, independent transaction. The original error is always
// returned.
type Coordinator struct {
	runner      TxRunner
	maxBulkSize int
	now         func() time.Time
	log         *logger.Logger
}

// NewCoordinator creates a coordinator on top of a transaction runner.
func NewCoordinator(runner TxRunner, cfg Config, log *logger.Logger) *Coordinator {
	if cfg.MaxBulkSize <= 0 {
		cfg.MaxBulkSize = DefaultMaxBulkSize
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = logger.Default()
	}
	return &Coordinator{
		runner:      runner,
		maxBulkSize: cfg.MaxBulkSize,
		now:         cfg.Now,
		log:         log.WithComponent("inventory.coordinator"),
	}
}

// failedChange pairs a change that was not applied with the reason recorded for it.
type failedChange struct {
	change Change
	reason string
}

// Execute applies a single change atomically and returns the COMPLETED ledger entry.
func (c *Coordinator) Execute(ctx context.Context, change Change) (*Movement, error) {
	ctx, span := tracer.Start(ctx, "inventory.Execute", trace.WithAttributes(changeAttributes(change)...))
	defer span.End()

	var completed *Movement
	err := c.runner.Run(ctx, func(ctx context.Context, uow UnitOfWork) error {
		m, err := c.apply(ctx, uow, &change)
		if err != nil {
			return err
		}
		completed = m
		return nil
	})
	if err != nil {
		err = c.normalize(err, change)
		span.RecordError(err)
		span.SetStatus(codes.Error, "movement failed")

		c.recordFailures(ctx, []failedChange{{change: change, reason: failureReason(err)}})
		c.log.WithContext(ctx).Warnw("inventory movement failed",
			"entity_type", change.EntityType,
			"entity_id", change.EntityID,
			"quantity_before", change.QuantityBefore,
			"quantity_after", change.QuantityAfter,
			"error", err,
		)
		return nil, err
	}

	span.SetAttributes(attribute.String("movement.id", completed.ID.String()),
		attribute.String("movement.type", string(completed.MovementType)))
	c.log.WithContext(ctx).Infow("inventory movement completed",
		"movement_id", completed.ID,
		"movement_type", completed.MovementType,
		"entity_id", completed.EntityID,
		"quantity_before", completed.QuantityBefore,
		"quantity_after", completed.QuantityAfter,
	)
	return completed, nil
}

// ExecuteBulk applies all changes in one transaction, all or nothing.
//
// Items are locked in (entity type, entity id) order so overlapping batches cannot
// deadlock; changes to the same item keep their relative order. Results are returned
// in input order. When the batch fails, every change gets an ERROR entry.
func (c *Coordinator) ExecuteBulk(ctx context.Context, changes []Change) ([]*Movement, error) {
	if len(changes) == 0 {
		return []*Movement{}, nil
	}
	if len(changes) > c.maxBulkSize {
		return nil, apperror.NewInvariantViolation(
			fmt.Sprintf("bulk size %d exceeds maximum of %d", len(changes), c.maxBulkSize)).
			WithDetail("size", len(changes)).
			WithDetail("max", c.maxBulkSize)
	}

	ctx, span := tracer.Start(ctx, "inventory.ExecuteBulk", trace.WithAttributes(
		attribute.Int("movement.count", len(changes)),
	))
	defer span.End()

	working := slices.Clone(changes)
	results := make([]*Movement, len(working))
	failedAt := -1

	err := c.runner.Run(ctx, func(ctx context.Context, uow UnitOfWork) error {
		for _, i := range LockOrder(working) {
			m, err := c.apply(ctx, uow, &working[i])
			if err != nil {
				failedAt = i
				return err
			}
			results[i] = m
		}
		return nil
	})
	if err != nil {
		if failedAt >= 0 {
			err = c.normalize(err, working[failedAt])
		} else {
			err = apperror.FromStoreError(err, "inventory batch", len(working))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "bulk movement failed")

		c.recordFailures(ctx, bulkFailures(working, failedAt, err))
		c.log.WithContext(ctx).Warnw("inventory bulk movement failed",
			"count", len(working),
			"failed_index", failedAt,
			"error", err,
		)
		return nil, err
	}

	c.log.WithContext(ctx).Infow("inventory bulk movement completed", "count", len(results))
	return results, nil
}

// apply runs one change inside an open transaction. PriceBefore and MovementType
// are filled in on change when the caller left them empty.
func (c *Coordinator) apply(ctx context.Context, uow UnitOfWork, change *Change) (*Movement, error) {
	if err := change.Validate(); err != nil {
		return nil, err
	}

	item, err := uow.Items().LockForUpdate(ctx, change.EntityType, change.EntityID)
	if err != nil {
		return nil, fmt.Errorf("lock %s %s: %w", change.EntityType, change.EntityID, err)
	}

	registration := change.MovementType == MovementRegistration
	if !item.Active && !registration {
		return nil, apperror.NewInvariantViolation(
			fmt.Sprintf("%s %s is deactivated", change.EntityType, change.EntityID)).
			WithDetail("entity_id", change.EntityID)
	}
	if item.Active && registration {
		return nil, apperror.NewInvariantViolation(
			fmt.Sprintf("%s %s is already registered", change.EntityType, change.EntityID)).
			WithDetail("entity_id", change.EntityID)
	}
	if item.Quantity != change.QuantityBefore {
		return nil, apperror.NewConcurrentModification(string(change.EntityType), change.EntityID).
			WithDetail("expected_quantity", change.QuantityBefore).
			WithDetail("actual_quantity", item.Quantity)
	}
	if change.PriceBefore == nil {
		price := item.Price
		change.PriceBefore = &price
	} else if !change.PriceBefore.Equal(item.Price) {
		return nil, apperror.NewConcurrentModification(string(change.EntityType), change.EntityID).
			WithDetail("expected_price", change.PriceBefore.String()).
			WithDetail("actual_price", item.Price.String())
	}
	if change.MovementType == "" {
		change.MovementType = DetermineMovementType(false, false,
			change.PriceBefore, change.PriceAfter, change.QuantityBefore, change.QuantityAfter)
	}

	m := NewMovement(*change, c.now())
	if err := uow.Movements().Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create movement: %w", err)
	}

	update := ItemUpdate{Quantity: change.QuantityAfter, Price: change.PriceAfter}
	switch change.MovementType {
	case MovementRegistration:
		update.Active = ptr(true)
	case MovementDeactivation:
		update.Active = ptr(false)
	}
	if err := uow.Items().Update(ctx, change.EntityType, change.EntityID, update); err != nil {
		return nil, fmt.Errorf("update %s %s: %w", change.EntityType, change.EntityID, err)
	}

	if err := m.Complete(c.now()); err != nil {
		return nil, err
	}
	if err := uow.Movements().UpdateStatus(ctx, m); err != nil {
		return nil, fmt.Errorf("complete movement: %w", err)
	}

	if err := uow.Outbox().Publish(ctx, completedEvent(m)); err != nil {
		return nil, fmt.Errorf("enqueue movement event: %w", err)
	}
	return m, nil
}

// recordFailures persists ERROR entries in their own transaction, detached from request
// cancellation. Its failure is logged and never returned.
func (c *Coordinator) recordFailures(ctx context.Context, failures []failedChange) {
	if len(failures) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureWriteTimeout)
	defer cancel()

	now := c.now()
	records := make([]*Movement, 0, len(failures))
	for _, f := range failures {
		records = append(records, NewFailedMovement(f.change, f.reason, now))
	}

	err := c.runner.Run(ctx, func(ctx context.Context, uow UnitOfWork) error {
		if len(records) == 1 {
			return uow.Movements().Create(ctx, records[0])
		}
		return uow.Movements().CreateBatch(ctx, records)
	})
	if err != nil {
		c.log.WithContext(ctx).Errorw("failed to persist error movements",
			"count", len(records),
			"entity_id", records[0].EntityID,
			"error", err,
		)
	}
}

// normalize maps storage errors into the AppError taxonomy.
func (c *Coordinator) normalize(err error, change Change) error {
	return apperror.FromStoreError(err, string(change.EntityType), change.EntityID)
}

// LockOrder returns indexes of changes sorted by (entity type, entity id).
// The sort is stable so changes to the same item keep their order.
func LockOrder(changes []Change) []int {
	order := make([]int, len(changes))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		if r := cmp.Compare(changes[a].EntityType, changes[b].EntityType); r != 0 {
			return r
		}
		return id.Compare(changes[a].EntityID, changes[b].EntityID)
	})
	return order
}

func bulkFailures(changes []Change, failedAt int, cause error) []failedChange {
	failures := make([]failedChange, len(changes))
	for i, ch := range changes {
		reason := fmt.Sprintf("batch aborted: %s", failureReason(cause))
		if failedAt >= 0 && i != failedAt {
			reason = fmt.Sprintf("batch aborted: change %d failed: %s", failedAt, failureReason(cause))
		}
		failures[i] = failedChange{change: ch, reason: reason}
	}
	if failedAt >= 0 {
		failures[failedAt].reason = failureReason(cause)
	}
	return failures
}

func failureReason(err error) string {
	if appErr, ok := apperror.AsAppError(err); ok {
		reason := appErr.Code + ": " + appErr.Message
		if expected, ok := appErr.Details["expected_quantity"]; ok {
			reason += fmt.Sprintf(" (expected quantity %v, found %v)", expected, appErr.Details["actual_quantity"])
		}
		if expected, ok := appErr.Details["expected_price"]; ok {
			reason += fmt.Sprintf(" (expected price %v, found %v)", expected, appErr.Details["actual_price"])
		}
		return reason
	}
	return err.Error()
}

func ptr[T any](v T) *T {
	return &v
}

func changeAttributes(change Change) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("entity.type", string(change.EntityType)),
		attribute.String("entity.id", change.EntityID.String()),
		attribute.Int64("quantity.before", change.QuantityBefore),
		attribute.Int64("quantity.after", change.QuantityAfter),
	}
}
