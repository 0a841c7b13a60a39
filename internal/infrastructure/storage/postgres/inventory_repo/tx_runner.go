package inventory_repo

import (
	"context"

	"bookstore/internal/core/id"
	"bookstore/internal/core/tx"
	"bookstore/internal/domain/inventory"
	"bookstore/internal/infrastructure/storage/postgres"
)

// TxRunner implements inventory.TxRunner on top of postgres.TxManager.
// Every Run opens a fresh transaction with the configured isolation and timeouts.
type TxRunner struct {
	txManager *postgres.TxManager
	opts      tx.Options
	items     *ItemRepo
	movements *MovementRepo
	outbox    *postgres.OutboxPublisher
}

var _ inventory.TxRunner = (*TxRunner)(nil)

// NewTxRunner wires the engine's transaction runner.
func NewTxRunner(
	txManager *postgres.TxManager,
	opts tx.Options,
	items *ItemRepo,
	movements *MovementRepo,
	outbox *postgres.OutboxPublisher,
) *TxRunner {
	return &TxRunner{
		txManager: txManager,
		opts:      opts,
		items:     items,
		movements: movements,
		outbox:    outbox,
	}
}

// Run executes fn with a unit of work bound to a new transaction.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, uow inventory.UnitOfWork) error) error {
	return r.txManager.RunInTransactionWithOptions(ctx, r.opts, func(ctx context.Context, q postgres.Querier) error {
		return fn(ctx, &unitOfWork{runner: r, q: q})
	})
}

// unitOfWork binds the repositories to one transaction's Querier.
type unitOfWork struct {
	runner *TxRunner
	q      postgres.Querier
}

func (u *unitOfWork) Items() inventory.ItemStore { return boundItems{u} }

func (u *unitOfWork) Movements() inventory.MovementRepository { return boundMovements{u} }

func (u *unitOfWork) Outbox() inventory.Outbox { return boundOutbox{u} }

type boundItems struct{ u *unitOfWork }

func (b boundItems) LockForUpdate(ctx context.Context, entityType inventory.EntityType, entityID id.ID) (inventory.ItemSnapshot, error) {
	return b.u.runner.items.LockForUpdate(ctx, b.u.q, entityType, entityID)
}

func (b boundItems) Update(ctx context.Context, entityType inventory.EntityType, entityID id.ID, update inventory.ItemUpdate) error {
	return b.u.runner.items.Update(ctx, b.u.q, entityType, entityID, update)
}

type boundMovements struct{ u *unitOfWork }

func (b boundMovements) Create(ctx context.Context, m *inventory.Movement) error {
	return b.u.runner.movements.Create(ctx, b.u.q, m)
}

func (b boundMovements) UpdateStatus(ctx context.Context, m *inventory.Movement) error {
	return b.u.runner.movements.UpdateStatus(ctx, b.u.q, m)
}

func (b boundMovements) CreateBatch(ctx context.Context, movements []*inventory.Movement) error {
	return b.u.runner.movements.CreateBatch(ctx, b.u.q, movements)
}

type boundOutbox struct{ u *unitOfWork }

func (b boundOutbox) Publish(ctx context.Context, event inventory.Event) error {
	return b.u.runner.outbox.Publish(ctx, b.u.q, postgres.DomainEvent{
		AggregateType: string(event.EntityType),
		AggregateID:   event.EntityID,
		EventType:     event.Type,
		Payload:       event.Payload,
	})
}
