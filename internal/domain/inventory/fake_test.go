package inventory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
)

// memStore is an in-memory TxRunner. Transactions are fully serialized, which gives the
// same observable behavior as row locks for tests on a handful of items. Each transaction
// works on a copy of the state that is swapped in on commit.
type memStore struct {
	mu sync.Mutex

	items     map[id.ID]ItemSnapshot
	movements map[id.ID]Movement
	order     []id.ID
	events    []Event

	// failure injection
	failItemUpdate  error
	failStatus      error
	failOutbox      error
	failErrorWrites error
	failCommit      error

	runs   int
	locked []id.ID
}

func newMemStore() *memStore {
	return &memStore{
		items:     make(map[id.ID]ItemSnapshot),
		movements: make(map[id.ID]Movement),
	}
}

func (s *memStore) Run(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs++
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{
		store:     s,
		items:     maps.Clone(s.items),
		movements: maps.Clone(s.movements),
		order:     append([]id.ID(nil), s.order...),
		events:    append([]Event(nil), s.events...),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if s.failCommit != nil {
		return s.failCommit
	}

	s.items, s.movements, s.order, s.events = tx.items, tx.movements, tx.order, tx.events
	return nil
}

func (s *memStore) put(qty int64, price string) id.ID {
	return s.putID(id.New(), qty, price)
}

func (s *memStore) putID(itemID id.ID, qty int64, price string) id.ID {
	s.items[itemID] = ItemSnapshot{Quantity: qty, Price: mustMoney(price), Active: true}
	return itemID
}

func (s *memStore) item(itemID id.ID) ItemSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[itemID]
}

func (s *memStore) byStatus(status Status) []Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Movement
	for _, movementID := range s.order {
		if m := s.movements[movementID]; m.Status == status {
			out = append(out, m)
		}
	}
	return out
}

type memTx struct {
	store     *memStore
	items     map[id.ID]ItemSnapshot
	movements map[id.ID]Movement
	order     []id.ID
	events    []Event
}

func (t *memTx) Items() ItemStore              { return memItems{t} }
func (t *memTx) Movements() MovementRepository { return memMovements{t} }
func (t *memTx) Outbox() Outbox                { return memOutbox{t} }

type memItems struct{ tx *memTx }

func (r memItems) LockForUpdate(_ context.Context, entityType EntityType, entityID id.ID) (ItemSnapshot, error) {
	item, ok := r.tx.items[entityID]
	if !ok {
		return ItemSnapshot{}, apperror.NewNotFound(string(entityType), entityID)
	}
	r.tx.store.locked = append(r.tx.store.locked, entityID)
	return item, nil
}

func (r memItems) Update(_ context.Context, _ EntityType, entityID id.ID, update ItemUpdate) error {
	if err := r.tx.store.failItemUpdate; err != nil {
		return err
	}
	item := r.tx.items[entityID]
	item.Quantity = update.Quantity
	if update.Price != nil {
		item.Price = *update.Price
	}
	if update.Active != nil {
		item.Active = *update.Active
	}
	r.tx.items[entityID] = item
	return nil
}

type memMovements struct{ tx *memTx }

func (r memMovements) Create(_ context.Context, m *Movement) error {
	if m.Status == StatusError && r.tx.store.failErrorWrites != nil {
		return r.tx.store.failErrorWrites
	}
	if _, exists := r.tx.movements[m.ID]; exists {
		return fmt.Errorf("duplicate movement %s", m.ID)
	}
	r.tx.movements[m.ID] = *m
	r.tx.order = append(r.tx.order, m.ID)
	return nil
}

func (r memMovements) UpdateStatus(_ context.Context, m *Movement) error {
	if err := r.tx.store.failStatus; err != nil {
		return err
	}
	stored, ok := r.tx.movements[m.ID]
	if !ok {
		return errors.New("movement not found")
	}
	if stored.Status != StatusPending {
		return ErrTerminalStatus
	}
	stored.Status, stored.Notes, stored.UpdatedAt = m.Status, m.Notes, m.UpdatedAt
	r.tx.movements[m.ID] = stored
	return nil
}

func (r memMovements) CreateBatch(ctx context.Context, movements []*Movement) error {
	for _, m := range movements {
		if err := r.Create(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

type memOutbox struct{ tx *memTx }

func (o memOutbox) Publish(_ context.Context, event Event) error {
	if err := o.tx.store.failOutbox; err != nil {
		return err
	}
	o.tx.events = append(o.tx.events, event)
	return nil
}
