package dto

import (
	"fmt"
	"time"

	"bookstore/internal/core/id"
	"bookstore/internal/domain/catalog/book"
	"bookstore/internal/domain/inventory"
)

// MovementResponse is a ledger entry with its stock direction.
type MovementResponse struct {
	*inventory.Movement
	Direction inventory.Direction `json:"direction"`
}

// FromMovement creates MovementResponse from a ledger entry.
func FromMovement(m *inventory.Movement) MovementResponse {
	return MovementResponse{Movement: m, Direction: m.Direction()}
}

// FromMovements converts a slice of ledger entries.
func FromMovements(ms []*inventory.Movement) []MovementResponse {
	out := make([]MovementResponse, len(ms))
	for i, m := range ms {
		out[i] = FromMovement(m)
	}
	return out
}

// MovementListQuery filters the ledger listing.
type MovementListQuery struct {
	PageQuery
	EntityType   string     `form:"entityType"`
	EntityID     string     `form:"entityId"`
	Status       string     `form:"status"`
	MovementType string     `form:"movementType"`
	From         *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To           *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// ToFilter validates the query and converts it to a ledger filter.
func (q MovementListQuery) ToFilter() (inventory.MovementFilter, error) {
	f := inventory.MovementFilter{
		From:   q.From,
		To:     q.To,
		Limit:  q.Limit,
		Offset: q.Offset,
	}

	if q.EntityType != "" {
		et := inventory.EntityType(q.EntityType)
		if !et.Valid() {
			return f, fmt.Errorf("unknown entityType %q", q.EntityType)
		}
		f.EntityType = &et
	}
	if q.EntityID != "" {
		entityID, err := id.Parse(q.EntityID)
		if err != nil {
			return f, fmt.Errorf("invalid entityId: %w", err)
		}
		f.EntityID = &entityID
	}
	if q.Status != "" {
		st := inventory.Status(q.Status)
		if !st.Valid() {
			return f, fmt.Errorf("unknown status %q", q.Status)
		}
		f.Status = &st
	}
	if q.MovementType != "" {
		mt := inventory.MovementType(q.MovementType)
		if !mt.Valid() {
			return f, fmt.Errorf("unknown movementType %q", q.MovementType)
		}
		f.MovementType = &mt
	}
	return f, nil
}

// BulkItemRequest is one line of a bulk adjustment.
type BulkItemRequest struct {
	BookID string `json:"bookId" binding:"required"`
	UpdateInventoryRequest
}

// BulkAdjustRequest applies several adjustments atomically.
type BulkAdjustRequest struct {
	Items []BulkItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ToItems converts the request to service items.
func (r BulkAdjustRequest) ToItems() ([]book.BulkItem, error) {
	items := make([]book.BulkItem, 0, len(r.Items))
	for i, item := range r.Items {
		bookID, err := id.Parse(item.BookID)
		if err != nil {
			return nil, fmt.Errorf("items[%d].bookId: %w", i, err)
		}
		items = append(items, book.BulkItem{
			BookID:               bookID,
			UpdateInventoryInput: item.ToInput(),
		})
	}
	return items, nil
}
