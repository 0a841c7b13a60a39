package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/core/types"
)

func mustMoney(s string) types.Money {
	return types.MustMoney(s)
}

func testChange() Change {
	return Change{
		EntityType:     EntityBook,
		EntityID:       id.New(),
		Actor:          Actor{UserID: "u-1", FullName: "Grace Hopper", Role: "EDITOR"},
		QuantityBefore: 50,
		QuantityAfter:  45,
		Notes:          "damaged copies",
	}
}

func TestNewMovement_StartsPending(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	change := testChange()
	change.PriceAfter = types.MoneyPtr("12.50")

	m := NewMovement(change, now)

	assert.Equal(t, StatusPending, m.Status)
	assert.False(t, id.IsNil(m.ID))
	assert.Equal(t, change.EntityID, m.EntityID)
	assert.Equal(t, "u-1", m.UserID)
	assert.Equal(t, "Grace Hopper", m.UserFullName)
	assert.Equal(t, "EDITOR", m.UserRole)
	assert.Equal(t, "damaged copies", m.Notes)
	assert.Equal(t, now, m.CreatedAt)
	assert.Equal(t, now, m.UpdatedAt)

	// the entry must not alias the caller's price
	*change.PriceAfter = mustMoney("99")
	assert.Equal(t, "12.5", m.PriceAfter.String())
}

func TestMovement_Complete(t *testing.T) {
	m := NewMovement(testChange(), time.Now())
	later := time.Now().Add(time.Second)

	require.NoError(t, m.Complete(later))
	assert.Equal(t, StatusCompleted, m.Status)
	assert.Equal(t, later.UTC(), m.UpdatedAt)

	assert.ErrorIs(t, m.Complete(later), ErrTerminalStatus)
	assert.ErrorIs(t, m.Fail("late failure", later), ErrTerminalStatus)
	assert.Equal(t, StatusCompleted, m.Status)
}

func TestMovement_Fail(t *testing.T) {
	m := NewMovement(testChange(), time.Now())

	require.NoError(t, m.Fail("lock timeout", time.Now()))
	assert.Equal(t, StatusError, m.Status)
	assert.Equal(t, "lock timeout", m.Notes)

	assert.ErrorIs(t, m.Complete(time.Now()), ErrTerminalStatus)
}

func TestNewFailedMovement(t *testing.T) {
	m := NewFailedMovement(testChange(), "CONCURRENT_MODIFICATION: stale", time.Now())

	assert.Equal(t, StatusError, m.Status)
	assert.Equal(t, "CONCURRENT_MODIFICATION: stale", m.Notes)
	assert.Equal(t, MovementStockAdjustment, m.MovementType)
	assert.True(t, m.Status.IsTerminal())
}

func TestChange_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Change)
		ok     bool
	}{
		{"valid", func(c *Change) {}, true},
		{"zero after", func(c *Change) { c.QuantityAfter = 0 }, true},
		{"negative after", func(c *Change) { c.QuantityAfter = -1 }, false},
		{"negative price", func(c *Change) { c.PriceAfter = types.MoneyPtr("-0.01") }, false},
		{"price with cents", func(c *Change) { c.PriceAfter = types.MoneyPtr("10.50") }, true},
		{"sub-cent price", func(c *Change) { c.PriceAfter = types.MoneyPtr("10.004") }, false},
		{"sub-cent expected price", func(c *Change) { c.PriceBefore = types.MoneyPtr("0.001") }, false},
		{"price overflows column", func(c *Change) { c.PriceAfter = types.MoneyPtr("10000000000") }, false},
		{"unknown entity type", func(c *Change) { c.EntityType = "MAGAZINE" }, false},
		{"missing id", func(c *Change) { c.EntityID = id.ID{} }, false},
		{"bogus movement type", func(c *Change) { c.MovementType = "THEFT" }, false},
		{"explicit movement type", func(c *Change) { c.MovementType = MovementDeactivation }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testChange()
			tt.modify(&c)

			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperror.IsInvariantViolation(err), "got %v", err)
		})
	}
}

func TestStatus(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusError.IsTerminal())
	assert.True(t, StatusPending.Valid())
	assert.False(t, Status("DONE").Valid())
}
