package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bookstore/internal/core/types"
)

func TestDetermineMovementType(t *testing.T) {
	p10 := types.MoneyPtr("10")
	p10b := types.MoneyPtr("10.00")
	p12 := types.MoneyPtr("12")

	tests := []struct {
		name        string
		isCreate    bool
		isDelete    bool
		priceBefore *types.Money
		priceAfter  *types.Money
		qtyBefore   int64
		qtyAfter    int64
		want        MovementType
	}{
		{"registration", true, false, nil, p10, 0, 20, MovementRegistration},
		{"create wins over delete", true, true, p10, p12, 5, 0, MovementRegistration},
		{"deactivation", false, true, p10, nil, 5, 0, MovementDeactivation},
		{"delete wins over changes", false, true, p10, p12, 5, 7, MovementDeactivation},
		{"price and stock", false, false, p10, p12, 5, 7, MovementPriceAndStockAdjustment},
		{"price only", false, false, p10, p12, 5, 5, MovementPriceChange},
		{"price set from unknown", false, false, nil, p12, 5, 5, MovementPriceChange},
		{"stock decrease", false, false, p10, nil, 50, 45, MovementStockAdjustment},
		{"stock increase", false, false, nil, nil, 0, 3, MovementStockAdjustment},
		{"same price different scale", false, false, p10, p10b, 5, 6, MovementStockAdjustment},
		{"nothing", false, false, p10, p10b, 5, 5, MovementNoChange},
		{"nothing without prices", false, false, nil, nil, 5, 5, MovementNoChange},
		{"price cleared is not a change", false, false, p10, nil, 5, 5, MovementNoChange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetermineMovementType(tt.isCreate, tt.isDelete, tt.priceBefore, tt.priceAfter, tt.qtyBefore, tt.qtyAfter)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestDetermineMovementType_Total(t *testing.T) {
	prices := []*types.Money{nil, types.MoneyPtr("1"), types.MoneyPtr("2")}
	quantities := []int64{0, 1}
	bools := []bool{false, true}

	for _, create := range bools {
		for _, del := range bools {
			for _, pb := range prices {
				for _, pa := range prices {
					for _, qb := range quantities {
						for _, qa := range quantities {
							got := DetermineMovementType(create, del, pb, pa, qb, qa)
							assert.True(t, got.Valid())
							assert.Equal(t, got, DetermineMovementType(create, del, pb, pa, qb, qa))
						}
					}
				}
			}
		}
	}
}

func TestStockDirection(t *testing.T) {
	assert.Equal(t, DirectionDecrease, StockDirection(50, 45))
	assert.Equal(t, DirectionIncrease, StockDirection(0, 20))
	assert.Equal(t, DirectionNone, StockDirection(7, 7))
}

func TestMovementType_Valid(t *testing.T) {
	assert.True(t, MovementPriceChange.Valid())
	assert.False(t, MovementType("").Valid())
	assert.False(t, MovementType("RESTOCK").Valid())
}
