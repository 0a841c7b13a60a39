package inventory

import (
	"bookstore/internal/core/types"
)

// MovementType is the reason a movement happened.
type MovementType string

const (
	MovementRegistration            MovementType = "REGISTRATION"
	MovementDeactivation            MovementType = "DEACTIVATION"
	MovementPriceAndStockAdjustment MovementType = "PRICE_AND_STOCK_ADJUSTMENT"
	MovementPriceChange             MovementType = "PRICE_CHANGE"
	MovementStockAdjustment         MovementType = "STOCK_ADJUSTMENT"
	MovementNoChange                MovementType = "NO_CHANGE"
)

// Valid reports whether t is one of the known movement types.
func (t MovementType) Valid() bool {
	for _, known := range movementTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Direction is the sign of a quantity change.
type Direction string

const (
	DirectionIncrease Direction = "INCREASE"
	DirectionDecrease Direction = "DECREASE"
	DirectionNone     Direction = "NONE"
)

// changeShape is the closed set of change kinds a movement can have.
type changeShape int

const (
	shapeCreate changeShape = iota
	shapeDelete
	shapePriceAndQuantity
	shapePriceOnly
	shapeQuantityOnly
	shapeNone
	shapeCount
)

var movementTypes = [shapeCount]MovementType{
	shapeCreate:           MovementRegistration,
	shapeDelete:           MovementDeactivation,
	shapePriceAndQuantity: MovementPriceAndStockAdjustment,
	shapePriceOnly:        MovementPriceChange,
	shapeQuantityOnly:     MovementStockAdjustment,
	shapeNone:             MovementNoChange,
}

// DetermineMovementType classifies a change. Creation wins over deletion, which wins over
// the price/quantity comparison.
func DetermineMovementType(
	isCreate, isDelete bool,
	priceBefore, priceAfter *types.Money,
	quantityBefore, quantityAfter int64,
) MovementType {
	return movementTypes[shapeOf(isCreate, isDelete, PriceChanged(priceBefore, priceAfter), quantityBefore != quantityAfter)]
}

func shapeOf(isCreate, isDelete, priceChanged, quantityChanged bool) changeShape {
	switch {
	case isCreate:
		return shapeCreate
	case isDelete:
		return shapeDelete
	case priceChanged && quantityChanged:
		return shapePriceAndQuantity
	case priceChanged:
		return shapePriceOnly
	case quantityChanged:
		return shapeQuantityOnly
	default:
		return shapeNone
	}
}

// PriceChanged reports whether a new price is requested that differs from the old one.
// An unknown old price with a set new price counts as a change.
func PriceChanged(before, after *types.Money) bool {
	if after == nil {
		return false
	}
	return before == nil || !before.Equal(*after)
}

// StockDirection classifies the sign of a quantity change.
func StockDirection(before, after int64) Direction {
	switch {
	case after > before:
		return DirectionIncrease
	case after < before:
		return DirectionDecrease
	default:
		return DirectionNone
	}
}
