// Package types provides common value types.
package types

import (
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits stored for amounts (NUMERIC(12,2)).
const MoneyScale = 2

// maxMoney is the first amount that no longer fits NUMERIC(12,2).
var maxMoney = decimal.New(1, 10)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// MoneyPtr returns a pointer to a parsed constant. Tests only.
func MoneyPtr(s string) *Money {
	m := MustMoney(s)
	return &m
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// MoneyEqual compares optional amounts by value, so 10 and 10.00 are equal.
func MoneyEqual(a, b *Money) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// FitsMoneyColumn reports whether m can be stored without rounding or overflow.
func FitsMoneyColumn(m Money) bool {
	return m.Equal(m.Round(MoneyScale)) && m.Abs().LessThan(maxMoney)
}
