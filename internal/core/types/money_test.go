package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyEqual(t *testing.T) {
	assert.True(t, MoneyEqual(nil, nil))
	assert.False(t, MoneyEqual(MoneyPtr("1"), nil))
	assert.False(t, MoneyEqual(nil, MoneyPtr("1")))
	assert.True(t, MoneyEqual(MoneyPtr("10"), MoneyPtr("10.00")))
	assert.False(t, MoneyEqual(MoneyPtr("10"), MoneyPtr("10.01")))
}

func TestNewMoneyFromString(t *testing.T) {
	m, err := NewMoneyFromString("19.99")
	require.NoError(t, err)
	assert.Equal(t, "19.99", m.String())

	_, err = NewMoneyFromString("abc")
	assert.Error(t, err)
	assert.True(t, Zero().IsZero())
}

func TestFitsMoneyColumn(t *testing.T) {
	tests := []struct {
		amount string
		want   bool
	}{
		{"0", true},
		{"19.99", true},
		{"10.000", true},
		{"9999999999.99", true},
		{"10.004", false},
		{"0.001", false},
		{"10000000000", false},
		{"-10000000000", false},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, FitsMoneyColumn(MustMoney(tt.amount)))
		})
	}
}
