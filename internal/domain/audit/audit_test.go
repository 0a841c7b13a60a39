package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	oldState := map[string]any{"quantity": int64(50), "price": "10.00", "title": "Dune"}
	newState := map[string]any{"quantity": 45, "price": "10.00", "isActive": false}

	changes := Diff(oldState, newState)

	assert.Equal(t, map[string]any{
		"quantity": map[string]any{"old": int64(50), "new": 45},
		"isActive": map[string]any{"old": nil, "new": false},
		"title":    map[string]any{"old": "Dune", "new": nil},
	}, changes)
}

func TestDiff_NoChanges(t *testing.T) {
	state := map[string]any{"quantity": 1}
	assert.Empty(t, Diff(state, state))
}
