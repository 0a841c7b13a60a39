package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type timestamps struct {
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type mockRecord struct {
	ID    string `db:"id"`
	Title string `db:"title"`
	Skip  string `db:"-"`
	plain int
	timestamps
}

func TestExtractDBColumns(t *testing.T) {
	assert.Equal(t, []string{"id", "title", "created_at", "updated_at"}, ExtractDBColumns[mockRecord]())
	assert.Equal(t, []string{"id", "title", "created_at", "updated_at"}, ExtractDBColumns[*mockRecord]())
	assert.Empty(t, ExtractDBColumns[int]())
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	rec := mockRecord{ID: "b-1", Title: "Dune", Skip: "x", plain: 3, timestamps: timestamps{CreatedAt: now}}

	m := StructToMap(&rec)

	assert.Equal(t, map[string]any{
		"id":         "b-1",
		"title":      "Dune",
		"created_at": now,
		"updated_at": time.Time{},
	}, m)
	assert.Nil(t, StructToMap(42))
}

func TestStructValues(t *testing.T) {
	now := time.Now().UTC()
	rec := mockRecord{ID: "b-1", Title: "Dune", timestamps: timestamps{CreatedAt: now, UpdatedAt: now}}

	assert.Equal(t, []any{"b-1", "Dune", now, now}, StructValues(rec))
}
