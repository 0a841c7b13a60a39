// Package tx provides storage-independent transaction settings.
// Implementations live in infrastructure/storage.
package tx

import (
	"fmt"
	"strings"
	"time"
)

// Isolation is a transaction isolation level.
type Isolation string

const (
	ReadCommitted  Isolation = "read committed"
	RepeatableRead Isolation = "repeatable read"
	Serializable   Isolation = "serializable"
)

// Options configures a single transaction.
type Options struct {
	Isolation Isolation

	// ReadOnly rejects writes inside the transaction.
	ReadOnly bool

	// LockTimeout bounds the wait for row locks. Zero means the server default.
	LockTimeout time.Duration

	// StatementTimeout protects against long-running queries. Zero means the server default.
	StatementTimeout time.Duration
}

// DefaultOptions returns production-safe defaults.
func DefaultOptions() Options {
	return Options{
		Isolation:        ReadCommitted,
		LockTimeout:      5 * time.Second,
		StatementTimeout: 30 * time.Second,
	}
}

// ParseIsolation accepts "read_committed", "REPEATABLE READ", "serializable" and similar spellings.
func ParseIsolation(s string) (Isolation, error) {
	normalized := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "_", " ")))
	switch Isolation(normalized) {
	case "":
		return ReadCommitted, nil
	case ReadCommitted, RepeatableRead, Serializable:
		return Isolation(normalized), nil
	}
	return "", fmt.Errorf("unsupported isolation level %q", s)
}
