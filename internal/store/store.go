// Package store defines the PatternStore interface for persisting the
// patterns a memory has learned, along with in-memory and SQLite
// implementations.
//
// The store only records inputs. Couplings are rebuilt by replaying the
// patterns in sequence order, which reproduces the Hebbian average exactly.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nvandessel/hopfield/internal/pattern"
)

// ErrNotInitialized is returned by Meta when the store has no network yet.
var ErrNotInitialized = errors.New("store not initialized")

// Meta describes the network a store belongs to.
type Meta struct {
	Shape     pattern.Shape `json:"shape"`
	Seed      *uint64       `json:"seed,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Record is one learned pattern.
type Record struct {
	ID        string          `json:"id"`
	Seq       int             `json:"seq"`              // 1-based learning order
	Label     string          `json:"label,omitempty"`  // optional human name
	Source    string          `json:"source,omitempty"` // file the pattern came from
	Pattern   pattern.Pattern `json:"-"`
	CreatedAt time.Time       `json:"created_at"`
}

// PatternStore persists a network's shape and its learned patterns.
type PatternStore interface {
	// Init records the network meta. It fails if the store is already
	// initialized with a different shape.
	Init(ctx context.Context, meta Meta) error

	// Meta returns the stored meta or ErrNotInitialized.
	Meta(ctx context.Context) (Meta, error)

	// AddPattern appends a pattern. ID, Seq and CreatedAt are assigned by
	// the store when empty; the stored record is returned.
	AddPattern(ctx context.Context, rec Record) (Record, error)

	// Patterns returns every record ordered by Seq.
	Patterns(ctx context.Context) ([]Record, error)

	// Count returns the number of stored patterns.
	Count(ctx context.Context) (int, error)

	Close() error
}
