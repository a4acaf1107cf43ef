package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nvandessel/hopfield/internal/pattern"
)

// InMemoryStore implements PatternStore for testing and development.
type InMemoryStore struct {
	mu      sync.RWMutex
	meta    *Meta
	records []Record
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Init records the network meta.
func (s *InMemoryStore) Init(ctx context.Context, meta Meta) error {
	if err := meta.Shape.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.meta != nil {
		return checkSameShape(*s.meta, meta)
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	meta.Shape = pattern.Shape(meta.Shape.Dims())
	s.meta = &meta
	return nil
}

// Meta returns the stored meta.
func (s *InMemoryStore) Meta(ctx context.Context) (Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.meta == nil {
		return Meta{}, ErrNotInitialized
	}
	return *s.meta, nil
}

// AddPattern appends a pattern.
func (s *InMemoryStore) AddPattern(ctx context.Context, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.meta == nil {
		return Record{}, ErrNotInitialized
	}
	if !rec.Pattern.Shape().Equal(s.meta.Shape) {
		return Record{}, &pattern.ShapeMismatchError{Want: s.meta.Shape.Dims(), Got: rec.Pattern.Shape().Dims()}
	}

	rec = fillRecord(rec, len(s.records)+1)
	s.records = append(s.records, rec)
	return rec, nil
}

// Patterns returns every record ordered by Seq.
func (s *InMemoryStore) Patterns(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records), nil
}

// Count returns the number of stored patterns.
func (s *InMemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Close is a no-op.
func (s *InMemoryStore) Close() error {
	return nil
}

func fillRecord(rec Record, seq int) Record {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.Seq = seq
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return rec
}

func checkSameShape(have, want Meta) error {
	if !have.Shape.Equal(want.Shape) {
		return fmt.Errorf("store already initialized with shape %s, got %s: %w",
			have.Shape, want.Shape, &pattern.ShapeMismatchError{Want: have.Shape.Dims(), Got: want.Shape.Dims()})
	}
	return nil
}
