// Package hopfield implements a Hopfield associative memory on top of a spin
// lattice. Patterns are learned with Hebb's rule: the coupling matrix is
// always the average of the outer products of every learned pattern in
// bipolar form, maintained incrementally so that learning never re-reads the
// stored patterns.
package hopfield

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/nvandessel/hopfield/internal/lattice"
	"github.com/nvandessel/hopfield/internal/pattern"
	"gonum.org/v1/gonum/mat"
)

// Lattice is the spin lattice a Memory writes its couplings into.
type Lattice interface {
	Nodes() int
	Shape() []int
	Weights() *mat.SymDense
	ReplaceWeights(w *mat.SymDense) error
	Spins() []int8
	SetSpins(spins []int8) error
	UpdateNeighbours()
}

// Observer receives notifications about memory operations. Implementations
// must be cheap; they run inside the memory's lock.
type Observer interface {
	ObserveLearn(patterns int, d time.Duration)
	ObserveOverlap(overlap float64)
}

// Memory is a Hebbian associative memory. It is safe for concurrent use:
// a learn call updates the couplings, the neighbour lists and the pattern
// list as one unit, and readers never see a partial update.
type Memory struct {
	mu       sync.RWMutex
	shape    pattern.Shape
	lattice  Lattice
	patterns []pattern.Pattern
	logger   *slog.Logger
	observer Observer
}

type options struct {
	seed     *uint64
	logger   *slog.Logger
	observer Observer
}

// Option configures a Memory.
type Option func(*options)

// WithSeed seeds the lattice's random source. Learning does not use it.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = &seed }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver registers an Observer.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

func buildOptions(opts []Option) options {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// New creates an empty memory backed by a new lattice of the given shape.
// It returns a *pattern.ShapeError if the shape is empty or has a
// non-positive dimension.
func New(shape []int, opts ...Option) (*Memory, error) {
	s, err := pattern.NewShape(shape...)
	if err != nil {
		return nil, err
	}

	o := buildOptions(opts)
	l, err := lattice.New(s, o.seed)
	if err != nil {
		return nil, fmt.Errorf("creating lattice: %w", err)
	}
	return newMemory(s, l, o), nil
}

// NewWithLattice creates an empty memory on an existing lattice. The
// lattice's couplings are reset to zero. WithSeed is ignored.
func NewWithLattice(l Lattice, opts ...Option) (*Memory, error) {
	if l == nil {
		return nil, fmt.Errorf("lattice is required")
	}
	s, err := pattern.NewShape(l.Shape()...)
	if err != nil {
		return nil, err
	}
	if s.Nodes() != l.Nodes() {
		return nil, &pattern.ShapeError{
			Dims:   s.Dims(),
			Reason: fmt.Sprintf("shape describes %d nodes, lattice has %d", s.Nodes(), l.Nodes()),
		}
	}

	if err := l.ReplaceWeights(mat.NewSymDense(s.Nodes(), nil)); err != nil {
		return nil, fmt.Errorf("resetting lattice weights: %w", err)
	}
	l.UpdateNeighbours()

	return newMemory(s, l, buildOptions(opts)), nil
}

func newMemory(s pattern.Shape, l Lattice, o options) *Memory {
	return &Memory{
		shape:    s,
		lattice:  l,
		logger:   o.logger,
		observer: o.observer,
	}
}

// Shape returns a copy of the memory's shape.
func (m *Memory) Shape() pattern.Shape {
	return pattern.Shape(m.shape.Dims())
}

// Nodes returns the number of nodes.
func (m *Memory) Nodes() int {
	return m.shape.Nodes()
}

// Lattice returns the underlying lattice.
func (m *Memory) Lattice() Lattice {
	return m.lattice
}

// PatternCount returns the number of learned patterns.
func (m *Memory) PatternCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.patterns)
}

// Patterns returns the learned patterns in learning order.
func (m *Memory) Patterns() []pattern.Pattern {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.patterns)
}

// Weights returns a copy of the current coupling matrix.
func (m *Memory) Weights() *mat.SymDense {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lattice.Weights()
}

// State is a consistent view of a memory: Weights is the coupling matrix
// produced by exactly the patterns in Patterns.
type State struct {
	Shape    pattern.Shape
	Patterns []pattern.Pattern
	Weights  *mat.SymDense
}

// State returns the patterns and coupling matrix read under one lock.
func (m *Memory) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State{
		Shape:    m.Shape(),
		Patterns: slices.Clone(m.patterns),
		Weights:  m.lattice.Weights(),
	}
}

// checkShape returns a *pattern.ShapeMismatchError if p does not fit.
func (m *Memory) checkShape(p pattern.Pattern) error {
	if !p.Shape().Equal(m.shape) {
		return &pattern.ShapeMismatchError{Want: m.shape.Dims(), Got: p.Shape().Dims()}
	}
	return nil
}
