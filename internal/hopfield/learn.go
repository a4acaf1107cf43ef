package hopfield

import (
	"fmt"
	"time"

	"github.com/nvandessel/hopfield/internal/pattern"
	"gonum.org/v1/gonum/mat"
)

// Learn stores p using Hebb's rule.
//
// With k patterns already stored, the coupling matrix becomes
//
//	W' = (k*W + x x^T) / (k + 1)
//
// where x is p in bipolar form. For k = 0 this is exactly x x^T. The lattice
// neighbour lists are rebuilt before Learn returns.
//
// A pattern whose shape differs from the memory's returns a
// *pattern.ShapeMismatchError and leaves the memory unchanged.
func (m *Memory) Learn(p pattern.Pattern) error {
	if err := m.checkShape(p); err != nil {
		return err
	}

	n := m.shape.Nodes()
	x := mat.NewDense(n, 1, p.Bipolar())

	candidate := mat.NewSymDense(n, nil)
	candidate.SymOuterK(1, x)

	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	k := len(m.patterns)

	next := candidate
	if k > 0 {
		next = mat.NewSymDense(n, nil)
		next.ScaleSym(float64(k), m.lattice.Weights())
		next.AddSym(next, candidate)
		next.ScaleSym(1/float64(k+1), next)
	}

	if err := m.lattice.ReplaceWeights(next); err != nil {
		return fmt.Errorf("learn: %w", err)
	}
	m.lattice.UpdateNeighbours()
	m.patterns = append(m.patterns, p)

	elapsed := time.Since(start)
	m.logger.Debug("learned pattern",
		"patterns", k+1,
		"nodes", n,
		"duration", elapsed,
	)
	if m.observer != nil {
		m.observer.ObserveLearn(k+1, elapsed)
	}
	return nil
}

// LearnAll learns ps in order and stops at the first error. Patterns learned
// before the failing one stay learned.
func (m *Memory) LearnAll(ps ...pattern.Pattern) error {
	for i, p := range ps {
		if err := m.Learn(p); err != nil {
			return fmt.Errorf("pattern %d: %w", i, err)
		}
	}
	return nil
}
