// Package lattice implements a fully connected Ising-style spin lattice with
// a symmetric coupling matrix, derived neighbour lists and a zero-temperature
// asynchronous update rule.
//
// The coupling matrix is owned by the lattice. Callers read it through
// Weights, which returns a copy, and change it through ReplaceWeights, which
// swaps in a new matrix. Neighbour lists are rebuilt into fresh slices, so a
// slice returned by Neighbours stays valid after later updates.
package lattice

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/nvandessel/hopfield/internal/pattern"
	"gonum.org/v1/gonum/mat"
)

// Neighbour is one non-zero coupling of a node.
type Neighbour struct {
	Node   int
	Weight float64
}

// Lattice is a spin lattice. It is safe for concurrent use.
type Lattice struct {
	mu         sync.RWMutex
	shape      pattern.Shape
	nodes      int
	weights    *mat.SymDense
	spins      []int8
	neighbours [][]Neighbour
	rng        *rand.Rand
}

// New creates a lattice with a zero coupling matrix and every spin set to +1.
// A nil seed draws one from the global source.
func New(shape pattern.Shape, seed *uint64) (*Lattice, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}

	s := rand.Uint64()
	if seed != nil {
		s = *seed
	}

	n := shape.Nodes()
	spins := make([]int8, n)
	for i := range spins {
		spins[i] = 1
	}

	return &Lattice{
		shape:      pattern.Shape(shape.Dims()),
		nodes:      n,
		weights:    mat.NewSymDense(n, nil),
		spins:      spins,
		neighbours: make([][]Neighbour, n),
		rng:        rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15)),
	}, nil
}

// Nodes returns the number of spins.
func (l *Lattice) Nodes() int {
	return l.nodes
}

// Shape returns a copy of the lattice shape.
func (l *Lattice) Shape() []int {
	return l.shape.Dims()
}

// Weights returns a copy of the coupling matrix.
func (l *Lattice) Weights() *mat.SymDense {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := mat.NewSymDense(l.nodes, nil)
	out.CopySym(l.weights)
	return out
}

// ReplaceWeights installs w as the coupling matrix and rebuilds the
// neighbour lists under the same lock, so readers never see the new matrix
// with stale neighbours. The lattice keeps its own copy of w.
func (l *Lattice) ReplaceWeights(w *mat.SymDense) error {
	if w == nil {
		return fmt.Errorf("replace weights: nil matrix")
	}
	if n := w.SymmetricDim(); n != l.nodes {
		return fmt.Errorf("replace weights: matrix is %dx%d, lattice has %d nodes", n, n, l.nodes)
	}

	next := mat.NewSymDense(l.nodes, nil)
	next.CopySym(w)
	lists := buildNeighbours(next)

	l.mu.Lock()
	l.weights = next
	l.neighbours = lists
	l.mu.Unlock()
	return nil
}

// UpdateNeighbours rebuilds every neighbour list from the coupling matrix.
// Self-coupling is not listed.
func (l *Lattice) UpdateNeighbours() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.neighbours = buildNeighbours(l.weights)
}

func buildNeighbours(w *mat.SymDense) [][]Neighbour {
	n := w.SymmetricDim()
	lists := make([][]Neighbour, n)
	for i := 0; i < n; i++ {
		var list []Neighbour
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if v := w.At(i, j); v != 0 {
				list = append(list, Neighbour{Node: j, Weight: v})
			}
		}
		lists[i] = list
	}
	return lists
}

// Neighbours returns the neighbour list of node i. The slice must not be
// modified.
func (l *Lattice) Neighbours(i int) []Neighbour {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.neighbours[i]
}

// Spins returns a copy of the spin vector.
func (l *Lattice) Spins() []int8 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]int8, l.nodes)
	copy(out, l.spins)
	return out
}

// SetSpins replaces the spin vector. Every value must be -1 or +1.
func (l *Lattice) SetSpins(spins []int8) error {
	if len(spins) != l.nodes {
		return &pattern.ShapeMismatchError{Want: l.shape.Dims(), Got: []int{len(spins)}}
	}
	for i, s := range spins {
		if s != 1 && s != -1 {
			return fmt.Errorf("spin %d has value %d, want -1 or +1", i, s)
		}
	}

	l.mu.Lock()
	copy(l.spins, spins)
	l.mu.Unlock()
	return nil
}

// SetPattern sets the spins to the bipolar form of p.
func (l *Lattice) SetPattern(p pattern.Pattern) error {
	if !p.Shape().Equal(l.shape) {
		return &pattern.ShapeMismatchError{Want: l.shape.Dims(), Got: p.Shape().Dims()}
	}
	return l.SetSpins(p.Spins())
}

// Perturb flips round(fraction*nodes) distinct spins chosen at random and
// returns the number flipped.
func (l *Lattice) Perturb(fraction float64) (int, error) {
	if fraction < 0 || fraction > 1 || math.IsNaN(fraction) {
		return 0, fmt.Errorf("perturb fraction must be in [0, 1], got %v", fraction)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	k := int(math.Round(fraction * float64(l.nodes)))
	for _, i := range l.rng.Perm(l.nodes)[:k] {
		l.spins[i] = -l.spins[i]
	}
	return k, nil
}

// LocalField returns h_i = sum_j w_ij s_j over the neighbours of node i.
func (l *Lattice) LocalField(i int) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.localField(i)
}

func (l *Lattice) localField(i int) float64 {
	h := 0.0
	for _, nb := range l.neighbours[i] {
		h += nb.Weight * float64(l.spins[nb.Node])
	}
	return h
}

// Energy returns -1/2 sum_{i!=j} w_ij s_i s_j.
func (l *Lattice) Energy() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e := 0.0
	for i := 0; i < l.nodes; i++ {
		e += float64(l.spins[i]) * l.localField(i)
	}
	return -0.5 * e
}

// Relax runs zero-temperature asynchronous sweeps. In each sweep every node,
// visited in a random order, takes the sign of its local field; a zero field
// leaves the spin unchanged. Relax stops after a sweep with no flips or after
// maxSweeps, and returns the number of sweeps run and whether a fixed point
// was reached.
func (l *Lattice) Relax(maxSweeps int) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for sweep := 1; sweep <= maxSweeps; sweep++ {
		flips := 0
		for _, i := range l.rng.Perm(l.nodes) {
			h := l.localField(i)
			var next int8
			switch {
			case h > 0:
				next = 1
			case h < 0:
				next = -1
			default:
				continue
			}
			if next != l.spins[i] {
				l.spins[i] = next
				flips++
			}
		}
		if flips == 0 {
			return sweep, true
		}
	}
	return maxSweeps, false
}
