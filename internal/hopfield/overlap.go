package hopfield

import (
	"github.com/nvandessel/hopfield/internal/pattern"
	"gonum.org/v1/gonum/mat"
)

// Overlap returns the normalised correlation between p and the lattice's
// current spins, sum_i x_i s_i / n, in [-1, 1]. It is 1 when the spins
// equal p in bipolar form and -1 when they equal its complement.
func (m *Memory) Overlap(p pattern.Pattern) (float64, error) {
	if err := m.checkShape(p); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	v := m.overlap(p, m.spinVector())
	if m.observer != nil {
		m.observer.ObserveOverlap(v)
	}
	return v, nil
}

// Overlaps returns the overlap of the current spins with every learned
// pattern, in learning order.
func (m *Memory) Overlaps() []float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	spins := m.spinVector()
	out := make([]float64, len(m.patterns))
	for i, p := range m.patterns {
		out[i] = m.overlap(p, spins)
		if m.observer != nil {
			m.observer.ObserveOverlap(out[i])
		}
	}
	return out
}

func (m *Memory) spinVector() *mat.VecDense {
	spins := m.lattice.Spins()
	data := make([]float64, len(spins))
	for i, s := range spins {
		data[i] = float64(s)
	}
	return mat.NewVecDense(len(data), data)
}

func (m *Memory) overlap(p pattern.Pattern, spins *mat.VecDense) float64 {
	x := mat.NewVecDense(p.Len(), p.Bipolar())
	return mat.Dot(x, spins) / float64(m.shape.Nodes())
}
