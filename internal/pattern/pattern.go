package pattern

import (
	"fmt"
	"slices"
	"strings"
)

// Pattern is an immutable boolean array with a fixed Shape.
// true encodes spin +1 and false encodes spin -1.
type Pattern struct {
	shape Shape
	bits  []bool
}

// New builds a pattern of the given shape from row-major bits.
// bits is copied.
func New(shape Shape, bits []bool) (Pattern, error) {
	if err := shape.Validate(); err != nil {
		return Pattern{}, err
	}
	if len(bits) != shape.Nodes() {
		return Pattern{}, &ShapeMismatchError{Want: shape.Dims(), Got: []int{len(bits)}}
	}
	return Pattern{shape: slices.Clone(shape), bits: slices.Clone(bits)}, nil
}

// FromRows builds a two-dimensional pattern from equally sized rows.
func FromRows(rows [][]bool) (Pattern, error) {
	if len(rows) == 0 {
		return Pattern{}, &ShapeError{Reason: "no rows"}
	}
	cols := len(rows[0])
	bits := make([]bool, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return Pattern{}, &ShapeError{
				Dims:   []int{len(rows), cols},
				Reason: fmt.Sprintf("row %d has %d columns, want %d", i, len(row), cols),
			}
		}
		bits = append(bits, row...)
	}
	shape, err := NewShape(len(rows), cols)
	if err != nil {
		return Pattern{}, err
	}
	return Pattern{shape: shape, bits: bits}, nil
}

// FromBipolar builds a pattern from a spin vector. Positive values map to
// true, everything else to false.
func FromBipolar(shape Shape, spins []int8) (Pattern, error) {
	bits := make([]bool, len(spins))
	for i, s := range spins {
		bits[i] = s > 0
	}
	return New(shape, bits)
}

// Shape returns a copy of the pattern's shape.
func (p Pattern) Shape() Shape {
	return slices.Clone(p.shape)
}

// Len returns the number of elements.
func (p Pattern) Len() int {
	return len(p.bits)
}

// Bits returns a row-major copy of the pattern's elements.
func (p Pattern) Bits() []bool {
	return slices.Clone(p.bits)
}

// At returns the element at a multi-dimensional index.
// It panics if idx is out of range.
func (p Pattern) At(idx ...int) bool {
	flat := p.shape.Index(idx...)
	if flat < 0 {
		panic(fmt.Sprintf("pattern: index %v out of range for shape %v", idx, p.shape))
	}
	return p.bits[flat]
}

// Bipolar flattens the pattern and maps true to +1 and false to -1.
func (p Pattern) Bipolar() []float64 {
	out := make([]float64, len(p.bits))
	for i, b := range p.bits {
		if b {
			out[i] = 1
		} else {
			out[i] = -1
		}
	}
	return out
}

// Spins is like Bipolar but returns int8 spins.
func (p Pattern) Spins() []int8 {
	out := make([]int8, len(p.bits))
	for i, b := range p.bits {
		if b {
			out[i] = 1
		} else {
			out[i] = -1
		}
	}
	return out
}

// Complement returns the pattern with every element inverted.
func (p Pattern) Complement() Pattern {
	bits := make([]bool, len(p.bits))
	for i, b := range p.bits {
		bits[i] = !b
	}
	return Pattern{shape: slices.Clone(p.shape), bits: bits}
}

// Hamming returns the number of differing elements, or an error if the
// shapes differ.
func (p Pattern) Hamming(other Pattern) (int, error) {
	if !p.shape.Equal(other.shape) {
		return 0, &ShapeMismatchError{Want: p.shape.Dims(), Got: other.shape.Dims()}
	}
	d := 0
	for i := range p.bits {
		if p.bits[i] != other.bits[i] {
			d++
		}
	}
	return d, nil
}

// Equal reports whether p and other have the same shape and elements.
func (p Pattern) Equal(other Pattern) bool {
	return p.shape.Equal(other.shape) && slices.Equal(p.bits, other.bits)
}

// Encode returns the compact "0101" form used for storage.
func (p Pattern) Encode() string {
	var b strings.Builder
	b.Grow(len(p.bits))
	for _, bit := range p.bits {
		if bit {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Decode is the inverse of Encode.
func Decode(shape Shape, s string) (Pattern, error) {
	bits := make([]bool, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '1':
			bits[i] = true
		case '0':
		default:
			return Pattern{}, fmt.Errorf("decode pattern: invalid symbol %q at offset %d", s[i], i)
		}
	}
	return New(shape, bits)
}

// String renders the pattern as rows of '#' (true) and '.' (false).
// Patterns with more than two dimensions are rendered as consecutive
// two-dimensional slices separated by blank lines.
func (p Pattern) String() string {
	if len(p.shape) == 0 {
		return ""
	}
	cols := p.shape[len(p.shape)-1]
	rowsPerSlice := 1
	if len(p.shape) >= 2 {
		rowsPerSlice = p.shape[len(p.shape)-2]
	}

	var b strings.Builder
	for i, bit := range p.bits {
		if i > 0 && i%cols == 0 {
			b.WriteByte('\n')
			if i%(cols*rowsPerSlice) == 0 {
				b.WriteByte('\n')
			}
		}
		if bit {
			b.WriteByte('#')
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}
