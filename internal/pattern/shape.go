// Package pattern defines network shapes and the immutable boolean patterns
// stored in a Hopfield memory.
//
// All flattening uses row-major order: the last dimension varies fastest.
package pattern

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Shape is a non-empty list of positive dimensions. The zero value is not a
// valid shape; use NewShape or ParseShape.
type Shape []int

// NewShape validates dims and returns them as a Shape.
// The returned Shape does not alias dims.
func NewShape(dims ...int) (Shape, error) {
	if len(dims) == 0 {
		return nil, &ShapeError{Dims: dims, Reason: "shape must have at least one dimension"}
	}

	nodes := 1
	for _, d := range dims {
		if d <= 0 {
			return nil, &ShapeError{Dims: slices.Clone(dims), Reason: fmt.Sprintf("dimension %d is not positive", d)}
		}
		if nodes > math.MaxInt32/d {
			return nil, &ShapeError{Dims: slices.Clone(dims), Reason: "node count overflows"}
		}
		nodes *= d
	}

	return Shape(slices.Clone(dims)), nil
}

// MustShape is like NewShape but panics on error. Intended for tests and
// package-level literals.
func MustShape(dims ...int) Shape {
	s, err := NewShape(dims...)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseShape parses "8x8", "8,8", "2x3x4" or "64" into a Shape.
func ParseShape(s string) (Shape, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, &ShapeError{Reason: "empty shape string"}
	}

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == 'x' || r == 'X' || r == ',' || r == '*' || r == ' '
	})

	dims := make([]int, 0, len(fields))
	for _, f := range fields {
		d, err := strconv.Atoi(f)
		if err != nil {
			return nil, &ShapeError{Reason: fmt.Sprintf("cannot parse dimension %q", f)}
		}
		dims = append(dims, d)
	}
	return NewShape(dims...)
}

// Nodes returns the product of all dimensions.
func (s Shape) Nodes() int {
	if len(s) == 0 {
		return 0
	}
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Equal reports whether s and other have identical dimensions.
func (s Shape) Equal(other Shape) bool {
	return slices.Equal(s, other)
}

// Dims returns a copy of the dimensions.
func (s Shape) Dims() []int {
	return slices.Clone([]int(s))
}

// String renders the shape as "8x8".
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, "x")
}

// Index converts a multi-dimensional index into its row-major flat offset.
// It returns -1 if idx has the wrong rank or is out of range.
func (s Shape) Index(idx ...int) int {
	if len(idx) != len(s) {
		return -1
	}
	flat := 0
	for i, d := range s {
		if idx[i] < 0 || idx[i] >= d {
			return -1
		}
		flat = flat*d + idx[i]
	}
	return flat
}

// Validate returns a ShapeError if s is not a usable shape.
func (s Shape) Validate() error {
	_, err := NewShape(s...)
	return err
}
