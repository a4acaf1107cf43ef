package pattern

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrShape reports a shape that is empty, has a non-positive dimension,
	// or describes zero nodes.
	ErrShape = errors.New("invalid shape")

	// ErrShapeMismatch reports a pattern or spin vector whose shape does not
	// match the network it is applied to.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// ShapeError is returned when a shape cannot be used to build a network.
type ShapeError struct {
	Dims   []int
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid shape %v: %s", e.Dims, e.Reason)
}

// Is reports whether target is ErrShape.
func (e *ShapeError) Is(target error) bool {
	return target == ErrShape
}

// ShapeMismatchError is returned when a pattern's shape differs from the
// shape of the memory or lattice it is used with.
type ShapeMismatchError struct {
	Want []int
	Got  []int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("pattern shape %v does not match network shape %v", e.Got, e.Want)
}

// Is reports whether target is ErrShapeMismatch.
func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}
