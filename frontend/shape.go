package frontend

import (
	"fmt"
	"strconv"
)

// Shape is the dimensionality of an expression's value: a scalar or a fixed
// length column vector. Matrices appear only as constant coefficients of
// affine transforms, never as expression values.
type Shape struct {
	n int
}

// Scalar is the shape of a single value.
func Scalar() Shape { return Shape{n: 1} }

// Vec is the shape of a column vector of length n.
func Vec(n int) Shape { return Shape{n: n} }

func (s Shape) IsScalar() bool { return s.n == 1 }

// Size returns the number of scalar entries.
func (s Shape) Size() int { return s.n }

func (s Shape) String() string {
	if s.IsScalar() {
		return "scalar"
	}
	return "vec(" + strconv.Itoa(s.n) + ")"
}

// broadcast merges two operand shapes: identical shapes pass through and a
// scalar stretches to the other operand's length.
func broadcast(a, b Shape) (Shape, error) {
	switch {
	case a.n == b.n:
		return a, nil
	case a.IsScalar():
		return b, nil
	case b.IsScalar():
		return a, nil
	default:
		return Shape{}, fmt.Errorf("%w: %s against %s", ErrShapeMismatch, a, b)
	}
}
