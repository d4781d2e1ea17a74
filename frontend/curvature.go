package frontend

// Curvature is the structurally determined curvature tag of an expression.
// Affine expressions are both convex and concave.
type Curvature uint8

const (
	Affine Curvature = iota
	Convex
	Concave
	UnknownCurvature
)

func (c Curvature) String() string {
	switch c {
	case Affine:
		return "affine"
	case Convex:
		return "convex"
	case Concave:
		return "concave"
	default:
		return "unknown"
	}
}

func (c Curvature) IsConvex() bool  { return c == Affine || c == Convex }
func (c Curvature) IsConcave() bool { return c == Affine || c == Concave }

// flip is the curvature of the negation.
func (c Curvature) flip() Curvature {
	switch c {
	case Convex:
		return Concave
	case Concave:
		return Convex
	default:
		return c
	}
}

// addCurv is the curvature of a sum of two tagged operands.
func addCurv(a, b Curvature) Curvature {
	switch {
	case a == Affine:
		return b
	case b == Affine:
		return a
	case a == b:
		return a
	default:
		return UnknownCurvature
	}
}
