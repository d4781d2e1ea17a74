package frontend

import (
	"fmt"
)

type sense uint8

const (
	minimize sense = iota
	maximize
)

// Objective tags a scalar expression with an optimization sense.
type Objective struct {
	sense sense
	expr  *Expr
}

// Minimize builds a minimization objective; the expression must be scalar.
func Minimize(e *Expr) (Objective, error) {
	return newObjective(minimize, e)
}

// Maximize builds a maximization objective; the expression must be scalar.
func Maximize(e *Expr) (Objective, error) {
	return newObjective(maximize, e)
}

func newObjective(s sense, e *Expr) (Objective, error) {
	if !e.shape.IsScalar() {
		return Objective{}, fmt.Errorf("%w: objective must be scalar, got %s", ErrShapeMismatch, e.shape)
	}
	return Objective{sense: s, expr: e}, nil
}

// checkDCP enforces convex minimization and concave maximization.
func (o Objective) checkDCP() error {
	switch o.sense {
	case minimize:
		if !o.expr.curv.IsConvex() {
			return fmt.Errorf("%w: minimizing a %s objective", ErrDCPViolation, o.expr.curv)
		}
	case maximize:
		if !o.expr.curv.IsConcave() {
			return fmt.Errorf("%w: maximizing a %s objective", ErrDCPViolation, o.expr.curv)
		}
	}
	return nil
}
