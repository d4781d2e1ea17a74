package frontend

import (
	"fmt"

	cs "github.com/cvxlab/cvx/constraint"
)

// Constraint relates two expressions. Shapes are validated at construction;
// the convexity discipline is checked when the constraint joins a Problem.
type Constraint struct {
	lhs, rhs *Expr
	rel      cs.Relation
	n        int
}

// Le builds lhs ≤ rhs.
func Le(lhs, rhs *Expr) (Constraint, error) {
	return newConstraint(lhs, rhs, cs.LE)
}

// Ge builds lhs ≥ rhs.
func Ge(lhs, rhs *Expr) (Constraint, error) {
	return newConstraint(lhs, rhs, cs.GE)
}

// Eq builds lhs = rhs.
func Eq(lhs, rhs *Expr) (Constraint, error) {
	return newConstraint(lhs, rhs, cs.EQ)
}

func newConstraint(lhs, rhs *Expr, rel cs.Relation) (Constraint, error) {
	shape, err := broadcast(lhs.shape, rhs.shape)
	if err != nil {
		return Constraint{}, fmt.Errorf("constraint sides: %w", err)
	}
	return Constraint{lhs: lhs, rhs: rhs, rel: rel, n: shape.Size()}, nil
}

// checkDCP enforces the discipline: "convex ≤ concave", "concave ≥ convex",
// equality of affine sides.
func (c Constraint) checkDCP() error {
	switch c.rel {
	case cs.LE:
		if !c.lhs.curv.IsConvex() || !c.rhs.curv.IsConcave() {
			return fmt.Errorf("%w: %s <= %s", ErrDCPViolation, c.lhs.curv, c.rhs.curv)
		}
	case cs.GE:
		if !c.lhs.curv.IsConcave() || !c.rhs.curv.IsConvex() {
			return fmt.Errorf("%w: %s >= %s", ErrDCPViolation, c.lhs.curv, c.rhs.curv)
		}
	case cs.EQ:
		if c.lhs.curv != Affine || c.rhs.curv != Affine {
			return fmt.Errorf("%w: equality requires affine sides, got %s == %s", ErrDCPViolation, c.lhs.curv, c.rhs.curv)
		}
	}
	return nil
}
