package frontend

import (
	"fmt"
	"sync/atomic"
)

var lastVarID uint32

// Variable is an unknown scalar or vector determined by a solve. The same
// Variable may be shared by any number of expressions and problems; its
// stored value reflects the outcome of the last solve that referenced it and
// is invalidated by any non-optimal outcome.
type Variable struct {
	id   uint32
	name string
	n    int

	val     []float64
	defined bool
}

// NewVariable declares a scalar variable.
func NewVariable(name string) *Variable {
	return &Variable{id: atomic.AddUint32(&lastVarID, 1), name: name, n: 1}
}

// NewVectorVariable declares a vector variable of length n.
func NewVectorVariable(name string, n int) (*Variable, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: variable %q has length %d", ErrShapeMismatch, name, n)
	}
	return &Variable{id: atomic.AddUint32(&lastVarID, 1), name: name, n: n}, nil
}

func (v *Variable) Name() string { return v.name }
func (v *Variable) Len() int     { return v.n }

// Expr returns the variable as an (affine) expression node.
func (v *Variable) Expr() *Expr {
	return &Expr{op: opVar, v: v, shape: Vec(v.n), curv: Affine}
}

// Value returns the scalar value assigned by the last optimal solve. The
// second return is false when no such assignment exists: before any solve and
// after any solve that did not end Optimal.
func (v *Variable) Value() (float64, bool) {
	if !v.defined {
		return 0, false
	}
	return v.val[0], true
}

// Values returns a copy of the assigned vector value, if defined.
func (v *Variable) Values() ([]float64, bool) {
	if !v.defined {
		return nil, false
	}
	return append([]float64(nil), v.val...), true
}

func (v *Variable) setValues(x []float64) {
	v.val = append(v.val[:0], x...)
	v.defined = true
}

func (v *Variable) invalidate() {
	v.defined = false
}
