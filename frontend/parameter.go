package frontend

import (
	"fmt"
	"sync/atomic"
)

// Sign is an optional domain hint on a Parameter, used only to establish
// curvature when the parameter scales a non-affine expression.
type Sign uint8

const (
	SignUnknown Sign = iota
	SignNonNegative
	SignNonPositive
)

var lastParamID uint32

// Parameter is a fixed external constant that may be re-bound between solves.
// Its value is baked into the canonical program at compile time, so two solves
// with identical parameter values produce identical programs.
type Parameter struct {
	id   uint32
	name string
	n    int
	val  []float64
	sign Sign
}

// NewParameter declares a scalar parameter with an initial value.
func NewParameter(name string, value float64) *Parameter {
	return &Parameter{id: atomic.AddUint32(&lastParamID, 1), name: name, n: 1, val: []float64{value}}
}

// NewVectorParameter declares a vector parameter with initial values.
func NewVectorParameter(name string, values []float64) (*Parameter, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: parameter %q has no values", ErrShapeMismatch, name)
	}
	return &Parameter{id: atomic.AddUint32(&lastParamID, 1), name: name, n: len(values),
		val: append([]float64(nil), values...)}, nil
}

func (p *Parameter) Name() string { return p.name }
func (p *Parameter) Len() int     { return p.n }

// SetSign attaches a domain hint. It does not validate current values.
func (p *Parameter) SetSign(s Sign) { p.sign = s }

// SetValue re-binds a scalar parameter. The shape is fixed at declaration.
func (p *Parameter) SetValue(v float64) error {
	if p.n != 1 {
		return fmt.Errorf("%w: parameter %q is not scalar", ErrShapeMismatch, p.name)
	}
	p.val[0] = v
	return nil
}

// SetValues re-binds a vector parameter.
func (p *Parameter) SetValues(values []float64) error {
	if len(values) != p.n {
		return fmt.Errorf("%w: parameter %q has length %d, got %d values", ErrShapeMismatch, p.name, p.n, len(values))
	}
	copy(p.val, values)
	return nil
}

// Value returns the current scalar value.
func (p *Parameter) Value() float64 { return p.val[0] }

// Values returns a copy of the current values.
func (p *Parameter) Values() []float64 { return append([]float64(nil), p.val...) }

// Expr returns the parameter as an (affine) expression node.
func (p *Parameter) Expr() *Expr {
	return &Expr{op: opParam, par: p, shape: Vec(p.n), curv: Affine, nonneg: p.sign == SignNonNegative}
}
