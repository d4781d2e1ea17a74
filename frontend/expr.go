package frontend

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	cs "github.com/cvxlab/cvx/constraint"
)

type op uint8

const (
	opVar op = iota
	opParam
	opConst
	opAdd
	opScale      // constant scalar factor
	opScaleParam // scalar parameter factor
	opMul        // elementwise product with a constant vector
	opMatVec     // constant matrix times vector expression
	opNorm       // p ∈ {1, 2, ∞}
	opSquare
)

// Expr is an immutable node of an expression tree. Every node carries its
// shape and curvature tag, established at construction.
type Expr struct {
	op   op
	args []*Expr

	v   *Variable
	par *Parameter
	c   []float64 // opConst payload, opMul coefficients
	k   float64   // opScale factor
	mtx cs.Matrix // opMatVec coefficients
	ord float64   // opNorm order

	shape  Shape
	curv   Curvature
	nonneg bool
}

// Shape returns the shape of the expression's value.
func (e *Expr) Shape() Shape { return e.shape }

// Curvature returns the structurally determined curvature tag.
func (e *Expr) Curvature() Curvature { return e.curv }

// Const returns a scalar constant expression.
func Const(v float64) *Expr {
	return &Expr{op: opConst, c: []float64{v}, shape: Scalar(), curv: Affine, nonneg: v >= 0}
}

// Vector returns a constant vector expression.
func Vector(vals []float64) (*Expr, error) {
	if len(vals) == 0 {
		return nil, fmt.Errorf("%w: empty vector constant", ErrShapeMismatch)
	}
	nonneg := true
	for _, v := range vals {
		if v < 0 {
			nonneg = false
			break
		}
	}
	c := append([]float64(nil), vals...)
	return &Expr{op: opConst, c: c, shape: Vec(len(c)), curv: Affine, nonneg: nonneg}, nil
}

// Add returns the broadcast sum of two or more expressions. The sum of a
// convex and a concave operand has no structural curvature and is rejected.
func Add(a, b *Expr, more ...*Expr) (*Expr, error) {
	args := append([]*Expr{a, b}, more...)
	shape := a.shape
	curv := a.curv
	nonneg := a.nonneg
	var err error
	for _, arg := range args[1:] {
		if shape, err = broadcast(shape, arg.shape); err != nil {
			return nil, err
		}
		curv = addCurv(curv, arg.curv)
		nonneg = nonneg && arg.nonneg
	}
	if curv == UnknownCurvature {
		return nil, fmt.Errorf("%w: sum of convex and concave terms", ErrDCPViolation)
	}
	return &Expr{op: opAdd, args: args, shape: shape, curv: curv, nonneg: nonneg}, nil
}

// Sub returns a − b.
func Sub(a, b *Expr) (*Expr, error) {
	return Add(a, Neg(b))
}

// Neg returns the negation; curvature flips.
func Neg(a *Expr) *Expr {
	return Scale(-1, a)
}

// Scale returns k·a. A negative factor flips curvature.
func Scale(k float64, a *Expr) *Expr {
	curv := a.curv
	if k < 0 {
		curv = curv.flip()
	}
	return &Expr{op: opScale, args: []*Expr{a}, k: k, shape: a.shape, curv: curv, nonneg: a.nonneg && k >= 0}
}

// ScaleParam returns p·a for a scalar parameter p. For a non-affine operand
// the parameter must carry a sign hint, otherwise the curvature of the result
// cannot be established.
func ScaleParam(p *Parameter, a *Expr) (*Expr, error) {
	if p.n != 1 {
		return nil, fmt.Errorf("%w: parameter %q is not scalar", ErrShapeMismatch, p.name)
	}
	curv := a.curv
	switch {
	case a.curv == Affine:
		// stays affine for any parameter value
	case p.sign == SignNonNegative:
		// curvature preserved
	case p.sign == SignNonPositive:
		curv = curv.flip()
	default:
		return nil, fmt.Errorf("%w: parameter %q scales a non-affine expression without a sign hint", ErrDCPViolation, p.name)
	}
	return &Expr{op: opScaleParam, args: []*Expr{a}, par: p, shape: a.shape, curv: curv,
		nonneg: a.nonneg && p.sign == SignNonNegative}, nil
}

// Mul returns the elementwise product of a constant vector and an expression.
// For non-affine operands the coefficients must not mix signs.
func Mul(coeffs []float64, a *Expr) (*Expr, error) {
	if len(coeffs) == 0 {
		return nil, fmt.Errorf("%w: empty coefficient vector", ErrShapeMismatch)
	}
	shape, err := broadcast(Vec(len(coeffs)), a.shape)
	if err != nil {
		return nil, err
	}
	pos, neg := false, false
	for _, c := range coeffs {
		if c > 0 {
			pos = true
		}
		if c < 0 {
			neg = true
		}
	}
	curv := a.curv
	switch {
	case a.curv == Affine:
	case !neg:
	case !pos:
		curv = curv.flip()
	default:
		return nil, fmt.Errorf("%w: mixed-sign coefficients scale a non-affine expression", ErrDCPViolation)
	}
	return &Expr{op: opMul, args: []*Expr{a}, c: append([]float64(nil), coeffs...),
		shape: shape, curv: curv, nonneg: a.nonneg && !neg}, nil
}

// MatVec returns m·a, the affine transform of a vector expression by a
// constant matrix. The operand must be affine.
func MatVec(m mat.Matrix, a *Expr) (*Expr, error) {
	r, c := m.Dims()
	if c != a.shape.Size() {
		return nil, fmt.Errorf("%w: matrix is %dx%d, operand is %s", ErrShapeMismatch, r, c, a.shape)
	}
	if a.curv != Affine {
		return nil, fmt.Errorf("%w: affine transform of a %s expression", ErrDCPViolation, a.curv)
	}
	d := mat.DenseCopyOf(m)
	raw := d.RawMatrix()
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		data = append(data, raw.Data[i*raw.Stride:i*raw.Stride+c]...)
	}
	return &Expr{op: opMatVec, args: []*Expr{a}, mtx: cs.Matrix{Rows: r, Cols: c, Data: data},
		shape: Vec(r), curv: Affine}, nil
}

// Dot returns the inner product of a constant vector with an expression.
func Dot(coeffs []float64, a *Expr) (*Expr, error) {
	if len(coeffs) != a.shape.Size() {
		return nil, fmt.Errorf("%w: %d coefficients against %s", ErrShapeMismatch, len(coeffs), a.shape)
	}
	return MatVec(mat.NewDense(1, len(coeffs), append([]float64(nil), coeffs...)), a)
}

// Sum returns the sum of the entries of an affine expression.
func Sum(a *Expr) (*Expr, error) {
	ones := make([]float64, a.shape.Size())
	for i := range ones {
		ones[i] = 1
	}
	return Dot(ones, a)
}

// Norm returns ‖a‖_ord for ord ∈ {1, 2, ∞}. The operand must be affine; the
// result is scalar, convex and nonnegative.
func Norm(a *Expr, ord float64) (*Expr, error) {
	if ord != 1 && ord != 2 && !math.IsInf(ord, 1) {
		return nil, fmt.Errorf("unsupported norm order %v", ord)
	}
	if a.curv != Affine {
		return nil, fmt.Errorf("%w: norm of a %s expression", ErrDCPViolation, a.curv)
	}
	return &Expr{op: opNorm, args: []*Expr{a}, ord: ord, shape: Scalar(), curv: Convex, nonneg: true}, nil
}

// Norm1 returns the sum of absolute entries.
func Norm1(a *Expr) (*Expr, error) { return Norm(a, 1) }

// Norm2 returns the Euclidean length.
func Norm2(a *Expr) (*Expr, error) { return Norm(a, 2) }

// NormInf returns the maximum absolute entry.
func NormInf(a *Expr) (*Expr, error) { return Norm(a, math.Inf(1)) }

// Square returns a², for a scalar operand that is affine or convex and
// nonnegative. The square of a nonnegative convex expression is convex.
func Square(a *Expr) (*Expr, error) {
	if !a.shape.IsScalar() {
		return nil, fmt.Errorf("%w: square of %s", ErrShapeMismatch, a.shape)
	}
	if a.curv != Affine && !(a.curv == Convex && a.nonneg) {
		return nil, fmt.Errorf("%w: square of a %s expression that is not known nonnegative", ErrDCPViolation, a.curv)
	}
	return &Expr{op: opSquare, args: []*Expr{a}, shape: Scalar(), curv: Convex, nonneg: true}, nil
}

// SumSquares returns ‖a‖₂² for an affine vector expression.
func SumSquares(a *Expr) (*Expr, error) {
	n, err := Norm2(a)
	if err != nil {
		return nil, err
	}
	return Square(n)
}
