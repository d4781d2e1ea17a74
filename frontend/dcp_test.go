package frontend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurvatureTags(t *testing.T) {
	assert := assert.New(t)

	x, err := NewVectorVariable("x", 3)
	require.NoError(t, err)

	n2, err := Norm2(x.Expr())
	require.NoError(t, err)
	assert.Equal(Convex, n2.Curvature())
	assert.Equal(Concave, Neg(n2).Curvature())
	assert.Equal(Affine, Scale(3, x.Expr()).Curvature())

	sq, err := Square(n2)
	require.NoError(t, err)
	assert.Equal(Convex, sq.Curvature())
}

func TestDCPConstructionFailures(t *testing.T) {
	assert := assert.New(t)

	x, err := NewVectorVariable("x", 3)
	require.NoError(t, err)
	n2, err := Norm2(x.Expr())
	require.NoError(t, err)

	// convex + concave has no structural curvature
	_, err = Add(n2, Neg(n2))
	assert.ErrorIs(err, ErrDCPViolation)

	// norm of a non-affine operand
	_, err = Norm1(n2)
	assert.ErrorIs(err, ErrDCPViolation)

	// square of an expression not known nonnegative
	_, err = Square(Neg(n2))
	assert.ErrorIs(err, ErrDCPViolation)

	// mixed-sign coefficients on a non-affine operand
	_, err = Mul([]float64{1, -1}, n2)
	assert.ErrorIs(err, ErrDCPViolation)

	// unsigned parameter scaling a norm
	p := NewParameter("lambda", 0.5)
	_, err = ScaleParam(p, n2)
	assert.ErrorIs(err, ErrDCPViolation)

	// with a sign hint it passes
	p.SetSign(SignNonNegative)
	_, err = ScaleParam(p, n2)
	assert.NoError(err)
}

func TestDCPProblemBuildFailures(t *testing.T) {
	assert := assert.New(t)

	x := NewVariable("x")
	n, err := Norm1(x.Expr())
	require.NoError(t, err)

	// minimizing a concave objective
	obj, err := Minimize(Neg(n))
	require.NoError(t, err)
	_, err = NewProblem(obj)
	assert.ErrorIs(err, ErrDCPViolation)

	// maximizing a convex objective
	obj, err = Maximize(n)
	require.NoError(t, err)
	_, err = NewProblem(obj)
	assert.ErrorIs(err, ErrDCPViolation)

	// equality with a non-affine side
	con, err := Eq(n, Const(1))
	require.NoError(t, err)
	obj, err = Minimize(x.Expr())
	require.NoError(t, err)
	_, err = NewProblem(obj, con)
	assert.ErrorIs(err, ErrDCPViolation)

	// convex expression on the concave side of an inequality
	con, err = Ge(n, Const(1))
	require.NoError(t, err)
	_, err = NewProblem(obj, con)
	assert.ErrorIs(err, ErrDCPViolation)
}

func TestObjectiveMustBeScalar(t *testing.T) {
	x, err := NewVectorVariable("x", 2)
	require.NoError(t, err)
	_, err = Minimize(x.Expr())
	require.ErrorIs(t, err, ErrShapeMismatch)
}
