package frontend

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/cvxlab/cvx/backend"
)

// productionPlan is the LP used throughout: maximize 140x+235y subject to
// x+y ≤ 180, x+2y ≤ 240, 3x+y ≤ 300, x ≥ 0, y ≥ 0. The optimum is 27100 at
// (60, 120).
func productionPlan(t *testing.T, x, y *Variable, extra ...Constraint) *Problem {
	t.Helper()

	profit, err := Add(Scale(140, x.Expr()), Scale(235, y.Expr()))
	require.NoError(t, err)
	obj, err := Maximize(profit)
	require.NoError(t, err)

	mk := func(cx, cy, bound float64) Constraint {
		lhs, err := Add(Scale(cx, x.Expr()), Scale(cy, y.Expr()))
		require.NoError(t, err)
		con, err := Le(lhs, Const(bound))
		require.NoError(t, err)
		return con
	}
	cons := []Constraint{
		mk(1, 1, 180),
		mk(1, 2, 240),
		mk(3, 1, 300),
	}
	nonneg, err := Ge(x.Expr(), Const(0))
	require.NoError(t, err)
	cons = append(cons, nonneg)
	nonneg, err = Ge(y.Expr(), Const(0))
	require.NoError(t, err)
	cons = append(cons, nonneg)
	cons = append(cons, extra...)

	prob, err := NewProblem(obj, cons...)
	require.NoError(t, err)
	return prob
}

func TestLinearProgram(t *testing.T) {
	require := require.New(t)

	x := NewVariable("x")
	y := NewVariable("y")
	prob := productionPlan(t, x, y)
	require.Equal(backend.Unsolved, prob.Status())

	res, err := prob.Solve()
	require.NoError(err)
	require.Equal(backend.Optimal, res.Status)
	require.InDelta(27100, res.Value, 1e-6)

	xv, ok := x.Value()
	require.True(ok)
	require.InDelta(60, xv, 1e-6)
	yv, ok := y.Value()
	require.True(ok)
	require.InDelta(120, yv, 1e-6)
	require.Equal(backend.Optimal, prob.Status())
}

func TestSolveIdempotent(t *testing.T) {
	require := require.New(t)

	x := NewVariable("x")
	y := NewVariable("y")
	prob := productionPlan(t, x, y)

	first, err := prob.Solve()
	require.NoError(err)
	second, err := prob.Solve()
	require.NoError(err)

	require.Equal(first.Status, second.Status)
	require.Equal(first.Value, second.Value)
	require.Equal(first.X, second.X)
}

func TestParameterRebind(t *testing.T) {
	require := require.New(t)

	x := NewVariable("x")
	budget := NewParameter("budget", 10)

	obj, err := Maximize(x.Expr())
	require.NoError(err)
	con, err := Le(x.Expr(), budget.Expr())
	require.NoError(err)
	prob, err := NewProblem(obj, con)
	require.NoError(err)

	res, err := prob.Solve()
	require.NoError(err)
	require.Equal(backend.Optimal, res.Status)
	require.InDelta(10, res.Value, 1e-9)

	require.NoError(budget.SetValue(25))
	res, err = prob.Solve()
	require.NoError(err)
	require.Equal(backend.Optimal, res.Status)
	require.InDelta(25, res.Value, 1e-9)
}

func TestTightenedPlanInfeasible(t *testing.T) {
	require := require.New(t)

	x := NewVariable("x")
	y := NewVariable("y")

	// pin the LP optimum and demand it also lie in the ellipse x² + 2y² ≤ 1
	pinX, err := Eq(x.Expr(), Const(60))
	require.NoError(err)
	pinY, err := Eq(y.Expr(), Const(120))
	require.NoError(err)
	sqX, err := Square(x.Expr())
	require.NoError(err)
	sqY, err := Square(y.Expr())
	require.NoError(err)
	disk, err := Add(sqX, Scale(2, sqY))
	require.NoError(err)
	inDisk, err := Le(disk, Const(1))
	require.NoError(err)

	prob := productionPlan(t, x, y, pinX, pinY, inDisk)
	res, err := prob.Solve()
	require.NoError(err)
	require.Equal(backend.Infeasible, res.Status)
	require.True(math.IsNaN(res.Value))

	_, ok := x.Value()
	require.False(ok)
}

func TestLeastSquares(t *testing.T) {
	require := require.New(t)

	const rows, cols = 16, 8
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = math.Sin(float64(i + 1))
	}
	a := mat.NewDense(rows, cols, data)
	bvals := make([]float64, rows)
	for i := range bvals {
		bvals[i] = math.Cos(float64(i + 1))
	}

	x, err := NewVectorVariable("x", cols)
	require.NoError(err)
	ax, err := MatVec(a, x.Expr())
	require.NoError(err)
	b, err := Vector(bvals)
	require.NoError(err)
	resid, err := Sub(ax, b)
	require.NoError(err)
	nrm, err := Norm2(resid)
	require.NoError(err)
	obj, err := Minimize(nrm)
	require.NoError(err)

	prob, err := NewProblem(obj)
	require.NoError(err)
	res, err := prob.Solve()
	require.NoError(err)
	require.Equal(backend.Optimal, res.Status)
	require.False(math.IsNaN(res.Value))
	require.GreaterOrEqual(res.Value, 0.0)

	xv, ok := x.Values()
	require.True(ok)
	require.Len(xv, cols)
}

func TestTrivialInfeasible2D(t *testing.T) {
	require := require.New(t)

	x := NewVariable("x")
	y := NewVariable("y")

	sum, err := Add(x.Expr(), y.Expr())
	require.NoError(err)
	obj, err := Minimize(sum)
	require.NoError(err)
	farBelow, err := Le(sum, Const(-5))
	require.NoError(err)
	sqX, err := Square(x.Expr())
	require.NoError(err)
	sqY, err := Square(y.Expr())
	require.NoError(err)
	diskExpr, err := Add(sqX, sqY)
	require.NoError(err)
	inDisk, err := Le(diskExpr, Const(1))
	require.NoError(err)

	prob, err := NewProblem(obj, farBelow, inDisk)
	require.NoError(err)
	res, err := prob.Solve()
	require.NoError(err)
	require.Equal(backend.Infeasible, res.Status)
}

func TestUnbounded(t *testing.T) {
	require := require.New(t)

	x := NewVariable("x")
	obj, err := Minimize(x.Expr())
	require.NoError(err)
	con, err := Le(x.Expr(), Const(5))
	require.NoError(err)
	prob, err := NewProblem(obj, con)
	require.NoError(err)

	res, err := prob.Solve()
	require.NoError(err)
	require.Equal(backend.Unbounded, res.Status)
	require.True(math.IsNaN(res.Value))
	_, ok := x.Value()
	require.False(ok)
}

func TestValuesInvalidatedAfterFailedSolve(t *testing.T) {
	require := require.New(t)

	x := NewVariable("x")
	y := NewVariable("y")
	prob := productionPlan(t, x, y)

	_, err := prob.Solve()
	require.NoError(err)
	_, ok := x.Value()
	require.True(ok)

	// an infeasible problem over the same variable wipes its assignment
	obj, err := Minimize(x.Expr())
	require.NoError(err)
	lo, err := Ge(x.Expr(), Const(0))
	require.NoError(err)
	hi, err := Le(x.Expr(), Const(-5))
	require.NoError(err)
	bad, err := NewProblem(obj, lo, hi)
	require.NoError(err)

	res, err := bad.Solve()
	require.NoError(err)
	require.Equal(backend.Infeasible, res.Status)
	_, ok = x.Value()
	require.False(ok)
}

func TestSolveCancelled(t *testing.T) {
	require := require.New(t)

	x := NewVariable("x")
	y := NewVariable("y")
	prob := productionPlan(t, x, y)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := prob.SolveContext(ctx)
	require.NoError(err)
	require.Equal(backend.SolverError, res.Status)
	require.ErrorIs(res.Err, context.Canceled)
}

func TestNormMinimization(t *testing.T) {
	require := require.New(t)

	x, err := NewVectorVariable("x", 3)
	require.NoError(err)
	n1, err := Norm1(x.Expr())
	require.NoError(err)
	obj, err := Minimize(n1)
	require.NoError(err)
	total, err := Sum(x.Expr())
	require.NoError(err)
	con, err := Eq(total, Const(3))
	require.NoError(err)

	prob, err := NewProblem(obj, con)
	require.NoError(err)
	res, err := prob.Solve()
	require.NoError(err)
	require.Equal(backend.Optimal, res.Status)
	require.InDelta(3, res.Value, 1e-6)
}

func TestNormInfMinimization(t *testing.T) {
	require := require.New(t)

	x, err := NewVectorVariable("x", 4)
	require.NoError(err)
	ni, err := NormInf(x.Expr())
	require.NoError(err)
	obj, err := Minimize(ni)
	require.NoError(err)
	total, err := Sum(x.Expr())
	require.NoError(err)
	con, err := Eq(total, Const(4))
	require.NoError(err)

	prob, err := NewProblem(obj, con)
	require.NoError(err)
	res, err := prob.Solve()
	require.NoError(err)
	require.Equal(backend.Optimal, res.Status)
	require.InDelta(1, res.Value, 1e-6)
}

func TestSumSquaresConstrained(t *testing.T) {
	require := require.New(t)

	x, err := NewVectorVariable("x", 2)
	require.NoError(err)
	ss, err := SumSquares(x.Expr())
	require.NoError(err)
	obj, err := Minimize(ss)
	require.NoError(err)
	total, err := Sum(x.Expr())
	require.NoError(err)
	con, err := Eq(total, Const(2))
	require.NoError(err)

	prob, err := NewProblem(obj, con)
	require.NoError(err)
	res, err := prob.Solve()
	require.NoError(err)
	require.Equal(backend.Optimal, res.Status)
	require.InDelta(2, res.Value, 1e-5)

	xv, ok := x.Values()
	require.True(ok)
	require.InDelta(1, xv[0], 1e-3)
	require.InDelta(1, xv[1], 1e-3)
}

func TestForcedBackendMismatch(t *testing.T) {
	require := require.New(t)

	x := NewVariable("x")
	y := NewVariable("y")
	prob := productionPlan(t, x, y)

	res, err := prob.Solve()
	require.NoError(err)
	require.Equal(backend.Optimal, res.Status)
	_, ok := x.Value()
	require.True(ok)

	// an LP cannot be handled by the least-squares backend; the failure also
	// wipes the assignment from the earlier solve
	res, err = prob.Solve(backend.WithBackend(backend.LSQR))
	require.NoError(err)
	require.Equal(backend.SolverError, res.Status)
	require.Error(res.Err)
	_, ok = x.Value()
	require.False(ok)
	_, ok = y.Value()
	require.False(ok)
}

func TestSharedVariableScopedWriteBack(t *testing.T) {
	require := require.New(t)

	x := NewVariable("x")
	y := NewVariable("y")
	prob := productionPlan(t, x, y)

	_, err := prob.Solve()
	require.NoError(err)

	// a second problem referencing only x must not disturb y's assignment
	obj, err := Maximize(x.Expr())
	require.NoError(err)
	con, err := Le(x.Expr(), Const(10))
	require.NoError(err)
	onlyX, err := NewProblem(obj, con)
	require.NoError(err)

	res, err := onlyX.Solve()
	require.NoError(err)
	require.Equal(backend.Optimal, res.Status)

	xv, ok := x.Value()
	require.True(ok)
	require.InDelta(10, xv, 1e-9)
	yv, ok := y.Value()
	require.True(ok)
	require.InDelta(120, yv, 1e-6)
}
