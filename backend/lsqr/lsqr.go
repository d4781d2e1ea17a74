// Package lsqr solves unconstrained least-squares programs: minimize
// ‖A·x−b‖₂ (or its square), optionally with an l1 penalty (LASSO).
//
// The plain fit is solved in closed form through gonum's QR-based least
// squares; the penalized fit runs proximal-gradient (ISTA) iterations whose
// linear algebra is gonum mat throughout.
package lsqr

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cvxlab/cvx/backend"
	"github.com/cvxlab/cvx/constraint"
	"github.com/cvxlab/cvx/logger"
)

// Solver implements backend.Solver for least-squares blocks.
type Solver struct{}

func (Solver) Solve(ctx context.Context, p *constraint.Program, cfg backend.SolverConfig) backend.Result {
	log := logger.Logger().With().Str("backend", backend.LSQR.String()).Logger()

	if !p.IsLeastSquares() {
		return backend.ErrorResult(errors.New("lsqr: program is not an unconstrained least-squares fit"))
	}
	ls := p.LSQ
	a := ls.A.Dense()
	if a == nil {
		return backend.ErrorResult(errors.New("lsqr: empty design matrix"))
	}
	rows, cols := a.Dims()
	if len(ls.B) != rows {
		return backend.ErrorResult(fmt.Errorf("lsqr: design matrix has %d rows, target has %d", rows, len(ls.B)))
	}
	b := mat.NewVecDense(rows, append([]float64(nil), ls.B...))

	var (
		x   []float64
		err error
	)
	if ls.Lambda == 0 {
		x, err = solveQR(a, b, cols)
	} else {
		x, err = solveISTA(ctx, a, b, ls.Lambda, cfg)
	}
	if err != nil {
		return backend.ErrorResult(err)
	}

	// residual and objective value at the solution
	xv := mat.NewVecDense(cols, x)
	r := mat.NewVecDense(rows, nil)
	r.MulVec(a, xv)
	r.SubVec(r, b)
	value := mat.Norm(r, 2)
	if ls.Squared {
		value *= value
	}
	if ls.Lambda != 0 {
		value += ls.Lambda * mat.Norm(xv, 1)
	}

	log.Debug().Int("rows", rows).Int("cols", cols).Float64("value", value).Msg("optimal")
	return backend.Result{Status: backend.Optimal, Value: value, X: x}
}

func solveQR(a *mat.Dense, b *mat.VecDense, cols int) ([]float64, error) {
	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		// a near-singular system still carries a usable solution
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("lsqr: %w", err)
		}
	}
	out := make([]float64, cols)
	copy(out, x.RawVector().Data)
	return out, nil
}

// solveISTA runs iterative soft-thresholding on ‖A·x−b‖₂² + λ‖x‖₁ with the
// classic 1/L step, L = 2σ₁(A)².
func solveISTA(ctx context.Context, a *mat.Dense, b *mat.VecDense, lambda float64, cfg backend.SolverConfig) ([]float64, error) {
	rows, cols := a.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDNone); !ok {
		return nil, errors.New("lsqr: SVD of design matrix failed")
	}
	sigma := svd.Values(nil)[0]
	if sigma == 0 {
		// zero design matrix: the penalty alone drives x to zero
		return make([]float64, cols), nil
	}
	step := 1 / (2 * sigma * sigma)
	shrink := lambda * step

	x := mat.NewVecDense(cols, nil)
	r := mat.NewVecDense(rows, nil)
	grad := mat.NewVecDense(cols, nil)
	for k := 0; k < cfg.MaxIterations; k++ {
		if k%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		r.MulVec(a, x)
		r.SubVec(r, b)
		grad.MulVec(a.T(), r)

		delta := 0.0
		for j := 0; j < cols; j++ {
			next := soft(x.AtVec(j)-2*step*grad.AtVec(j), shrink)
			if d := math.Abs(next - x.AtVec(j)); d > delta {
				delta = d
			}
			x.SetVec(j, next)
		}
		if delta < cfg.Tolerance {
			break
		}
	}

	out := make([]float64, cols)
	copy(out, x.RawVector().Data)
	return out, nil
}

func soft(v, threshold float64) float64 {
	switch {
	case v > threshold:
		return v - threshold
	case v < -threshold:
		return v + threshold
	default:
		return 0
	}
}
