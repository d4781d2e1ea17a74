// Package simplex solves canonical programs by delegating the numerical work
// to gonum's dense simplex implementation.
//
// Second-order cone blocks are handled by outer approximation: each cone
// contributes a set of initial interval cuts, the linear relaxation is solved,
// and supporting-hyperplane cuts are added at violating points until the
// relaxation point satisfies every cone or the cut budget is exhausted. An
// infeasible relaxation certifies infeasibility of the conic program.
package simplex

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/cvxlab/cvx/backend"
	"github.com/cvxlab/cvx/constraint"
	"github.com/cvxlab/cvx/logger"
)

// Solver implements backend.Solver on top of gonum lp.Simplex.
type Solver struct{}

func (Solver) Solve(ctx context.Context, p *constraint.Program, cfg backend.SolverConfig) backend.Result {
	log := logger.Logger().With().Str("backend", backend.SIMPLEX.String()).Logger()

	if p.LSQ != nil {
		return backend.ErrorResult(errors.New("simplex: least-squares blocks are handled by the lsqr backend"))
	}
	n := int(p.NbCols)
	if n == 0 {
		return backend.ErrorResult(errors.New("simplex: program has no columns"))
	}

	rows := make([]constraint.Row, len(p.Rows), len(p.Rows)+4*len(p.Cones))
	copy(rows, p.Rows)
	for _, cone := range p.Cones {
		rows = append(rows, initialCuts(cone)...)
	}
	log.Debug().Int("cols", n).Int("rows", len(rows)).Int("cones", len(p.Cones)).Msg("solving linear relaxation")

	for round := 0; round <= cfg.MaxCuts; round++ {
		if err := ctx.Err(); err != nil {
			return backend.ErrorResult(err)
		}

		x, err := solveRelaxation(p.Cost, rows, n)
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			return backend.Result{Status: backend.Infeasible, Value: math.NaN()}
		case errors.Is(err, lp.ErrUnbounded):
			if len(p.Cones) == 0 {
				return backend.Result{Status: backend.Unbounded, Value: math.NaN()}
			}
			// an unbounded relaxation says nothing about the conic program
			return backend.ErrorResult(fmt.Errorf("simplex: relaxation unbounded with %d cone blocks pending", len(p.Cones)))
		case err != nil:
			return backend.ErrorResult(fmt.Errorf("simplex: %w", err))
		}

		cut, violated := worstViolation(p.Cones, x, cfg.Tolerance)
		if !violated {
			value := p.Offset
			for j, cj := range p.Cost {
				value += cj * x[j]
			}
			log.Debug().Int("rounds", round).Float64("value", value).Msg("optimal")
			return backend.Result{Status: backend.Optimal, Value: value, X: x}
		}
		rows = append(rows, cut)
	}

	return backend.ErrorResult(fmt.Errorf("simplex: cone cuts did not converge within %d rounds", cfg.MaxCuts))
}

// solveRelaxation converts the rows to gonum standard form (free variables
// split into positive and negative parts, one slack column per inequality,
// right-hand sides normalized nonnegative) and calls lp.Simplex.
func solveRelaxation(cost []float64, rows []constraint.Row, n int) ([]float64, error) {
	m := len(rows)
	if m == 0 {
		// no constraints at all: any nonzero cost escapes to -inf
		for _, cj := range cost {
			if cj != 0 {
				return nil, lp.ErrUnbounded
			}
		}
		return make([]float64, n), nil
	}

	nbSlack := 0
	for _, r := range rows {
		if r.Rel != constraint.EQ {
			nbSlack++
		}
	}
	cols := 2*n + nbSlack

	c := make([]float64, cols)
	for j := 0; j < n; j++ {
		c[2*j] = cost[j]
		c[2*j+1] = -cost[j]
	}

	a := newDense(m, cols)
	b := make([]float64, m)
	slack := 2 * n
	for i, r := range rows {
		sign := 1.0
		if r.RHS < 0 {
			sign = -1
		}
		for k, col := range r.Cols {
			v := sign * r.Coeffs[k]
			j := 2 * int(col)
			a.Set(i, j, a.At(i, j)+v)
			a.Set(i, j+1, a.At(i, j+1)-v)
		}
		switch r.Rel {
		case constraint.LE:
			a.Set(i, slack, sign)
			slack++
		case constraint.GE:
			a.Set(i, slack, -sign)
			slack++
		}
		b[i] = sign * r.RHS
	}

	_, x, err := lp.Simplex(c, a, b, 0, nil)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for j := range out {
		out[j] = x[2*j] - x[2*j+1]
	}
	return out, nil
}
