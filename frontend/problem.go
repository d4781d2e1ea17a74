package frontend

import (
	"context"
	"math"

	"github.com/cvxlab/cvx/backend"
	"github.com/cvxlab/cvx/backend/lsqr"
	"github.com/cvxlab/cvx/backend/simplex"
	"github.com/cvxlab/cvx/logger"
)

// Problem composes an objective with an ordered, immutable set of
// constraints. Problems are reusable: a solve (re-)canonicalizes with the
// parameter values current at that moment, so re-binding a Parameter and
// solving again is the intended workflow.
type Problem struct {
	obj  Objective
	cons []Constraint
	vars []*Variable
	byID map[uint32]*Variable
	last backend.Status
}

// NewProblem builds a problem and verifies the convexity discipline of the
// objective and every constraint.
func NewProblem(obj Objective, cons ...Constraint) (*Problem, error) {
	if err := obj.checkDCP(); err != nil {
		return nil, err
	}
	for _, c := range cons {
		if err := c.checkDCP(); err != nil {
			return nil, err
		}
	}
	p := &Problem{
		obj:  obj,
		cons: append([]Constraint(nil), cons...),
		byID: make(map[uint32]*Variable),
		last: backend.Unsolved,
	}
	collectVars(obj.expr, p.byID, &p.vars)
	for _, c := range p.cons {
		collectVars(c.lhs, p.byID, &p.vars)
		collectVars(c.rhs, p.byID, &p.vars)
	}
	return p, nil
}

func collectVars(e *Expr, seen map[uint32]*Variable, out *[]*Variable) {
	if e.op == opVar && seen[e.v.id] == nil {
		seen[e.v.id] = e.v
		*out = append(*out, e.v)
	}
	for _, arg := range e.args {
		collectVars(arg, seen, out)
	}
}

// Status returns the status of the last solve, or Unsolved.
func (p *Problem) Status() backend.Status { return p.last }

// Variables returns the variables referenced by the objective and constraints.
func (p *Problem) Variables() []*Variable {
	return append([]*Variable(nil), p.vars...)
}

// Solve canonicalizes and solves the problem. Canonicalization failures are
// returned as errors; solve-time outcomes (infeasible, unbounded, solver
// failure) are reported through the Result status.
func (p *Problem) Solve(opts ...backend.SolverOption) (backend.Result, error) {
	return p.SolveContext(context.Background(), opts...)
}

// SolveContext is Solve with cancellation: a cancelled context surfaces as a
// SolverError status from the backend, never as a partial result.
func (p *Problem) SolveContext(ctx context.Context, opts ...backend.SolverOption) (backend.Result, error) {
	log := logger.Logger()

	cfg, err := backend.NewSolverConfig(opts...)
	if err != nil {
		return backend.Result{Status: backend.Unsolved}, err
	}
	prog, err := p.compile()
	if err != nil {
		log.Err(err).Msg("canonicalizing problem")
		return backend.Result{Status: backend.Unsolved}, err
	}

	id := cfg.Backend
	if id == backend.UNKNOWN {
		id = backend.SIMPLEX
		if prog.IsLeastSquares() {
			id = backend.LSQR
		}
	}
	log.Debug().Str("backend", id.String()).Int("variables", len(p.vars)).Int("constraints", prog.NbConstraints()).Msg("solving problem")

	res := solverFor(id).Solve(ctx, prog, cfg)

	if res.Status == backend.Optimal {
		v := res.Value
		if prog.PostSquare {
			v *= v
		}
		if prog.Maximize {
			v = -v
		}
		res.Value = v
		for _, b := range prog.Blocks {
			if !prog.Referenced.Test(uint(b.VarID)) {
				continue
			}
			if mv, ok := p.byID[b.VarID]; ok {
				mv.setValues(res.X[b.Offset : b.Offset+b.Len])
			}
		}
	} else {
		// any prior assignment of a referenced variable is stale now
		res.Value = math.NaN()
		for _, v := range p.vars {
			if prog.Referenced.Test(uint(v.id)) {
				v.invalidate()
			}
		}
	}
	p.last = res.Status
	return res, nil
}

func solverFor(id backend.ID) backend.Solver {
	switch id {
	case backend.LSQR:
		return lsqr.Solver{}
	default:
		return simplex.Solver{}
	}
}
