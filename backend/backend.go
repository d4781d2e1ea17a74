// Package backend implements the solver plumbing: it consumes programs
// compiled with cvx/frontend and dispatches them to a numerical engine.
package backend

import (
	"context"
	"math"

	"github.com/cvxlab/cvx/constraint"
)

// ID represent a unique ID for a solver backend
type ID uint16

const (
	UNKNOWN ID = iota
	SIMPLEX
	LSQR
)

// Implemented return the list of solver backends implemented in cvx
func Implemented() []ID {
	return []ID{SIMPLEX, LSQR}
}

// String returns the string representation of a solver backend
func (id ID) String() string {
	switch id {
	case SIMPLEX:
		return "simplex"
	case LSQR:
		return "lsqr"
	default:
		return "unknown"
	}
}

// Status is the outcome of one solve call. Infeasible and Unbounded are
// legitimate mathematical outcomes, not failures; SolverError covers engine
// failures, cancellation and iteration exhaustion.
type Status uint8

const (
	Unsolved Status = iota
	Optimal
	Infeasible
	Unbounded
	SolverError
)

func (s Status) String() string {
	switch s {
	case Unsolved:
		return "unsolved"
	case Optimal:
		return "optimal"
	case Infeasible:
		return "infeasible"
	case Unbounded:
		return "unbounded"
	case SolverError:
		return "solver_error"
	default:
		return "unknown"
	}
}

// Result carries the outcome of a solve. Value and X are meaningful only when
// Status == Optimal; callers must check Status first.
type Result struct {
	Status Status
	Value  float64
	X      []float64

	// Err holds the underlying engine error when Status == SolverError.
	Err error
}

func (r Result) IsOptimal() bool    { return r.Status == Optimal }
func (r Result) IsInfeasible() bool { return r.Status == Infeasible }
func (r Result) IsUnbounded() bool  { return r.Status == Unbounded }

// ErrorResult wraps an engine failure into a Result.
func ErrorResult(err error) Result {
	return Result{Status: SolverError, Value: math.NaN(), Err: err}
}

// Solver is the contract every backend fulfills. Solve never returns a Go
// error: solve-time outcomes, including engine failures, are reported through
// the Result status so callers can branch on them.
type Solver interface {
	Solve(ctx context.Context, p *constraint.Program, cfg SolverConfig) Result
}
