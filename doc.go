// Package cvx provides a modeling layer for convex optimization problems and
// a high level API to declare variables, compose expressions and solve the
// resulting programs.
//
// cvx supports the following problem classes:
//   - linear programs (LP)
//   - norm minimization (l1, l2, l-inf) over affine expressions
//   - unconstrained least squares and LASSO
//   - linear programs tightened with second-order cone constraints
//
// Numerical solving is delegated to gonum; cvx itself only models,
// canonicalizes and dispatches.
package cvx

import (
	"github.com/blang/semver/v4"
)

// Version of the cvx library, embedded in serialized programs.
var Version = semver.MustParse("0.2.0")
