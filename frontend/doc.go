// Package frontend provides the modeling API of cvx: variables, parameters,
// expression composition with shape and curvature checking, constraints,
// objectives and problems.
//
// Expressions are immutable trees built through constructor functions. Every
// composition validates operand shapes (ErrShapeMismatch) and tracks curvature
// under the rules of disciplined convex programming; compositions whose
// curvature cannot be established fail with ErrDCPViolation at construction
// or at problem-build time, never silently.
//
// Solving canonicalizes the problem into a constraint.Program and dispatches
// it to a backend. Solve-time outcomes, including infeasibility and solver
// failures, are reported through the Result status and are never Go errors.
package frontend
