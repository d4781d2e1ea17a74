package frontend

import "errors"

var (
	// ErrShapeMismatch is returned when operand shapes are incompatible under
	// broadcasting rules. It is always surfaced at construction time.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrDCPViolation is returned when an expression, constraint or objective
	// does not satisfy the convexity discipline.
	ErrDCPViolation = errors.New("convexity discipline violation")

	// ErrNotConstant is returned by Eval on expressions that reference a
	// variable.
	ErrNotConstant = errors.New("expression references a variable")

	// ErrUnsupported is returned at compile time for well-formed convex
	// programs that no available backend can canonicalize.
	ErrUnsupported = errors.New("program form not supported by available backends")
)
