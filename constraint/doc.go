// Package constraint defines the canonical form a compiled cvx problem takes
// before it is handed to a solver backend.
//
// A Program is a linear objective over a flat column vector, a list of sparse
// linear rows, an optional list of second-order cone blocks and an optional
// least-squares block. The frontend produces it; backends consume it. It is
// intentionally solver-agnostic: any conforming LP/conic engine can be
// substituted behind the backend interface.
package constraint
