package frontend

import (
	"fmt"
	"math"

	cs "github.com/cvxlab/cvx/constraint"
)

// compiler canonicalizes a Problem into a constraint.Program: affine parts
// become sparse rows and cost entries, l1/l∞ norms become exact epigraph
// reformulations with auxiliary columns, l2 norms and sums of squares become
// second-order cone blocks or a least-squares block.
type compiler struct {
	prog    *cs.Program
	offsets map[uint32]uint32
}

func (p *Problem) compile() (*cs.Program, error) {
	c := &compiler{prog: cs.NewProgram(), offsets: make(map[uint32]uint32)}

	// model variables occupy the leading columns, in declaration-within-problem order
	for _, v := range p.vars {
		c.block(v)
	}

	obj := p.obj.expr
	if p.obj.sense == maximize {
		// maximize f ≡ minimize −f; the sign is restored after solving
		obj = Neg(obj)
		c.prog.Maximize = true
	}

	if len(p.cons) == 0 {
		ok, err := c.tryLeastSquares(obj)
		if err != nil {
			return nil, err
		}
		if ok {
			return c.prog, nil
		}
	}

	if err := c.objective(obj); err != nil {
		return nil, err
	}
	for _, con := range p.cons {
		if err := c.constraint(con); err != nil {
			return nil, err
		}
	}
	return c.prog, nil
}

func (c *compiler) block(v *Variable) uint32 {
	if off, ok := c.offsets[v.id]; ok {
		return off
	}
	off := c.prog.AddBlock(v.id, v.name, uint32(v.n))
	c.offsets[v.id] = off
	return off
}

// term is one additive component of a flattened expression, scaled by k.
type term struct {
	k float64
	e *Expr
}

// flatten distributes constant and parameter scaling over sums, producing a
// list of scaled atoms: affine expressions, norms and squares.
func flatten(e *Expr, k float64, out *[]term) {
	switch e.op {
	case opAdd:
		for _, arg := range e.args {
			flatten(arg, k, out)
		}
	case opScale:
		flatten(e.args[0], k*e.k, out)
	case opScaleParam:
		flatten(e.args[0], k*e.par.val[0], out)
	default:
		*out = append(*out, term{k: k, e: e})
	}
}

type canonTerms struct {
	affine  []term
	norms   []term
	squares []term
}

func classify(terms []term) (canonTerms, error) {
	var ct canonTerms
	for _, t := range terms {
		switch {
		case t.e.curv == Affine:
			ct.affine = append(ct.affine, t)
		case t.e.op == opNorm:
			ct.norms = append(ct.norms, t)
		case t.e.op == opSquare:
			ct.squares = append(ct.squares, t)
		default:
			return canonTerms{}, fmt.Errorf("%w: cannot canonicalize expression term", ErrUnsupported)
		}
	}
	return ct, nil
}

// squareOperand returns the affine expression u with u² (or ‖u‖₂²) equal to
// the square atom.
func squareOperand(e *Expr) (*Expr, bool) {
	arg := e.args[0]
	if arg.curv == Affine {
		return arg, true
	}
	if arg.op == opNorm && arg.ord == 2 {
		return arg.args[0], true
	}
	return nil, false
}

// stackRow is one scaled row of a stacked quadratic block.
type stackRow struct {
	cols   []uint32
	coeffs []float64
	e      float64
}

// stackSquares linearizes Σ kᵢ·uᵢ² into rows of a single stacked vector
// (√k₁·u₁, √k₂·u₂, …) whose squared l2 norm equals the sum.
func (c *compiler) stackSquares(squares []term) ([]stackRow, error) {
	var rows []stackRow
	for _, t := range squares {
		if t.k <= 0 {
			return nil, fmt.Errorf("%w: squared term scaled by %v", ErrDCPViolation, t.k)
		}
		u, ok := squareOperand(t.e)
		if !ok {
			return nil, fmt.Errorf("%w: square of a non-l2 norm", ErrUnsupported)
		}
		f, err := c.linearize(u)
		if err != nil {
			return nil, err
		}
		s := math.Sqrt(t.k)
		for i := 0; i < f.n; i++ {
			cols, coeffs := f.entryRow(i)
			for j := range coeffs {
				coeffs[j] *= s
			}
			rows = append(rows, stackRow{cols: cols, coeffs: coeffs, e: s * f.offset[i]})
		}
	}
	return rows, nil
}

// coneFromRows assembles a SOC block over the first w program columns.
func coneFromRows(w int, rows []stackRow, fcols []uint32, fcoefs []float64, g float64) cs.SOC {
	d := cs.Matrix{Rows: len(rows), Cols: w, Data: make([]float64, len(rows)*w)}
	e := make([]float64, len(rows))
	for i, r := range rows {
		for j, col := range r.cols {
			d.Data[i*w+int(col)] += r.coeffs[j]
		}
		e[i] = r.e
	}
	return cs.SOC{D: d, E: e, FCols: fcols, FCoefs: fcoefs, G: g}
}

func denseFromRows(rows []stackRow, w int) (cs.Matrix, []float64) {
	a := cs.Matrix{Rows: len(rows), Cols: w, Data: make([]float64, len(rows)*w)}
	b := make([]float64, len(rows))
	for i, r := range rows {
		for j, col := range r.cols {
			a.Data[i*w+int(col)] += r.coeffs[j]
		}
		b[i] = -r.e
	}
	return a, b
}

// tryLeastSquares recognizes unconstrained least-squares objectives:
// a sum of squared affine terms, optionally with a single l1 penalty on a
// whole variable (LASSO), or a bare l2 norm of an affine expression.
// Returns false when the objective has another shape.
func (c *compiler) tryLeastSquares(obj *Expr) (bool, error) {
	var terms []term
	flatten(obj, 1, &terms)
	ct, err := classify(terms)
	if err != nil {
		return false, nil
	}
	if len(ct.affine) > 0 {
		return false, nil
	}

	switch {
	case len(ct.squares) > 0:
		var lambda float64
		switch len(ct.norms) {
		case 0:
		case 1:
			nt := ct.norms[0]
			if nt.e.ord != 1 || nt.k <= 0 || nt.e.args[0].op != opVar {
				return false, nil
			}
			// the penalty must cover every program column
			if len(c.offsets) != 1 || nt.e.args[0].v.n != int(c.prog.NbCols) {
				return false, nil
			}
			lambda = nt.k
		default:
			return false, nil
		}
		rows, err := c.stackSquares(ct.squares)
		if err != nil {
			return false, err
		}
		a, b := denseFromRows(rows, int(c.prog.NbCols))
		c.prog.LSQ = &cs.LeastSquares{A: a, B: b, Lambda: lambda, Squared: true}
		return true, nil

	case len(ct.norms) == 1 && ct.norms[0].e.ord == 2 && ct.norms[0].k > 0:
		nt := ct.norms[0]
		f, err := c.linearize(nt.e.args[0])
		if err != nil {
			return false, err
		}
		rows := make([]stackRow, f.n)
		for i := 0; i < f.n; i++ {
			cols, coeffs := f.entryRow(i)
			for j := range coeffs {
				coeffs[j] *= nt.k
			}
			rows[i] = stackRow{cols: cols, coeffs: coeffs, e: nt.k * f.offset[i]}
		}
		a, b := denseFromRows(rows, int(c.prog.NbCols))
		c.prog.LSQ = &cs.LeastSquares{A: a, B: b, Squared: false}
		return true, nil

	default:
		return false, nil
	}
}

func (c *compiler) objective(obj *Expr) error {
	var terms []term
	flatten(obj, 1, &terms)
	ct, err := classify(terms)
	if err != nil {
		return err
	}

	if len(ct.squares) > 0 {
		if len(ct.affine) > 0 || len(ct.norms) > 0 {
			return fmt.Errorf("%w: squared objective terms mixed with other terms", ErrUnsupported)
		}
		rows, err := c.stackSquares(ct.squares)
		if err != nil {
			return err
		}
		w := int(c.prog.NbCols)
		t := c.prog.AddColumns(1)
		c.prog.Cost[t] = 1
		c.prog.AddCone(coneFromRows(w, rows, []uint32{t}, []float64{1}, 0))
		c.prog.PostSquare = true
		return nil
	}

	for _, t := range ct.affine {
		f, err := c.linearize(t.e)
		if err != nil {
			return err
		}
		for col, vec := range f.coeffs {
			c.prog.Cost[col] += t.k * vec[0]
		}
		c.prog.Offset += t.k * f.offset[0]
	}
	for _, nt := range ct.norms {
		if nt.k <= 0 {
			return fmt.Errorf("%w: norm scaled by %v in a minimization", ErrDCPViolation, nt.k)
		}
		if err := c.normEpigraphCost(nt); err != nil {
			return err
		}
	}
	return nil
}

// normEpigraphCost adds the epigraph of k·‖u‖ to the objective: auxiliary
// columns bounding |u| and cost k on them; an l2 norm becomes a cone on a
// single epigraph column.
func (c *compiler) normEpigraphCost(nt term) error {
	f, err := c.linearize(nt.e.args[0])
	if err != nil {
		return err
	}
	switch {
	case nt.e.ord == 1:
		off := c.prog.AddColumns(uint32(f.n))
		for i := 0; i < f.n; i++ {
			c.absRows(f, i, off+uint32(i))
			c.prog.Cost[off+uint32(i)] += nt.k
		}
	case math.IsInf(nt.e.ord, 1):
		off := c.prog.AddColumns(1)
		for i := 0; i < f.n; i++ {
			c.absRows(f, i, off)
		}
		c.prog.Cost[off] += nt.k
	default: // l2
		w := int(c.prog.NbCols)
		t := c.prog.AddColumns(1)
		rows := make([]stackRow, f.n)
		for i := 0; i < f.n; i++ {
			cols, coeffs := f.entryRow(i)
			rows[i] = stackRow{cols: cols, coeffs: coeffs, e: f.offset[i]}
		}
		c.prog.AddCone(coneFromRows(w, rows, []uint32{t}, []float64{1}, 0))
		c.prog.Cost[t] += nt.k
	}
	return nil
}

// absRows emits u_i ≤ t and −u_i ≤ t.
func (c *compiler) absRows(f *linForm, i int, t uint32) {
	cols, coeffs := f.entryRow(i)
	c.prog.AddRow(cs.Row{
		Cols:   append(append([]uint32(nil), cols...), t),
		Coeffs: append(append([]float64(nil), coeffs...), -1),
		Rel:    cs.LE,
		RHS:    -f.offset[i],
	})
	neg := make([]float64, len(coeffs))
	for j := range coeffs {
		neg[j] = -coeffs[j]
	}
	c.prog.AddRow(cs.Row{
		Cols:   append(append([]uint32(nil), cols...), t),
		Coeffs: append(neg, -1),
		Rel:    cs.LE,
		RHS:    f.offset[i],
	})
}

func (c *compiler) combineAffine(terms []term, n int) (*linForm, error) {
	out := newLinForm(n)
	for _, t := range terms {
		f, err := c.linearize(t.e)
		if err != nil {
			return nil, err
		}
		out.add(f, t.k)
	}
	return out, nil
}

func (c *compiler) constraint(con Constraint) error {
	lhs, rhs, rel := con.lhs, con.rhs, con.rel
	if rel == cs.GE {
		lhs, rhs = rhs, lhs
		rel = cs.LE
	}

	var terms []term
	flatten(lhs, 1, &terms)
	flatten(rhs, -1, &terms)
	ct, err := classify(terms)
	if err != nil {
		return err
	}

	if len(ct.norms) == 0 && len(ct.squares) == 0 {
		f, err := c.combineAffine(ct.affine, con.n)
		if err != nil {
			return err
		}
		for i := 0; i < con.n; i++ {
			cols, coeffs := f.entryRow(i)
			c.prog.AddRow(cs.Row{Cols: cols, Coeffs: coeffs, Rel: rel, RHS: -f.offset[i]})
		}
		return nil
	}

	if rel == cs.EQ {
		return fmt.Errorf("%w: equality with non-affine sides", ErrDCPViolation)
	}
	if con.n != 1 {
		return fmt.Errorf("%w: norm-bearing constraint must be scalar", ErrUnsupported)
	}
	a, err := c.combineAffine(ct.affine, 1)
	if err != nil {
		return err
	}

	switch {
	case len(ct.norms) == 1 && len(ct.squares) == 0:
		return c.normConstraint(ct.norms[0], a)
	case len(ct.norms) == 0:
		return c.quadConstraint(ct.squares, a)
	default:
		return fmt.Errorf("%w: mixed norm and squared terms in one constraint", ErrUnsupported)
	}
}

// normConstraint canonicalizes k·‖u‖ + a ≤ 0.
func (c *compiler) normConstraint(nt term, a *linForm) error {
	if nt.k <= 0 {
		return fmt.Errorf("%w: norm on the concave side of an inequality", ErrDCPViolation)
	}
	f, err := c.linearize(nt.e.args[0])
	if err != nil {
		return err
	}
	aCols, aCoeffs := a.entryRow(0)

	switch {
	case nt.e.ord == 1:
		off := c.prog.AddColumns(uint32(f.n))
		cols := append([]uint32(nil), aCols...)
		coeffs := append([]float64(nil), aCoeffs...)
		for i := 0; i < f.n; i++ {
			c.absRows(f, i, off+uint32(i))
			cols = append(cols, off+uint32(i))
			coeffs = append(coeffs, nt.k)
		}
		c.prog.AddRow(cs.Row{Cols: cols, Coeffs: coeffs, Rel: cs.LE, RHS: -a.offset[0]})
	case math.IsInf(nt.e.ord, 1):
		off := c.prog.AddColumns(1)
		for i := 0; i < f.n; i++ {
			c.absRows(f, i, off)
		}
		c.prog.AddRow(cs.Row{
			Cols:   append(append([]uint32(nil), aCols...), off),
			Coeffs: append(append([]float64(nil), aCoeffs...), nt.k),
			Rel:    cs.LE,
			RHS:    -a.offset[0],
		})
	default: // l2: ‖u‖ ≤ −a/k as a cone
		rows := make([]stackRow, f.n)
		for i := 0; i < f.n; i++ {
			cols, coeffs := f.entryRow(i)
			rows[i] = stackRow{cols: cols, coeffs: coeffs, e: f.offset[i]}
		}
		fcoefs := make([]float64, len(aCoeffs))
		for j := range aCoeffs {
			fcoefs[j] = -aCoeffs[j] / nt.k
		}
		c.prog.AddCone(coneFromRows(int(c.prog.NbCols), rows, aCols, fcoefs, -a.offset[0]/nt.k))
	}
	return nil
}

// quadConstraint canonicalizes Σ kᵢ·uᵢ² + a ≤ 0 into ‖stack‖₂ ≤ √(−a),
// which requires the bound to be constant.
func (c *compiler) quadConstraint(squares []term, a *linForm) error {
	if !a.isConstant() {
		return fmt.Errorf("%w: quadratic constraint with a non-constant bound", ErrUnsupported)
	}
	r := -a.offset[0]
	rows, err := c.stackSquares(squares)
	if err != nil {
		return err
	}
	if r < 0 {
		// sum of squares below a negative constant: trivially infeasible
		c.prog.AddRow(cs.Row{Rel: cs.LE, RHS: -1})
		return nil
	}
	c.prog.AddCone(coneFromRows(int(c.prog.NbCols), rows, nil, nil, math.Sqrt(r)))
	return nil
}
