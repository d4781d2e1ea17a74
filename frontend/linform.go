package frontend

import (
	"fmt"
	"slices"
)

// linForm is a vector-valued affine form over program columns: for each entry
// i, value_i = Σ_col coeffs[col][i]·x_col + offset[i]. Parameters are baked
// into the offset at canonicalization time.
type linForm struct {
	n      int
	coeffs map[uint32][]float64
	offset []float64
}

func newLinForm(n int) *linForm {
	return &linForm{n: n, coeffs: make(map[uint32][]float64), offset: make([]float64, n)}
}

// add accumulates k·g into f, broadcasting scalar entries of g.
func (f *linForm) add(g *linForm, k float64) {
	for col, vec := range g.coeffs {
		dv, ok := f.coeffs[col]
		if !ok {
			dv = make([]float64, f.n)
			f.coeffs[col] = dv
		}
		for i := 0; i < f.n; i++ {
			dv[i] += k * vec[entryIndex(i, g.n)]
		}
	}
	for i := 0; i < f.n; i++ {
		f.offset[i] += k * g.offset[entryIndex(i, g.n)]
	}
}

func (f *linForm) scale(k float64) {
	for _, vec := range f.coeffs {
		for i := range vec {
			vec[i] *= k
		}
	}
	for i := range f.offset {
		f.offset[i] *= k
	}
}

// entryRow returns the sparse coefficients of entry i, columns sorted.
func (f *linForm) entryRow(i int) ([]uint32, []float64) {
	cols := make([]uint32, 0, len(f.coeffs))
	for col := range f.coeffs {
		cols = append(cols, col)
	}
	slices.Sort(cols)
	var outCols []uint32
	var outCoeffs []float64
	for _, col := range cols {
		if v := f.coeffs[col][i]; v != 0 {
			outCols = append(outCols, col)
			outCoeffs = append(outCoeffs, v)
		}
	}
	return outCols, outCoeffs
}

// isConstant reports whether the form carries no column coefficients.
func (f *linForm) isConstant() bool {
	for _, vec := range f.coeffs {
		for _, v := range vec {
			if v != 0 {
				return false
			}
		}
	}
	return true
}

// linearize turns an affine expression into a linForm, allocating column
// blocks for the variables it references.
func (c *compiler) linearize(e *Expr) (*linForm, error) {
	switch e.op {
	case opVar:
		off := c.block(e.v)
		f := newLinForm(e.v.n)
		for i := 0; i < e.v.n; i++ {
			vec := make([]float64, e.v.n)
			vec[i] = 1
			f.coeffs[off+uint32(i)] = vec
		}
		return f, nil
	case opParam:
		f := newLinForm(e.par.n)
		copy(f.offset, e.par.val)
		return f, nil
	case opConst:
		f := newLinForm(len(e.c))
		copy(f.offset, e.c)
		return f, nil
	case opAdd:
		f := newLinForm(e.shape.Size())
		for _, arg := range e.args {
			g, err := c.linearize(arg)
			if err != nil {
				return nil, err
			}
			f.add(g, 1)
		}
		return f, nil
	case opScale:
		f, err := c.linearize(e.args[0])
		if err != nil {
			return nil, err
		}
		f.scale(e.k)
		return f, nil
	case opScaleParam:
		f, err := c.linearize(e.args[0])
		if err != nil {
			return nil, err
		}
		f.scale(e.par.val[0])
		return f, nil
	case opMul:
		g, err := c.linearize(e.args[0])
		if err != nil {
			return nil, err
		}
		n := e.shape.Size()
		f := newLinForm(n)
		for col, vec := range g.coeffs {
			dv := make([]float64, n)
			for i := 0; i < n; i++ {
				dv[i] = e.c[entryIndex(i, len(e.c))] * vec[entryIndex(i, g.n)]
			}
			f.coeffs[col] = dv
		}
		for i := 0; i < n; i++ {
			f.offset[i] = e.c[entryIndex(i, len(e.c))] * g.offset[entryIndex(i, g.n)]
		}
		return f, nil
	case opMatVec:
		g, err := c.linearize(e.args[0])
		if err != nil {
			return nil, err
		}
		m := e.mtx
		f := newLinForm(m.Rows)
		for col, vec := range g.coeffs {
			dv := make([]float64, m.Rows)
			for i := 0; i < m.Rows; i++ {
				for j := 0; j < m.Cols; j++ {
					dv[i] += m.Data[i*m.Cols+j] * vec[entryIndex(j, g.n)]
				}
			}
			f.coeffs[col] = dv
		}
		for i := 0; i < m.Rows; i++ {
			for j := 0; j < m.Cols; j++ {
				f.offset[i] += m.Data[i*m.Cols+j] * g.offset[entryIndex(j, g.n)]
			}
		}
		return f, nil
	default:
		return nil, fmt.Errorf("%w: non-affine expression in affine position", ErrUnsupported)
	}
}
