package frontend

import (
	"fmt"
	"math"
)

// Eval numerically evaluates a scalar constant expression, one that
// references parameters and constants but no variables.
func (e *Expr) Eval() (float64, error) {
	if !e.shape.IsScalar() {
		return 0, fmt.Errorf("%w: cannot evaluate %s to a scalar", ErrShapeMismatch, e.shape)
	}
	vals, err := e.eval()
	if err != nil {
		return 0, err
	}
	return vals[0], nil
}

func (e *Expr) eval() ([]float64, error) {
	switch e.op {
	case opVar:
		return nil, fmt.Errorf("%w: %q", ErrNotConstant, e.v.name)
	case opParam:
		return e.par.Values(), nil
	case opConst:
		return append([]float64(nil), e.c...), nil
	case opAdd:
		out := make([]float64, e.shape.Size())
		for _, arg := range e.args {
			vals, err := arg.eval()
			if err != nil {
				return nil, err
			}
			for i := range out {
				out[i] += vals[entryIndex(i, len(vals))]
			}
		}
		return out, nil
	case opScale:
		vals, err := e.args[0].eval()
		if err != nil {
			return nil, err
		}
		for i := range vals {
			vals[i] *= e.k
		}
		return vals, nil
	case opScaleParam:
		vals, err := e.args[0].eval()
		if err != nil {
			return nil, err
		}
		for i := range vals {
			vals[i] *= e.par.val[0]
		}
		return vals, nil
	case opMul:
		vals, err := e.args[0].eval()
		if err != nil {
			return nil, err
		}
		out := make([]float64, e.shape.Size())
		for i := range out {
			out[i] = e.c[entryIndex(i, len(e.c))] * vals[entryIndex(i, len(vals))]
		}
		return out, nil
	case opMatVec:
		vals, err := e.args[0].eval()
		if err != nil {
			return nil, err
		}
		out := make([]float64, e.mtx.Rows)
		for i := 0; i < e.mtx.Rows; i++ {
			for j := 0; j < e.mtx.Cols; j++ {
				out[i] += e.mtx.Data[i*e.mtx.Cols+j] * vals[j]
			}
		}
		return out, nil
	case opNorm:
		vals, err := e.args[0].eval()
		if err != nil {
			return nil, err
		}
		return []float64{normOf(vals, e.ord)}, nil
	case opSquare:
		vals, err := e.args[0].eval()
		if err != nil {
			return nil, err
		}
		return []float64{vals[0] * vals[0]}, nil
	default:
		return nil, fmt.Errorf("cannot evaluate expression op %d", e.op)
	}
}

// entryIndex implements scalar broadcasting over vector entries.
func entryIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	return i
}

func normOf(vals []float64, ord float64) float64 {
	var acc float64
	switch {
	case ord == 1:
		for _, v := range vals {
			acc += math.Abs(v)
		}
	case ord == 2:
		for _, v := range vals {
			acc += v * v
		}
		acc = math.Sqrt(acc)
	default: // ∞
		for _, v := range vals {
			if a := math.Abs(v); a > acc {
				acc = a
			}
		}
	}
	return acc
}
