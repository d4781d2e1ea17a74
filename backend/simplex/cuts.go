package simplex

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cvxlab/cvx/constraint"
)

func newDense(r, c int) *mat.Dense {
	return mat.NewDense(r, c, nil)
}

// initialCuts returns linear rows implied by the cone ‖D·x+E‖₂ ≤ F·x+G:
// the right-hand side must be nonnegative, and every component of D·x+E is
// bounded in magnitude by it.
func initialCuts(cone constraint.SOC) []constraint.Row {
	if len(cone.FCols) == 0 && cone.G < 0 {
		// constant negative radius, unsatisfiable
		return []constraint.Row{{Rel: constraint.LE, RHS: -1}}
	}

	var rows []constraint.Row
	if len(cone.FCols) > 0 {
		rows = append(rows, constraint.Row{
			Cols:   append([]uint32(nil), cone.FCols...),
			Coeffs: append([]float64(nil), cone.FCoefs...),
			Rel:    constraint.GE,
			RHS:    -cone.G,
		})
	}

	for i := 0; i < cone.D.Rows; i++ {
		// D_i·x − F·x ≤ G − E_i  and  −D_i·x − F·x ≤ G + E_i
		rows = append(rows,
			componentCut(cone, i, 1),
			componentCut(cone, i, -1),
		)
	}
	return rows
}

func componentCut(cone constraint.SOC, i int, sign float64) constraint.Row {
	var cols []uint32
	var coeffs []float64
	for j := 0; j < cone.D.Cols; j++ {
		if d := cone.D.Data[i*cone.D.Cols+j]; d != 0 {
			cols = append(cols, uint32(j))
			coeffs = append(coeffs, sign*d)
		}
	}
	for k, col := range cone.FCols {
		cols = append(cols, col)
		coeffs = append(coeffs, -cone.FCoefs[k])
	}
	return constraint.Row{
		Cols:   cols,
		Coeffs: coeffs,
		Rel:    constraint.LE,
		RHS:    cone.G - sign*cone.E[i],
	}
}

// worstViolation evaluates every cone at x and, when one is violated beyond
// the tolerance, returns a supporting-hyperplane cut at the most violated one:
// with u = (D·x̂+E)/‖D·x̂+E‖, the valid inequality u·(D·x+E) ≤ F·x+G.
func worstViolation(cones []constraint.SOC, x []float64, tol float64) (constraint.Row, bool) {
	var (
		best     constraint.Row
		bestViol float64
		found    bool
	)
	for _, cone := range cones {
		v := make([]float64, cone.D.Rows)
		var nv float64
		for i := range v {
			v[i] = cone.E[i]
			for j := 0; j < cone.D.Cols; j++ {
				v[i] += cone.D.Data[i*cone.D.Cols+j] * x[j]
			}
			nv += v[i] * v[i]
		}
		nv = math.Sqrt(nv)

		rhs := cone.G
		for k, col := range cone.FCols {
			rhs += cone.FCoefs[k] * x[col]
		}

		viol := nv - rhs
		if viol <= tol*(1+math.Abs(rhs)) || nv == 0 {
			continue
		}
		if !found || viol > bestViol {
			best = gradientCut(cone, v, nv)
			bestViol = viol
			found = true
		}
	}
	return best, found
}

func gradientCut(cone constraint.SOC, v []float64, nv float64) constraint.Row {
	var cols []uint32
	var coeffs []float64
	var ue float64
	for j := 0; j < cone.D.Cols; j++ {
		var uj float64
		for i := 0; i < cone.D.Rows; i++ {
			uj += v[i] / nv * cone.D.Data[i*cone.D.Cols+j]
		}
		if uj != 0 {
			cols = append(cols, uint32(j))
			coeffs = append(coeffs, uj)
		}
	}
	for i := range v {
		ue += v[i] / nv * cone.E[i]
	}
	for k, col := range cone.FCols {
		cols = append(cols, col)
		coeffs = append(coeffs, -cone.FCoefs[k])
	}
	return constraint.Row{
		Cols:   cols,
		Coeffs: coeffs,
		Rel:    constraint.LE,
		RHS:    cone.G - ue,
	}
}
