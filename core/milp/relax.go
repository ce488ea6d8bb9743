package milp

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// relaxation solves the LP relaxation of p with variable bounds lo/hi and
// returns the minimising x of sign*objective. It returns lp.ErrInfeasible or
// lp.ErrUnbounded for those outcomes.
//
// Rows left with a single non-fixed variable are turned into bounds first;
// only rows coupling two or more variables reach the simplex solver.
func (s BranchAndBound) relaxation(p *Problem, lo, hi []float64) ([]float64, error) {
	n := len(p.Vars)
	tol := s.tolerance()
	lo = append([]float64(nil), lo...)
	hi = append([]float64(nil), hi...)
	sign := 1.0
	if p.Maximize {
		sign = -1
	}

	type row struct {
		terms []Term
		sense Sense
		rhs   float64
	}
	consumed := make([]bool, len(p.Constraints))
	var coupling []row
	for changed := true; changed; {
		changed = false
		coupling = coupling[:0]
		for ci, c := range p.Constraints {
			if consumed[ci] {
				continue
			}
			free, rhs := reduce(c, lo, hi)
			switch len(free) {
			case 0:
				if !satisfied(0, c.Sense, rhs, tol) {
					return nil, lp.ErrInfeasible
				}
				consumed[ci] = true
			case 1:
				if !tighten(free[0], c.Sense, rhs, lo, hi, tol) {
					return nil, lp.ErrInfeasible
				}
				consumed[ci] = true
				changed = true
			default:
				coupling = append(coupling, row{terms: free, sense: c.Sense, rhs: rhs})
			}
		}
	}

	x := make([]float64, n)
	col := make([]int, n)
	var lpVars []int
	for i := range col {
		col[i] = -1
	}
	for _, r := range coupling {
		for _, t := range r.terms {
			if col[t.Var] < 0 {
				col[t.Var] = len(lpVars)
				lpVars = append(lpVars, t.Var)
			}
		}
	}
	for i := 0; i < n; i++ {
		if col[i] >= 0 {
			continue
		}
		cost := sign * p.Objective[i]
		switch {
		case hi[i] <= lo[i] || cost >= 0:
			x[i] = lo[i]
		case math.IsInf(hi[i], 1):
			return nil, lp.ErrUnbounded
		default:
			x[i] = hi[i]
		}
	}
	if len(lpVars) == 0 {
		return x, nil
	}

	nv := len(lpVars)
	c := make([]float64, nv)
	for k, i := range lpVars {
		c[k] = sign * p.Objective[i]
	}
	var g []float64
	var h []float64
	var a []float64
	var b []float64
	for _, r := range coupling {
		dense := make([]float64, nv)
		for _, t := range r.terms {
			dense[col[t.Var]] += t.Coef
		}
		switch r.sense {
		case LessEq:
			g = append(g, dense...)
			h = append(h, r.rhs)
		case GreaterEq:
			for k := range dense {
				dense[k] = -dense[k]
			}
			g = append(g, dense...)
			h = append(h, -r.rhs)
		case Equal:
			a = append(a, dense...)
			b = append(b, r.rhs)
		}
	}
	for k, i := range lpVars {
		lower := make([]float64, nv)
		lower[k] = -1
		g = append(g, lower...)
		h = append(h, -lo[i])
		if !math.IsInf(hi[i], 1) {
			upper := make([]float64, nv)
			upper[k] = 1
			g = append(g, upper...)
			h = append(h, hi[i])
		}
	}
	gm := mat.NewDense(len(h), nv, g)
	var am mat.Matrix
	if len(b) > 0 {
		am = mat.NewDense(len(b), nv, a)
	}
	cStd, aStd, bStd := lp.Convert(c, gm, h, am, b)
	_, sol, err := lpSimplex(cStd, aStd, bStd, tol, nil)
	if err != nil {
		return nil, err
	}
	for k, i := range lpVars {
		x[i] = sol[k] - sol[nv+k]
	}
	return x, nil
}

// lpSimplex points to the LP backend. Tests override it to simulate failures.
var lpSimplex = lp.Simplex

// reduce substitutes fixed variables into c and returns the remaining terms
// (one per variable) and the adjusted right-hand side.
func reduce(c Constraint, lo, hi []float64) ([]Term, float64) {
	rhs := c.RHS
	var free []Term
	for _, t := range c.Terms {
		if hi[t.Var] <= lo[t.Var] {
			rhs -= t.Coef * lo[t.Var]
			continue
		}
		merged := false
		for k := range free {
			if free[k].Var == t.Var {
				free[k].Coef += t.Coef
				merged = true
				break
			}
		}
		if !merged {
			free = append(free, t)
		}
	}
	out := free[:0]
	for _, t := range free {
		if t.Coef != 0 {
			out = append(out, t)
		}
	}
	return out, rhs
}

// tighten applies coef*x <sense> rhs as a bound on x and reports whether the
// bounds remain consistent.
func tighten(t Term, sense Sense, rhs float64, lo, hi []float64, tol float64) bool {
	v := rhs / t.Coef
	upper := (sense == LessEq) == (t.Coef > 0)
	if sense == Equal || upper {
		hi[t.Var] = math.Min(hi[t.Var], v)
	}
	if sense == Equal || !upper {
		lo[t.Var] = math.Max(lo[t.Var], v)
	}
	if lo[t.Var] > hi[t.Var] {
		if lo[t.Var]-hi[t.Var] > tol*(1+math.Abs(v)) {
			return false
		}
		hi[t.Var] = lo[t.Var]
	}
	return true
}

func satisfied(lhs float64, sense Sense, rhs, tol float64) bool {
	switch sense {
	case LessEq:
		return lhs <= rhs+tol
	case GreaterEq:
		return lhs >= rhs-tol
	default:
		return math.Abs(lhs-rhs) <= tol
	}
}
