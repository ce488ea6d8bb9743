package milp

import (
	"fmt"
	"math"
)

// VarKind distinguishes continuous from binary variables.
type VarKind int

const (
	Continuous VarKind = iota
	Binary
)

// Var is a decision variable. Upper may be +Inf for continuous variables.
type Var struct {
	Name  string
	Kind  VarKind
	Lower float64
	Upper float64
}

// Sense is the relation of a constraint.
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "="
	default:
		return "?"
	}
}

// Term is a coefficient applied to a variable index.
type Term struct {
	Var  int
	Coef float64
}

// Constraint is a linear relation sum(terms) <sense> RHS.
type Constraint struct {
	// Family groups constraints generated by the same rule.
	Family string
	Terms  []Term
	Sense  Sense
	RHS    float64
}

// Problem is a linear model over Vars. Objective holds one coefficient per variable.
type Problem struct {
	Vars        []Var
	Constraints []Constraint
	Objective   []float64
	Maximize    bool
}

// AddVar appends v and returns its index.
func (p *Problem) AddVar(v Var) int {
	if v.Kind == Binary {
		v.Lower, v.Upper = 0, 1
	}
	p.Vars = append(p.Vars, v)
	p.Objective = append(p.Objective, 0)
	return len(p.Vars) - 1
}

// AddConstraint appends c.
func (p *Problem) AddConstraint(c Constraint) {
	p.Constraints = append(p.Constraints, c)
}

// SetObjective sets the objective coefficient of variable i.
func (p *Problem) SetObjective(i int, coef float64) {
	p.Objective[i] = coef
}

// Validate checks indices and numeric values.
func (p *Problem) Validate() error {
	if len(p.Objective) != len(p.Vars) {
		return fmt.Errorf("objective has %d coefficients for %d variables", len(p.Objective), len(p.Vars))
	}
	for i, v := range p.Vars {
		if math.IsNaN(v.Lower) || math.IsNaN(v.Upper) || math.IsInf(v.Lower, 0) || v.Lower > v.Upper {
			return fmt.Errorf("variable %s has invalid bounds [%v,%v]", v.Name, v.Lower, v.Upper)
		}
		if !finite(p.Objective[i]) {
			return fmt.Errorf("variable %s has non-finite objective coefficient", v.Name)
		}
	}
	for ci, c := range p.Constraints {
		if !finite(c.RHS) {
			return fmt.Errorf("constraint %d (%s) has non-finite rhs", ci, c.Family)
		}
		for _, t := range c.Terms {
			if t.Var < 0 || t.Var >= len(p.Vars) {
				return fmt.Errorf("constraint %d (%s) references unknown variable %d", ci, c.Family, t.Var)
			}
			if !finite(t.Coef) {
				return fmt.Errorf("constraint %d (%s) has non-finite coefficient", ci, c.Family)
			}
		}
	}
	return nil
}

// Evaluate returns the objective value of x.
func (p *Problem) Evaluate(x []float64) float64 {
	var v float64
	for i, c := range p.Objective {
		v += c * x[i]
	}
	return v
}

// Violated returns the index of the first constraint that x violates by more
// than tol, or -1.
func (p *Problem) Violated(x []float64, tol float64) int {
	for ci, c := range p.Constraints {
		var lhs float64
		for _, t := range c.Terms {
			lhs += t.Coef * x[t.Var]
		}
		switch c.Sense {
		case LessEq:
			if lhs > c.RHS+tol {
				return ci
			}
		case GreaterEq:
			if lhs < c.RHS-tol {
				return ci
			}
		case Equal:
			if math.Abs(lhs-c.RHS) > tol {
				return ci
			}
		}
	}
	return -1
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
