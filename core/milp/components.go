package milp

import "sort"

// component is a sub-problem over variables that share no constraint with the
// rest of the model. vars maps local indices back to the parent problem.
type component struct {
	problem *Problem
	vars    []int
}

// components partitions p by its constraint graph. Constraints without terms
// are dropped; callers check them separately. Components are ordered by their
// lowest variable index.
func components(p *Problem) []component {
	parent := make([]int, len(p.Vars))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		if ra < rb {
			parent[rb] = ra
		} else {
			parent[ra] = rb
		}
	}
	for _, c := range p.Constraints {
		for k := 1; k < len(c.Terms); k++ {
			union(c.Terms[0].Var, c.Terms[k].Var)
		}
	}

	groups := map[int][]int{}
	for i := range p.Vars {
		r := find(i)
		groups[r] = append(groups[r], i)
	}
	roots := make([]int, 0, len(groups))
	for r := range groups {
		roots = append(roots, r)
	}
	sort.Ints(roots)

	local := make([]int, len(p.Vars))
	comps := make([]component, len(roots))
	index := map[int]int{}
	for ci, r := range roots {
		sub := &Problem{Maximize: p.Maximize}
		for _, i := range groups[r] {
			local[i] = sub.AddVar(p.Vars[i])
			sub.Objective[local[i]] = p.Objective[i]
		}
		comps[ci] = component{problem: sub, vars: groups[r]}
		index[r] = ci
	}
	for _, c := range p.Constraints {
		if len(c.Terms) == 0 {
			continue
		}
		sub := comps[index[find(c.Terms[0].Var)]].problem
		terms := make([]Term, len(c.Terms))
		for k, t := range c.Terms {
			terms[k] = Term{Var: local[t.Var], Coef: t.Coef}
		}
		sub.AddConstraint(Constraint{Family: c.Family, Terms: terms, Sense: c.Sense, RHS: c.RHS})
	}
	return comps
}
