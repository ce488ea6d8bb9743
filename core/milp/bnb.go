package milp

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize/convex/lp"
)

// DefaultTolerance is used when BranchAndBound.Tolerance is zero.
const DefaultTolerance = 1e-7

// integrality is the distance from 0 or 1 below which a binary counts as integral.
const integrality = 1e-6

// BranchAndBound is a depth-first branch-and-bound Solver. Each node's LP
// relaxation is solved with gonum's simplex method.
type BranchAndBound struct {
	Tolerance float64
}

var _ Solver = BranchAndBound{}

func (s BranchAndBound) tolerance() float64 {
	if s.Tolerance > 0 {
		return s.Tolerance
	}
	return DefaultTolerance
}

type budget struct {
	max  int
	used int
}

func (b *budget) take() bool {
	if b.max > 0 && b.used >= b.max {
		return false
	}
	b.used++
	return true
}

// Solve implements Solver. The node budget of lim is shared by all
// components of p.
func (s BranchAndBound) Solve(ctx context.Context, p *Problem, lim Limits) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	for _, c := range p.Constraints {
		if len(c.Terms) == 0 && !satisfied(0, c.Sense, c.RHS, s.tolerance()) {
			return Result{Status: Infeasible}, nil
		}
	}
	b := &budget{max: lim.MaxNodes}
	x := make([]float64, len(p.Vars))
	for _, comp := range components(p) {
		r, err := s.solveComponent(ctx, comp.problem, b)
		if err != nil || r.Status != Optimal {
			r.Nodes = b.used
			r.X = nil
			return r, err
		}
		for k, i := range comp.vars {
			x[i] = r.X[k]
		}
	}
	return Result{Status: Optimal, X: x, Objective: p.Evaluate(x), Nodes: b.used}, nil
}

type node struct {
	lo, hi []float64
}

func (s BranchAndBound) solveComponent(ctx context.Context, p *Problem, b *budget) (Result, error) {
	tol := s.tolerance()
	sign := 1.0
	if p.Maximize {
		sign = -1
	}
	root := node{lo: make([]float64, len(p.Vars)), hi: make([]float64, len(p.Vars))}
	for i, v := range p.Vars {
		root.lo[i], root.hi[i] = v.Lower, v.Upper
	}

	var best []float64
	bestObj := math.Inf(1)
	stack := []node{root}
	for first := true; len(stack) > 0; first = false {
		if ctx.Err() != nil || !b.take() {
			return Result{Status: Timeout}, nil
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		x, err := s.relaxation(p, nd.lo, nd.hi)
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			continue
		case errors.Is(err, lp.ErrUnbounded):
			if first {
				return Result{Status: Unbounded}, nil
			}
			continue
		case err != nil:
			return Result{}, fmt.Errorf("%w: %v", ErrLP, err)
		}

		obj := sign * p.Evaluate(x)
		if best != nil && obj >= bestObj-tol*(1+math.Abs(bestObj)) {
			continue
		}
		j := branchVar(p, x)
		if j < 0 {
			for i, v := range p.Vars {
				if v.Kind == Binary {
					x[i] = math.Round(x[i])
				}
			}
			best, bestObj = x, obj
			continue
		}
		down := node{lo: nd.lo, hi: append([]float64(nil), nd.hi...)}
		down.hi[j] = 0
		up := node{lo: append([]float64(nil), nd.lo...), hi: nd.hi}
		up.lo[j] = 1
		stack = append(stack, down, up)
	}
	if best == nil {
		return Result{Status: Infeasible}, nil
	}
	return Result{Status: Optimal, X: best}, nil
}

// branchVar returns the most fractional binary of x, or -1 when all binaries
// are integral. Ties go to the lowest index.
func branchVar(p *Problem, x []float64) int {
	j, worst := -1, integrality
	for i, v := range p.Vars {
		if v.Kind != Binary {
			continue
		}
		if f := math.Abs(x[i] - math.Round(x[i])); f > worst {
			j, worst = i, f
		}
	}
	return j
}
