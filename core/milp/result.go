package milp

import (
	"context"
	"errors"
)

// Status is the outcome of a solve.
type Status int

const (
	Optimal Status = iota
	Infeasible
	Unbounded
	Timeout
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case Infeasible:
		return "infeasible"
	case Unbounded:
		return "unbounded"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Result carries the assignment found by a solver. X and Objective are only
// meaningful when Status is Optimal.
type Result struct {
	Status    Status
	X         []float64
	Objective float64
	// Nodes is the number of LP relaxations solved.
	Nodes int
}

// Limits bound the work of one solve.
type Limits struct {
	// MaxNodes caps the number of branch-and-bound nodes; zero means no cap.
	MaxNodes int
}

// ErrLP is returned when the LP backend fails for reasons other than
// infeasibility or unboundedness.
var ErrLP = errors.New("lp backend failure")

// Solver solves a Problem. Cancellation of ctx yields a Timeout status.
type Solver interface {
	Solve(ctx context.Context, p *Problem, lim Limits) (Result, error)
}
