package bidding

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/flexbid/core/logger"
	"github.com/kilianp07/flexbid/core/milp"
	"github.com/kilianp07/flexbid/core/model"
)

// Constraint families of the bid model.
const (
	FamilyMinBidDown  = "min_bid_down" // C1
	FamilyMinBidUp    = "min_bid_up"   // C2
	FamilyDownReserve = "down_reserve" // C3
	FamilyUpReserve   = "up_reserve"   // C4
	FamilyCeiling     = "pmax_ceiling" // C5
	FamilyFloor       = "pmin_floor"   // C6
)

// AttemptHook observes every solver attempt.
type AttemptHook func(wd model.Weekday, attempt int, status milp.Status, elapsed time.Duration)

// newSolver builds the default solver. Tests override it.
var newSolver = func(tol float64) milp.Solver { return milp.BranchAndBound{Tolerance: tol} }

// Optimizer chooses hourly Up/Down bids maximising expected income.
type Optimizer struct {
	cfg    Config
	solver milp.Solver
	hook   AttemptHook
	log    logger.Logger
}

// Option customises an Optimizer.
type Option func(*Optimizer)

// WithSolver replaces the branch-and-bound solver.
func WithSolver(s milp.Solver) Option { return func(o *Optimizer) { o.solver = s } }

// WithAttemptHook registers h.
func WithAttemptHook(h AttemptHook) Option { return func(o *Optimizer) { o.hook = h } }

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(o *Optimizer) { o.log = l } }

// NewOptimizer validates cfg and returns an Optimizer.
func NewOptimizer(cfg Config, opts ...Option) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &Optimizer{cfg: cfg}
	for _, opt := range opts {
		opt(o)
	}
	if o.solver == nil {
		o.solver = newSolver(cfg.Tolerance)
	}
	o.log = logger.OrNop(o.log)
	return o, nil
}

// Config returns the optimizer parameters.
func (o *Optimizer) Config() Config { return o.cfg }

// cellVars are the variable indices of one (scenario, hour) cell.
type cellVars struct {
	cD, cU, zD, zU int
}

type cellRef struct {
	scenario, hour int
}

// bidModel is the MILP of one weekday plus the index maps needed to read
// its solution back.
type bidModel struct {
	problem *milp.Problem
	cells   [][model.HoursPerDay]cellVars
	// owner maps a constraint index to its cell.
	owner []cellRef
}

func buildModel(in Input) *bidModel {
	p := &milp.Problem{Maximize: true}
	m := &bidModel{problem: p, cells: make([][model.HoursPerDay]cellVars, in.Scenarios())}
	add := func(s, h int, c milp.Constraint) {
		p.AddConstraint(c)
		m.owner = append(m.owner, cellRef{s, h})
	}
	for s := range m.cells {
		w := in.Weights[s]
		for h := 0; h < model.HoursPerDay; h++ {
			name := fmt.Sprintf("s%d_h%d", s, h)
			v := cellVars{
				cD: p.AddVar(milp.Var{Name: "cD_" + name, Upper: math.Inf(1)}),
				cU: p.AddVar(milp.Var{Name: "cU_" + name, Upper: math.Inf(1)}),
				zD: p.AddVar(milp.Var{Name: "zD_" + name, Kind: milp.Binary}),
				zU: p.AddVar(milp.Var{Name: "zU_" + name, Kind: milp.Binary}),
			}
			m.cells[s][h] = v
			p.SetObjective(v.cD, w*in.PriceDown[s][h])
			p.SetObjective(v.cU, w*in.PriceUp[s][h])

			add(s, h, milp.Constraint{Family: FamilyMinBidDown, Sense: milp.GreaterEq,
				Terms: []milp.Term{{Var: v.cD, Coef: 1}, {Var: v.zD, Coef: -in.MinBid}}})
			add(s, h, milp.Constraint{Family: FamilyMinBidUp, Sense: milp.GreaterEq,
				Terms: []milp.Term{{Var: v.cU, Coef: 1}, {Var: v.zU, Coef: -in.MinBid}}})
			add(s, h, milp.Constraint{Family: FamilyDownReserve, Sense: milp.LessEq,
				Terms: []milp.Term{{Var: v.cD, Coef: 1}, {Var: v.zD, Coef: -in.DownReserve[s][h]}}})
			add(s, h, milp.Constraint{Family: FamilyUpReserve, Sense: milp.LessEq,
				Terms: []milp.Term{{Var: v.cU, Coef: 1}, {Var: v.zU, Coef: -in.UpReserve[s][h]}}})
			add(s, h, milp.Constraint{Family: FamilyCeiling, Sense: milp.LessEq,
				Terms: []milp.Term{{Var: v.cD, Coef: 1}}, RHS: in.Pmax[h] - in.Baseline[s][h]})
			add(s, h, milp.Constraint{Family: FamilyFloor, Sense: milp.GreaterEq,
				Terms: []milp.Term{{Var: v.cU, Coef: -1}}, RHS: in.Pmin[s][h] - in.Baseline[s][h]})
		}
	}
	return m
}

// Optimize solves the bid model of one weekday. Failures are returned as
// *model.DayError.
func (o *Optimizer) Optimize(ctx context.Context, in Input) (model.DaySolution, error) {
	sol := model.DaySolution{Weekday: in.Weekday}
	if err := in.Validate(); err != nil {
		return sol, model.NewDayError(model.KindData, in.Weekday, fmt.Errorf("%w: %v", model.ErrInvalidProfile, err))
	}
	m := buildModel(in)

	timeout := o.cfg.Timeout()
	limits := milp.Limits{MaxNodes: o.cfg.MaxNodes}
	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		if attempt > 1 {
			timeout = time.Duration(float64(timeout) * o.cfg.RetryFactor)
			limits.MaxNodes = int(float64(limits.MaxNodes) * o.cfg.RetryFactor)
			o.log.Warnf("%s: retrying solve with timeout %s and %d nodes: %v", in.Weekday, timeout, limits.MaxNodes, lastErr)
		}
		sol.Attempts = attempt
		res, err := o.solve(ctx, m.problem, timeout, limits)
		if o.hook != nil {
			o.hook(in.Weekday, attempt, res.Status, res.elapsed)
		}
		sol.Nodes += res.Nodes
		switch {
		case err != nil:
			lastErr = fmt.Errorf("%w: %v", model.ErrSolverUnavailable, err)
		case res.Status == milp.Timeout:
			lastErr = fmt.Errorf("%w after %d nodes", model.ErrSolverTimeout, res.Nodes)
		case res.Status == milp.Infeasible:
			return sol, o.diagnose(in, m, model.ErrInfeasible)
		case res.Status == milp.Unbounded:
			return sol, o.diagnose(in, m, model.ErrUnbounded)
		default:
			o.extract(in, m, res.Result, &sol)
			return sol, nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	return sol, model.NewDayError(model.KindSolver, in.Weekday, lastErr)
}

type timedResult struct {
	milp.Result
	elapsed time.Duration
}

func (o *Optimizer) solve(ctx context.Context, p *milp.Problem, timeout time.Duration, lim milp.Limits) (res timedResult, err error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	start := time.Now()
	defer func() {
		res.elapsed = time.Since(start)
		if r := recover(); r != nil {
			err = fmt.Errorf("solver panic: %v", r)
		}
	}()
	res.Result, err = o.solver.Solve(ctx, p, lim)
	return res, err
}

// diagnose locates the first constraint violated by the all-zero
// assignment, which is feasible for well-formed inputs.
func (o *Optimizer) diagnose(in Input, m *bidModel, cause error) error {
	de := model.NewDayError(model.KindModel, in.Weekday, cause)
	zero := make([]float64, len(m.problem.Vars))
	if ci := m.problem.Violated(zero, o.cfg.Tolerance); ci >= 0 {
		ref := m.owner[ci]
		de = de.At(ref.scenario, ref.hour)
		de.Family = m.problem.Constraints[ci].Family
	}
	o.log.Errorf("%v", de)
	return de
}

func (o *Optimizer) extract(in Input, m *bidModel, res milp.Result, sol *model.DaySolution) {
	sol.PerScenario = make([][model.HoursPerDay]model.BidDecision, len(m.cells))
	var income float64
	for s, row := range m.cells {
		for h, v := range row {
			b := model.BidDecision{Weekday: in.Weekday, ScenarioID: s, Hour: h}
			b.ZD = res.X[v.zD] > 0.5
			b.ZU = res.X[v.zU] > 0.5
			if b.ZD {
				b.CD = clamp(res.X[v.cD], in.MinBid, math.Min(in.DownReserve[s][h], in.Pmax[h]-in.Baseline[s][h]))
			}
			if b.ZU {
				b.CU = clamp(res.X[v.cU], in.MinBid, math.Min(in.UpReserve[s][h], in.Baseline[s][h]-in.Pmin[s][h]))
			}
			sol.PerScenario[s][h] = b
			income += in.Weights[s] * (b.CD*in.PriceDown[s][h] + b.CU*in.PriceUp[s][h])
		}
	}
	sol.Income = income
	if diff := math.Abs(income - res.Objective); diff > 1e-6*(1+math.Abs(income)) {
		o.log.Warnf("%s: recomputed income %.6f differs from solver objective %.6f", in.Weekday, income, res.Objective)
	}
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}
