package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/flexbid/core/bidding"
	"github.com/kilianp07/flexbid/core/logger"
	"github.com/kilianp07/flexbid/core/metrics"
	"github.com/kilianp07/flexbid/core/milp"
	"github.com/kilianp07/flexbid/core/model"
	"github.com/kilianp07/flexbid/core/monitoring"
	"github.com/kilianp07/flexbid/core/scenario"
	"github.com/kilianp07/flexbid/internal/eventbus"
)

var (
	newRunID = uuid.NewString
	now      = time.Now
)

// Pipeline runs the Scenario Builder, the Bid Optimizer and the blend for
// every weekday of a week.
type Pipeline struct {
	cfg       Config
	days      []model.Weekday
	repo      Repository
	builder   *scenario.Builder
	optimizer *bidding.Optimizer
	log       logger.Logger
	sink      metrics.MetricsSink
	monitor   monitoring.Monitor
	bus       *eventbus.Bus[Event]
	store     ResultStore
}

// Option customises a Pipeline.
type Option func(*Pipeline)

func WithLogger(l logger.Logger) Option          { return func(p *Pipeline) { p.log = l } }
func WithMetrics(s metrics.MetricsSink) Option   { return func(p *Pipeline) { p.sink = s } }
func WithMonitor(m monitoring.Monitor) Option    { return func(p *Pipeline) { p.monitor = m } }
func WithEventBus(b *eventbus.Bus[Event]) Option { return func(p *Pipeline) { p.bus = b } }
func WithStore(s ResultStore) Option             { return func(p *Pipeline) { p.store = s } }

// New assembles a Pipeline. The builder's Pmax is passed to the optimizer.
func New(cfg Config, repo Repository, builder *scenario.Builder, optimizer *bidding.Optimizer, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if repo == nil || builder == nil || optimizer == nil {
		return nil, errors.New("pipeline requires a repository, a builder and an optimizer")
	}
	days, _ := cfg.Days()
	p := &Pipeline{cfg: cfg, days: days, repo: repo, builder: builder, optimizer: optimizer}
	for _, o := range opts {
		o(p)
	}
	p.log = logger.OrNop(p.log)
	p.monitor = monitoring.OrNop(p.monitor)
	if p.sink == nil {
		p.sink = metrics.NopSink{}
	}
	return p, nil
}

// Run processes the configured weekdays and returns one outcome per weekday,
// in Monday..Sunday order. A failing weekday never stops the others; its
// error is kept in DayOutcome.Err. Run only returns an error when ctx is
// cancelled before the week completes.
func (p *Pipeline) Run(ctx context.Context) (model.WeekResult, error) {
	res := model.WeekResult{RunID: newRunID(), StartedAt: now()}
	p.log.Infof("run %s: processing %d weekdays", res.RunID, len(p.days))

	res.Days = make([]model.DayOutcome, len(p.days))
	var g errgroup.Group
	g.SetLimit(p.cfg.Parallelism)
	for i, wd := range p.days {
		i, wd := i, wd
		g.Go(func() error {
			res.Days[i] = p.runDay(ctx, res.RunID, wd)
			return nil
		})
	}
	_ = g.Wait()
	res.FinishedAt = now()

	failed := len(res.Failed())
	if err := p.sink.RecordRun(metrics.RunEvent{
		RunID:    res.RunID,
		Days:     len(res.Days),
		Failed:   failed,
		Income:   res.TotalIncome(),
		Duration: res.FinishedAt.Sub(res.StartedAt),
		Time:     res.FinishedAt,
	}); err != nil {
		p.log.Warnf("run %s: record metrics: %v", res.RunID, err)
	}
	if rec, ok := p.sink.(metrics.ScheduleRecorder); ok {
		for _, d := range res.Days {
			if !d.OK() {
				continue
			}
			if err := rec.RecordSchedule(metrics.ScheduleEvent{RunID: res.RunID, Blend: *d.Blend, Time: res.FinishedAt}); err != nil {
				p.log.Warnf("run %s: record schedule %s: %v", res.RunID, d.Weekday, err)
			}
		}
	}
	if p.store != nil {
		if err := p.store.Save(ctx, res); err != nil {
			p.log.Errorf("run %s: store: %v", res.RunID, err)
			p.monitor.CaptureException(fmt.Errorf("store run: %w", err), map[string]string{"run_id": res.RunID})
		}
	}
	p.log.Infof("run %s: weekly income %.2f, %d/%d weekdays failed", res.RunID, res.TotalIncome(), failed, len(res.Days))
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// RunDay processes a single weekday outside of a weekly run.
func (p *Pipeline) RunDay(ctx context.Context, wd model.Weekday) model.DayOutcome {
	return p.runDay(ctx, newRunID(), wd)
}

func (p *Pipeline) runDay(ctx context.Context, runID string, wd model.Weekday) (out model.DayOutcome) {
	start := now()
	out.Weekday = wd
	p.publish(runID, wd, StageStarted, nil)
	defer func() {
		if r := recover(); r != nil {
			out.Err = model.NewDayError(model.KindSolver, wd, fmt.Errorf("%w: panic: %v", model.ErrSolverUnavailable, r))
		}
		out.Duration = now().Sub(start)
		p.finishDay(runID, &out)
	}()

	set, err := p.scenarios(ctx, wd)
	if err != nil {
		out.Err = err
		return out
	}
	out.Scenarios = &set
	p.publish(runID, wd, StageScenarios, nil)

	in := bidding.NewInput(set, p.builder.Pmax(), p.optimizer.Config().MinBid)
	sol, err := p.optimizer.Optimize(ctx, in)
	if err != nil {
		out.Err = asDayError(wd, err)
		return out
	}
	out.Solution = &sol
	p.publish(runID, wd, StageSolved, nil)

	blend, err := bidding.BlendSolution(in, sol)
	if err != nil {
		out.Err = asDayError(wd, err)
		return out
	}
	out.Blend = &blend
	return out
}

// BuildScenarios runs only the ingestion and Scenario Builder steps for the
// configured weekdays. Failures are kept per weekday as in Run.
func (p *Pipeline) BuildScenarios(ctx context.Context) []model.DayOutcome {
	out := make([]model.DayOutcome, len(p.days))
	var g errgroup.Group
	g.SetLimit(p.cfg.Parallelism)
	for i, wd := range p.days {
		i, wd := i, wd
		g.Go(func() error {
			out[i] = p.scenarioDay(ctx, wd)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (p *Pipeline) scenarioDay(ctx context.Context, wd model.Weekday) (out model.DayOutcome) {
	start := now()
	out.Weekday = wd
	defer func() {
		if r := recover(); r != nil {
			out.Err = model.NewDayError(model.KindData, wd, fmt.Errorf("panic: %v", r))
		}
		out.Duration = now().Sub(start)
		if out.Err != nil {
			p.log.Errorf("scenarios: %v", out.Err)
		}
	}()
	set, err := p.scenarios(ctx, wd)
	if err != nil {
		out.Err = err
		return out
	}
	out.Scenarios = &set
	return out
}

func (p *Pipeline) scenarios(ctx context.Context, wd model.Weekday) (model.ScenarioSet, error) {
	profiles, err := p.repo.Consumption(ctx, wd)
	if err != nil {
		return model.ScenarioSet{}, asDayError(wd, err)
	}
	prices, err := p.repo.Prices(ctx, wd)
	if err != nil {
		return model.ScenarioSet{}, asDayError(wd, err)
	}
	set, err := p.builder.Build(wd, profiles, prices)
	if err != nil {
		return model.ScenarioSet{}, asDayError(wd, err)
	}
	for _, a := range set.Anomalies {
		p.log.Warnf("bound anomaly: %s", a)
	}
	return set, nil
}

func (p *Pipeline) finishDay(runID string, out *model.DayOutcome) {
	ev := metrics.DayEvent{RunID: runID, Weekday: out.Weekday, Status: metrics.StatusOK, Duration: out.Duration, Time: now()}
	if out.Scenarios != nil {
		ev.Scenarios = len(out.Scenarios.Scenarios)
		ev.Anomalies = len(out.Scenarios.Anomalies)
	}
	if out.Err != nil {
		kind, _ := model.KindOf(out.Err)
		ev.Status = kind.String()
		p.log.Errorf("run %s: %v", runID, out.Err)
		monitoring.CaptureDayError(p.monitor, out.Err, map[string]string{"run_id": runID})
		p.publish(runID, out.Weekday, StageFailed, out.Err)
	} else {
		ev.Income = out.Solution.Income
		p.log.Infof("run %s: %s done with %d scenarios, income %.2f in %s",
			runID, out.Weekday, ev.Scenarios, ev.Income, out.Duration)
		p.publish(runID, out.Weekday, StageDone, nil)
	}
	if err := p.sink.RecordDay(ev); err != nil {
		p.log.Warnf("run %s: record %s metrics: %v", runID, out.Weekday, err)
	}
}

func (p *Pipeline) publish(runID string, wd model.Weekday, stage Stage, err error) {
	if p.bus == nil {
		return
	}
	p.bus.Publish(Event{RunID: runID, Weekday: wd, Stage: stage, Err: err, Time: now()})
}

// asDayError makes sure err carries weekday context. Errors that are not
// already DayErrors come from the repository and count as data errors.
func asDayError(wd model.Weekday, err error) error {
	var de *model.DayError
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return model.NewDayError(model.KindSolver, wd, fmt.Errorf("%w: %v", model.ErrSolverTimeout, err))
	}
	return model.NewDayError(model.KindData, wd, err)
}

// MetricsHook returns an AttemptHook that forwards solver attempts to sink
// when it implements metrics.SolveRecorder.
func MetricsHook(sink metrics.MetricsSink, log logger.Logger) bidding.AttemptHook {
	rec, ok := sink.(metrics.SolveRecorder)
	if !ok {
		return nil
	}
	log = logger.OrNop(log)
	return func(wd model.Weekday, attempt int, status milp.Status, elapsed time.Duration) {
		ev := metrics.SolveEvent{Weekday: wd, Attempt: attempt, Status: status.String(), Duration: elapsed}
		if err := rec.RecordSolve(ev); err != nil {
			log.Warnf("record solve metrics: %v", err)
		}
	}
}
