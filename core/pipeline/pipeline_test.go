package pipeline

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/flexbid/core/bidding"
	"github.com/kilianp07/flexbid/core/metrics"
	"github.com/kilianp07/flexbid/core/model"
	"github.com/kilianp07/flexbid/core/scenario"
	"github.com/kilianp07/flexbid/internal/eventbus"
)

type fakeRepo struct {
	failConsumption map[model.Weekday]error
	panicPrices     map[model.Weekday]bool
	short           map[model.Weekday]bool
}

func profilesFor(wd model.Weekday) ([]model.ConsumptionProfile, []model.PriceProfile) {
	var cons []model.ConsumptionProfile
	var prices []model.PriceProfile
	for d := 0; d < 10; d++ {
		day := int(wd) + 1 + 7*d
		var v, up, down model.Hourly
		for h := range v {
			v[h] = 5 + float64(h%6) + float64(d%2)*3 + 0.1*float64(d)
			up[h] = 20 + float64(h)
			down[h] = 30
		}
		cons = append(cons, model.ConsumptionProfile{DayOfYear: day, Weekday: wd, Values: v})
		prices = append(prices, model.PriceProfile{DayOfYear: day, Weekday: wd, Up: up, Down: down})
	}
	return cons, prices
}

func (r *fakeRepo) Consumption(_ context.Context, wd model.Weekday) ([]model.ConsumptionProfile, error) {
	if err := r.failConsumption[wd]; err != nil {
		return nil, err
	}
	cons, _ := profilesFor(wd)
	if r.short[wd] {
		return cons[:1], nil
	}
	return cons, nil
}

func (r *fakeRepo) Prices(_ context.Context, wd model.Weekday) ([]model.PriceProfile, error) {
	if r.panicPrices[wd] {
		panic("price table corrupted")
	}
	_, prices := profilesFor(wd)
	return prices, nil
}

type recordingSink struct {
	mu        sync.Mutex
	days      []metrics.DayEvent
	runs      []metrics.RunEvent
	solves    int
	schedules int
}

func (s *recordingSink) RecordDay(ev metrics.DayEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.days = append(s.days, ev)
	return nil
}

func (s *recordingSink) RecordRun(ev metrics.RunEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, ev)
	return nil
}

func (s *recordingSink) RecordSolve(metrics.SolveEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.solves++
	return nil
}

func (s *recordingSink) RecordSchedule(metrics.ScheduleEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules++
	return nil
}

type memStore struct{ saved []model.WeekResult }

func (m *memStore) Save(_ context.Context, res model.WeekResult) error {
	m.saved = append(m.saved, res)
	return nil
}

func newPipeline(t *testing.T, cfg Config, repo Repository, opts ...Option) (*Pipeline, *recordingSink) {
	t.Helper()
	scfg := scenario.DefaultConfig()
	scfg.K = 2
	var pmax model.Hourly
	for h := range pmax {
		pmax[h] = 15
	}
	b, err := scenario.NewBuilder(scfg, pmax)
	require.NoError(t, err)
	sink := &recordingSink{}
	opt, err := bidding.NewOptimizer(bidding.DefaultConfig(), bidding.WithAttemptHook(MetricsHook(sink, nil)))
	require.NoError(t, err)
	p, err := New(cfg, repo, b, opt, append([]Option{WithMetrics(sink)}, opts...)...)
	require.NoError(t, err)
	return p, sink
}

func TestRunIsolatesWeekdayFailures(t *testing.T) {
	origID := newRunID
	newRunID = func() string { return "run-1" }
	defer func() { newRunID = origID }()

	repo := &fakeRepo{
		failConsumption: map[model.Weekday]error{model.Tuesday: errors.New("disk gone")},
		panicPrices:     map[model.Weekday]bool{model.Wednesday: true},
		short:           map[model.Weekday]bool{model.Thursday: true},
	}
	bus := eventbus.New[Event]()
	events := bus.Subscribe()
	store := &memStore{}
	p, sink := newPipeline(t, DefaultConfig(), repo, WithEventBus(bus), WithStore(store))

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1", res.RunID)
	require.Len(t, res.Days, model.DaysPerWeek)

	wantKind := map[model.Weekday]model.ErrorKind{
		model.Tuesday:   model.KindData,
		model.Wednesday: model.KindSolver,
		model.Thursday:  model.KindData,
	}
	for i, d := range res.Days {
		assert.Equal(t, model.Weekday(i), d.Weekday)
		if kind, failed := wantKind[d.Weekday]; failed {
			require.Error(t, d.Err, d.Weekday.String())
			got, ok := model.KindOf(d.Err)
			require.True(t, ok)
			assert.Equal(t, kind, got, d.Weekday.String())
			continue
		}
		require.NoError(t, d.Err, d.Weekday.String())
		require.True(t, d.OK())
		var sum float64
		for _, w := range d.Scenarios.Weights() {
			sum += w
		}
		assert.InDelta(t, 1, sum, 1e-9)
		assert.Greater(t, d.Solution.Income, 0.0)
		assert.InDelta(t, d.Solution.Income, d.Blend.Income(), 1e-6)
	}
	assert.ErrorIs(t, res.Days[model.Thursday].Err, model.ErrInsufficientData)
	assert.ErrorIs(t, res.Days[model.Wednesday].Err, model.ErrSolverUnavailable)
	assert.Len(t, res.Failed(), 3)

	assert.Len(t, sink.days, model.DaysPerWeek)
	require.Len(t, sink.runs, 1)
	assert.Equal(t, 3, sink.runs[0].Failed)
	assert.InDelta(t, res.TotalIncome(), sink.runs[0].Income, 1e-9)
	assert.Equal(t, 4, sink.schedules)
	assert.GreaterOrEqual(t, sink.solves, 4)
	require.Len(t, store.saved, 1)

	stages := map[model.Weekday][]Stage{}
	for len(events) > 0 {
		ev := <-events
		assert.Equal(t, "run-1", ev.RunID)
		stages[ev.Weekday] = append(stages[ev.Weekday], ev.Stage)
	}
	assert.Equal(t, []Stage{StageStarted, StageScenarios, StageSolved, StageDone}, stages[model.Monday])
	assert.Equal(t, []Stage{StageStarted, StageFailed}, stages[model.Tuesday])
}

func TestRunIsDeterministicAcrossParallelism(t *testing.T) {
	serial, _ := newPipeline(t, Config{Parallelism: 1}, &fakeRepo{})
	parallel, _ := newPipeline(t, DefaultConfig(), &fakeRepo{})

	a, err := serial.Run(context.Background())
	require.NoError(t, err)
	b, err := parallel.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, a.Days, len(b.Days))
	for i := range a.Days {
		assert.Equal(t, a.Days[i].Scenarios.Scenarios, b.Days[i].Scenarios.Scenarios)
		assert.Equal(t, *a.Days[i].Blend, *b.Days[i].Blend)
	}
	assert.False(t, math.IsNaN(a.TotalIncome()))
}

func TestRunSubsetOfWeekdays(t *testing.T) {
	p, sink := newPipeline(t, Config{Parallelism: 2, Weekdays: []string{"sun", "Monday"}}, &fakeRepo{})
	res, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Days, 2)
	assert.Equal(t, model.Monday, res.Days[0].Weekday)
	assert.Equal(t, model.Sunday, res.Days[1].Weekday)
	assert.Len(t, sink.days, 2)
}

func TestRunCancelled(t *testing.T) {
	p, _ := newPipeline(t, DefaultConfig(), &fakeRepo{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, res.Days, model.DaysPerWeek)
}

func TestRunDay(t *testing.T) {
	p, _ := newPipeline(t, DefaultConfig(), &fakeRepo{})
	out := p.RunDay(context.Background(), model.Saturday)
	require.NoError(t, out.Err)
	assert.Equal(t, model.Saturday, out.Blend.Weekday)
	assert.Greater(t, out.Duration, time.Duration(0))
}

func TestBuildScenarios(t *testing.T) {
	repo := &fakeRepo{
		panicPrices: map[model.Weekday]bool{model.Wednesday: true},
		short:       map[model.Weekday]bool{model.Thursday: true},
	}
	p, sink := newPipeline(t, DefaultConfig(), repo)
	out := p.BuildScenarios(context.Background())
	require.Len(t, out, model.DaysPerWeek)
	for _, d := range out {
		switch d.Weekday {
		case model.Wednesday:
			kind, ok := model.KindOf(d.Err)
			require.True(t, ok)
			assert.Equal(t, model.KindData, kind)
		case model.Thursday:
			assert.ErrorIs(t, d.Err, model.ErrInsufficientData)
		default:
			require.NoError(t, d.Err, d.Weekday.String())
			require.NotNil(t, d.Scenarios)
			assert.Len(t, d.Scenarios.Scenarios, 2)
			assert.Nil(t, d.Solution)
		}
	}
	assert.Empty(t, sink.days, "scenario-only runs record no day metrics")
}

func TestConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"default", DefaultConfig(), true},
		{"zero parallelism", Config{}, false},
		{"unknown weekday", Config{Parallelism: 1, Weekdays: []string{"someday"}}, false},
	}
	for _, tt := range tests {
		if err := tt.cfg.Validate(); (err == nil) != tt.ok {
			t.Fatalf("%s: unexpected result %v", tt.name, err)
		}
	}
	if _, err := New(DefaultConfig(), nil, nil, nil); err == nil {
		t.Fatal("expected error for missing collaborators")
	}
}
