package metrics

import (
	"errors"
	"strconv"

	coremetrics "github.com/kilianp07/flexbid/core/metrics"
	"github.com/kilianp07/flexbid/core/pipeline"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink exposes run outcomes as Prometheus metrics.
type PromSink struct {
	runs       *prometheus.CounterVec
	days       *prometheus.CounterVec
	dayLatency *prometheus.HistogramVec
	attempts   *prometheus.CounterVec
	solve      *prometheus.HistogramVec
	anomalies  *prometheus.CounterVec
	weekIncome prometheus.Gauge
	dayIncome  *prometheus.GaugeVec
	inProgress prometheus.Gauge
	lastRun    prometheus.Gauge
}

// NewPromSink registers the bidding metrics on the default registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on reg. A nil registerer defaults
// to the global Prometheus registerer. Collectors already registered by a
// previous sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.runs, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flexbid_runs_total",
		Help: "Weekly runs by outcome",
	}, []string{"status"})); err != nil {
		return nil, err
	}
	if s.days, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flexbid_weekday_outcomes_total",
		Help: "Weekday tasks by weekday and status",
	}, []string{"weekday", "status"})); err != nil {
		return nil, err
	}
	if s.dayLatency, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flexbid_weekday_duration_seconds",
		Help:    "Wall time of a weekday task",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"weekday"})); err != nil {
		return nil, err
	}
	if s.attempts, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flexbid_solver_attempts_total",
		Help: "MILP solver attempts by attempt number and status",
	}, []string{"attempt", "status"})); err != nil {
		return nil, err
	}
	if s.solve, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flexbid_solve_duration_seconds",
		Help:    "Duration of a MILP solver attempt",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"status"})); err != nil {
		return nil, err
	}
	if s.anomalies, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flexbid_bound_anomalies_total",
		Help: "Negative reserve bandwidths observed while building scenarios",
	}, []string{"weekday"})); err != nil {
		return nil, err
	}
	if s.weekIncome, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flexbid_weekly_income",
		Help: "Expected income of the last weekly run",
	})); err != nil {
		return nil, err
	}
	if s.dayIncome, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "flexbid_weekday_income",
		Help: "Expected income per weekday of the last run",
	}, []string{"weekday"})); err != nil {
		return nil, err
	}
	if s.inProgress, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flexbid_weekdays_in_progress",
		Help: "Weekday tasks currently running",
	})); err != nil {
		return nil, err
	}
	if s.lastRun, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flexbid_last_run_timestamp_seconds",
		Help: "Unix time of the last completed run",
	})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// RecordDay counts the weekday outcome and updates its income gauge.
func (s *PromSink) RecordDay(ev coremetrics.DayEvent) error {
	wd := ev.Weekday.String()
	s.days.WithLabelValues(wd, ev.Status).Inc()
	s.dayLatency.WithLabelValues(wd).Observe(ev.Duration.Seconds())
	if ev.Anomalies > 0 {
		s.anomalies.WithLabelValues(wd).Add(float64(ev.Anomalies))
	}
	if ev.Status == coremetrics.StatusOK {
		s.dayIncome.WithLabelValues(wd).Set(ev.Income)
	} else {
		s.dayIncome.DeleteLabelValues(wd)
	}
	return nil
}

// RecordRun counts the run and publishes its total income.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	status := "ok"
	switch {
	case ev.Days > 0 && ev.Failed == ev.Days:
		status = "failed"
	case ev.Failed > 0:
		status = "partial"
	}
	s.runs.WithLabelValues(status).Inc()
	s.weekIncome.Set(ev.Income)
	s.lastRun.Set(float64(ev.Time.Unix()))
	return nil
}

// RecordSolve records one solver attempt.
func (s *PromSink) RecordSolve(ev coremetrics.SolveEvent) error {
	s.attempts.WithLabelValues(strconv.Itoa(ev.Attempt), ev.Status).Inc()
	s.solve.WithLabelValues(ev.Status).Observe(ev.Duration.Seconds())
	return nil
}

// RecordStage tracks how many weekday tasks are running.
func (s *PromSink) RecordStage(ev coremetrics.StageEvent) error {
	switch pipeline.Stage(ev.Stage) {
	case pipeline.StageStarted:
		s.inProgress.Inc()
	case pipeline.StageDone, pipeline.StageFailed:
		s.inProgress.Dec()
	}
	return nil
}
