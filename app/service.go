// Package app wires configuration, adapters and the weekly pipeline into a
// runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kilianp07/flexbid/api"
	"github.com/kilianp07/flexbid/config"
	"github.com/kilianp07/flexbid/core/bidding"
	coremetrics "github.com/kilianp07/flexbid/core/metrics"
	"github.com/kilianp07/flexbid/core/model"
	coremon "github.com/kilianp07/flexbid/core/monitoring"
	coremqtt "github.com/kilianp07/flexbid/core/mqtt"
	"github.com/kilianp07/flexbid/core/pipeline"
	"github.com/kilianp07/flexbid/core/scenario"
	"github.com/kilianp07/flexbid/infra/logger"
	"github.com/kilianp07/flexbid/infra/metrics"
	"github.com/kilianp07/flexbid/infra/monitoring"
	"github.com/kilianp07/flexbid/infra/mqtt"
	"github.com/kilianp07/flexbid/infra/profiles"
	"github.com/kilianp07/flexbid/infra/store"
	"github.com/kilianp07/flexbid/internal/eventbus"
	"github.com/kilianp07/flexbid/pkg/export"
	"github.com/kilianp07/flexbid/pkg/report"
)

// ErrRunInProgress is returned by TryRun when a batch is already running.
var ErrRunInProgress = errors.New("a run is already in progress")

// Service owns every adapter of a configured deployment.
type Service struct {
	cfg      *config.Config
	log      logger.Logger
	pipeline *pipeline.Pipeline
	sink     coremetrics.MetricsSink
	monitor  coremon.Monitor
	store    store.Store
	pub      coremqtt.Publisher
	bus      *eventbus.Bus[pipeline.Event]

	runMu sync.Mutex
}

// New loads the profile tables and builds the service described by cfg.
func New(cfg *config.Config) (s *Service, err error) {
	if err := logger.Configure(cfg.Log.Options()); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	s = &Service{cfg: cfg, log: logger.New("service"), bus: eventbus.New[pipeline.Event]()}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	if s.monitor, err = monitoring.NewSentryMonitor(cfg.Sentry); err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	repo, err := profiles.Load(cfg.Input.Options(), logger.New("profiles"))
	if err != nil {
		return nil, fmt.Errorf("profiles: %w", err)
	}
	pmax, fixed := cfg.Input.FixedPmax()
	if !fixed {
		pmax = profiles.DerivePmax(repo.All())
	}
	builder, err := scenario.NewBuilder(cfg.Scenario, pmax, scenario.WithLogger(logger.New("scenario")))
	if err != nil {
		return nil, fmt.Errorf("scenario builder: %w", err)
	}
	if s.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	optimizer, err := bidding.NewOptimizer(cfg.Optimizer,
		bidding.WithLogger(logger.New("optimizer")),
		bidding.WithAttemptHook(pipeline.MetricsHook(s.sink, s.log)))
	if err != nil {
		return nil, fmt.Errorf("optimizer: %w", err)
	}
	if s.store, err = store.Open(cfg.Store.Module()); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if s.pub, err = mqtt.NewPublisher(cfg.MQTT); err != nil {
		return nil, fmt.Errorf("mqtt: %w", err)
	}
	s.pipeline, err = pipeline.New(cfg.Pipeline, repo, builder, optimizer,
		pipeline.WithLogger(logger.New("pipeline")),
		pipeline.WithMetrics(s.sink),
		pipeline.WithMonitor(s.monitor),
		pipeline.WithEventBus(s.bus),
		pipeline.WithStore(s.store))
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	st := repo.Stats()
	s.log.Infof("loaded %d consumption days (%d incomplete skipped), %d price days", st.Days, st.IncompleteDays, st.PriceDays)
	return s, nil
}

// Store exposes the run store.
func (s *Service) Store() store.Store { return s.store }

// Events exposes the pipeline progress bus.
func (s *Service) Events() *eventbus.Bus[pipeline.Event] { return s.bus }

// RunOnce runs one weekly batch, then exports and publishes its result.
// Output failures are returned after every output has been attempted.
func (s *Service) RunOnce(ctx context.Context) (model.WeekResult, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.run(ctx)
}

// TryRun is RunOnce unless a batch is already running.
func (s *Service) TryRun(ctx context.Context) (model.WeekResult, error) {
	if !s.runMu.TryLock() {
		return model.WeekResult{}, ErrRunInProgress
	}
	defer s.runMu.Unlock()
	return s.run(ctx)
}

func (s *Service) run(ctx context.Context) (model.WeekResult, error) {
	res, err := s.pipeline.Run(ctx)
	if err != nil {
		return res, err
	}
	var errs []error
	if err := s.export(res); err != nil {
		errs = append(errs, fmt.Errorf("export: %w", err))
	}
	if err := s.pub.PublishSchedule(ctx, res); err != nil && !errors.Is(err, coremqtt.ErrNoSchedule) {
		errs = append(errs, fmt.Errorf("publish schedule: %w", err))
	}
	for _, e := range errs {
		s.log.Errorf("run %s: %v", res.RunID, e)
		s.monitor.CaptureException(e, map[string]string{"run_id": res.RunID})
	}
	return res, errors.Join(errs...)
}

func (s *Service) export(res model.WeekResult) error {
	dir := s.cfg.Export.Dir
	if dir == "" {
		return nil
	}
	f, err := export.ParseFormat(s.cfg.Export.Format)
	if err != nil {
		return err
	}
	paths, err := export.WriteRun(dir, f, res)
	if err != nil {
		return err
	}
	if s.cfg.Export.Report {
		p, err := report.WriteFile(dir, res)
		if err != nil {
			return err
		}
		paths = append(paths, p)
	}
	s.log.Infof("run %s: wrote %v", res.RunID, paths)
	return nil
}

// Scenarios builds the scenario sets of the configured weekdays and exports
// the scenario table when an export directory is set. Weekdays that fail are
// logged and left out.
func (s *Service) Scenarios(ctx context.Context) ([]model.ScenarioSet, error) {
	var sets []model.ScenarioSet
	for _, d := range s.pipeline.BuildScenarios(ctx) {
		if d.Err == nil && d.Scenarios != nil {
			sets = append(sets, *d.Scenarios)
		}
	}
	if err := ctx.Err(); err != nil {
		return sets, err
	}
	if s.cfg.Export.Dir == "" {
		return sets, nil
	}
	f, err := export.ParseFormat(s.cfg.Export.Format)
	if err != nil {
		return sets, err
	}
	path, err := export.WriteScenarios(s.cfg.Export.Dir, f, sets)
	if err != nil {
		return sets, err
	}
	s.log.Infof("wrote %d scenario sets to %s", len(sets), path)
	return sets, nil
}

// Serve runs batches on the configured cron schedule and serves the run API
// and the Prometheus endpoint until ctx is done.
func (s *Service) Serve(ctx context.Context) error {
	metrics.StartEventCollector(ctx, s.bus, s.sink)
	go eventbus.Forward(ctx, s.bus, func(e pipeline.Event) {
		s.log.Debugw("weekday progress", map[string]any{"run_id": e.RunID, "weekday": e.Weekday.String(), "stage": string(e.Stage)})
	})
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	c := cron.New()
	if _, err := c.AddFunc(s.cfg.Serve.Schedule, func() { s.scheduled(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", s.cfg.Serve.Schedule, err)
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()
	if !s.cfg.Serve.SkipInitialRun {
		go s.scheduled(ctx)
	}

	srv := &http.Server{
		Addr:              s.cfg.Serve.Addr,
		Handler:           api.NewRouter(s.store, api.Options{CORSOrigins: s.cfg.Serve.CORSOrigins, Logger: logger.New("api")}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warnf("api shutdown: %v", err)
		}
	}()
	s.log.Infof("serving run API on %s, schedule %q", s.cfg.Serve.Addr, s.cfg.Serve.Schedule)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Service) scheduled(ctx context.Context) {
	res, err := s.TryRun(ctx)
	switch {
	case errors.Is(err, ErrRunInProgress):
		s.log.Warnf("skipping scheduled run: %v", err)
	case err != nil:
		s.log.Errorf("scheduled run %s: %v", res.RunID, err)
	}
}

// Close releases the store, the broker connection and the event bus, and
// flushes pending monitoring events.
func (s *Service) Close() {
	if s.pub != nil {
		s.pub.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.Errorf("close store: %v", err)
		}
	}
	if s.bus != nil {
		s.bus.Close()
	}
	if s.monitor != nil {
		s.monitor.Flush(2 * time.Second)
	}
}
