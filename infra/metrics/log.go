package metrics

import (
	"github.com/kilianp07/flexbid/core/logger"
	coremetrics "github.com/kilianp07/flexbid/core/metrics"
	"github.com/kilianp07/flexbid/core/milp"
	infralogger "github.com/kilianp07/flexbid/infra/logger"
)

// LogSink writes run and weekday summaries to the structured log. It suits
// one-shot CLI runs where no metrics backend is scraped.
type LogSink struct {
	log logger.Logger
}

func NewLogSink(l logger.Logger) *LogSink {
	if l == nil {
		l = infralogger.New("metrics")
	}
	return &LogSink{log: l}
}

func (s *LogSink) RecordDay(ev coremetrics.DayEvent) error {
	s.log.Debugw("weekday outcome", map[string]any{
		"run_id":      ev.RunID,
		"weekday":     ev.Weekday.String(),
		"status":      ev.Status,
		"scenarios":   ev.Scenarios,
		"anomalies":   ev.Anomalies,
		"income":      round3(ev.Income),
		"duration_ms": ev.Duration.Milliseconds(),
	})
	return nil
}

func (s *LogSink) RecordRun(ev coremetrics.RunEvent) error {
	s.log.Infof("run %s: %d/%d weekdays ok, income %.3f in %s",
		ev.RunID, ev.Days-ev.Failed, ev.Days, ev.Income, ev.Duration)
	return nil
}

func (s *LogSink) RecordSolve(ev coremetrics.SolveEvent) error {
	if ev.Status != milp.Optimal.String() {
		s.log.Warnf("%s: solver attempt %d ended %s after %s", ev.Weekday, ev.Attempt, ev.Status, ev.Duration)
	}
	return nil
}
