package metrics

import "errors"

// MultiSink fans events out to several sinks. Every sink receives the event
// even when an earlier one fails; the errors are joined.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

func (m *MultiSink) RecordDay(ev DayEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordDay(ev))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordRun(ev RunEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordRun(ev))
	}
	return errors.Join(errs...)
}

// RecordSolve forwards to the sinks implementing SolveRecorder.
func (m *MultiSink) RecordSolve(ev SolveEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(SolveRecorder); ok {
			errs = append(errs, rec.RecordSolve(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordSchedule forwards to the sinks implementing ScheduleRecorder.
func (m *MultiSink) RecordSchedule(ev ScheduleEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(ScheduleRecorder); ok {
			errs = append(errs, rec.RecordSchedule(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordStage forwards to the sinks implementing StageRecorder.
func (m *MultiSink) RecordStage(ev StageEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(StageRecorder); ok {
			errs = append(errs, rec.RecordStage(ev))
		}
	}
	return errors.Join(errs...)
}
