package metrics

import (
	"time"

	"github.com/kilianp07/flexbid/core/model"
)

// Day outcome statuses reported in DayEvent.Status. Failed weekdays carry the
// model.ErrorKind string instead.
const StatusOK = "ok"

// DayEvent summarises one weekday of a run.
type DayEvent struct {
	RunID     string
	Weekday   model.Weekday
	Status    string
	Scenarios int
	Anomalies int
	Income    float64
	Duration  time.Duration
	Time      time.Time
}

// RunEvent summarises a complete weekly run.
type RunEvent struct {
	RunID    string
	Days     int
	Failed   int
	Income   float64
	Duration time.Duration
	Time     time.Time
}

// MetricsSink records batch results for observability purposes.
type MetricsSink interface {
	RecordDay(ev DayEvent) error
	RecordRun(ev RunEvent) error
}

// SolveEvent is one MILP solver attempt.
type SolveEvent struct {
	Weekday  model.Weekday
	Attempt  int
	Status   string
	Duration time.Duration
}

// SolveRecorder records solver attempts.
type SolveRecorder interface {
	RecordSolve(ev SolveEvent) error
}

// ScheduleEvent carries the blended schedule of one weekday.
type ScheduleEvent struct {
	RunID string
	Blend model.BlendedDay
	Time  time.Time
}

// ScheduleRecorder records blended hourly schedules.
type ScheduleRecorder interface {
	RecordSchedule(ev ScheduleEvent) error
}

// StageEvent is a weekday progress transition observed on the pipeline bus.
type StageEvent struct {
	RunID   string
	Weekday model.Weekday
	Stage   string
	Time    time.Time
}

// StageRecorder records weekday progress transitions.
type StageRecorder interface {
	RecordStage(ev StageEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordDay(DayEvent) error           { return nil }
func (NopSink) RecordRun(RunEvent) error           { return nil }
func (NopSink) RecordSolve(SolveEvent) error       { return nil }
func (NopSink) RecordSchedule(ScheduleEvent) error { return nil }
func (NopSink) RecordStage(StageEvent) error       { return nil }
