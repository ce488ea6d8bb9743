package pipeline

import (
	"time"

	"github.com/kilianp07/flexbid/core/model"
)

// Stage identifies a step of a weekday task.
type Stage string

const (
	StageStarted   Stage = "started"
	StageScenarios Stage = "scenarios"
	StageSolved    Stage = "solved"
	StageDone      Stage = "done"
	StageFailed    Stage = "failed"
)

// Event reports the progress of one weekday.
type Event struct {
	RunID   string
	Weekday model.Weekday
	Stage   Stage
	// Err is set for StageFailed.
	Err  error
	Time time.Time
}
