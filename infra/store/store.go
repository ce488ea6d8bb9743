// Package store persists weekly runs so they can be served and compared
// later. Backends are registered in a factory registry: "jsonl" (rotating
// JSON lines via lumberjack), "sqlite" (modernc.org/sqlite) and "memory".
package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/kilianp07/flexbid/core/model"
)

// ErrNotFound is returned when no run matches.
var ErrNotFound = errors.New("run not found")

// Failure is the persisted form of a model.DayError.
type Failure struct {
	Kind     string `json:"kind"`
	Scenario int    `json:"scenario"`
	Hour     int    `json:"hour"`
	Family   string `json:"family,omitempty"`
	Message  string `json:"message"`
}

// DayRecord is one weekday of a stored run.
type DayRecord struct {
	Weekday   model.Weekday      `json:"weekday"`
	Status    string             `json:"status"`
	Failure   *Failure           `json:"failure,omitempty"`
	Scenarios *model.ScenarioSet `json:"scenarios,omitempty"`
	Solution  *model.DaySolution `json:"solution,omitempty"`
	Blend     *model.BlendedDay  `json:"blend,omitempty"`
	Duration  time.Duration      `json:"duration"`
}

// Record is a stored weekly run.
type Record struct {
	RunID      string      `json:"run_id"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Income     float64     `json:"income"`
	Failed     int         `json:"failed"`
	Days       []DayRecord `json:"days"`
}

// NewRecord converts a run result into its stored form.
func NewRecord(res model.WeekResult) Record {
	rec := Record{
		RunID:      res.RunID,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Income:     res.TotalIncome(),
		Failed:     len(res.Failed()),
	}
	for _, d := range res.Days {
		dr := DayRecord{
			Weekday:   d.Weekday,
			Status:    "ok",
			Scenarios: d.Scenarios,
			Solution:  d.Solution,
			Blend:     d.Blend,
			Duration:  d.Duration,
		}
		if d.Err != nil {
			f := &Failure{Scenario: -1, Hour: -1, Message: d.Err.Error()}
			var de *model.DayError
			if errors.As(d.Err, &de) {
				f.Kind, f.Scenario, f.Hour, f.Family = de.Kind.String(), de.Scenario, de.Hour, de.Family
			}
			dr.Status = "failed"
			dr.Failure = f
		}
		rec.Days = append(rec.Days, dr)
	}
	return rec
}

// Day returns the record of wd.
func (r Record) Day(wd model.Weekday) (DayRecord, bool) {
	for _, d := range r.Days {
		if d.Weekday == wd {
			return d, true
		}
	}
	return DayRecord{}, false
}

// Query filters stored runs by start time. Limit zero means no limit.
type Query struct {
	Start time.Time
	End   time.Time
	Limit int
}

func (q Query) match(r Record) bool {
	if !q.Start.IsZero() && r.StartedAt.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.StartedAt.After(q.End) {
		return false
	}
	return true
}

// Store persists run records. Query returns the newest runs first.
type Store interface {
	Save(ctx context.Context, res model.WeekResult) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Get(ctx context.Context, runID string) (Record, error)
	Latest(ctx context.Context) (Record, error)
	Close() error
}

// newestFirst sorts records by descending start time and applies the limit.
func newestFirst(recs []Record, limit int) []Record {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].StartedAt.After(recs[j].StartedAt) })
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}
