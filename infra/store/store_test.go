package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/flexbid/core/factory"
	"github.com/kilianp07/flexbid/core/model"
)

func sampleRun(id string, start time.Time) model.WeekResult {
	blend := model.BlendedDay{Weekday: model.Monday}
	blend.BidDown[3] = 1.5
	sol := model.DaySolution{Weekday: model.Monday, Income: 42}
	de := model.NewDayError(model.KindModel, model.Tuesday, model.ErrInfeasible).At(1, 4)
	de.Family = "pmax_ceiling"
	return model.WeekResult{
		RunID:      id,
		StartedAt:  start,
		FinishedAt: start.Add(time.Second),
		Days: []model.DayOutcome{
			{Weekday: model.Monday, Solution: &sol, Blend: &blend, Duration: time.Millisecond},
			{Weekday: model.Tuesday, Err: de},
		},
	}
}

func openAll(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	cfgs := map[string]factory.ModuleConfig{
		"memory": {Type: "memory"},
		"jsonl":  {Type: "jsonl", Conf: map[string]any{"path": filepath.Join(dir, "runs", "runs.jsonl"), "max_size_mb": 1}},
		"sqlite": {Type: "sqlite", Conf: map[string]any{"path": filepath.Join(dir, "runs.db")}},
	}
	out := map[string]Store{}
	for name, cfg := range cfgs {
		s, err := Open(cfg)
		require.NoError(t, err, name)
		t.Cleanup(func() { _ = s.Close() })
		out[name] = s
	}
	return out
}

func TestStores(t *testing.T) {
	base := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
	for name, s := range openAll(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.Latest(ctx)
			assert.ErrorIs(t, err, ErrNotFound)

			for i, id := range []string{"a", "b", "c"} {
				require.NoError(t, s.Save(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Hour))))
			}

			latest, err := s.Latest(ctx)
			require.NoError(t, err)
			assert.Equal(t, "c", latest.RunID)

			recs, err := s.Query(ctx, Query{Limit: 2})
			require.NoError(t, err)
			require.Len(t, recs, 2)
			assert.Equal(t, "c", recs[0].RunID)
			assert.Equal(t, "b", recs[1].RunID)

			recs, err = s.Query(ctx, Query{End: base.Add(30 * time.Minute)})
			require.NoError(t, err)
			require.Len(t, recs, 1)
			assert.Equal(t, "a", recs[0].RunID)

			rec, err := s.Get(ctx, "b")
			require.NoError(t, err)
			assert.Equal(t, 42.0, rec.Income)
			assert.Equal(t, 1, rec.Failed)
			mon, ok := rec.Day(model.Monday)
			require.True(t, ok)
			assert.Equal(t, "ok", mon.Status)
			assert.Equal(t, 1.5, mon.Blend.BidDown[3])
			tue, ok := rec.Day(model.Tuesday)
			require.True(t, ok)
			require.NotNil(t, tue.Failure)
			assert.Equal(t, Failure{Kind: "model", Scenario: 1, Hour: 4, Family: "pmax_ceiling", Message: tue.Failure.Message}, *tue.Failure)
			assert.Contains(t, tue.Failure.Message, "model infeasible")

			_, err = s.Get(ctx, "zzz")
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestBackends(t *testing.T) {
	assert.Equal(t, []string{"jsonl", "memory", "sqlite"}, Backends())
	_, err := Open(factory.ModuleConfig{Type: "postgres"})
	assert.Error(t, err)
}
