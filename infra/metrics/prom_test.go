package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/flexbid/core/metrics"
	"github.com/kilianp07/flexbid/core/model"
	"github.com/kilianp07/flexbid/core/pipeline"
)

func TestPromSink_RecordDay(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordDay(coremetrics.DayEvent{Weekday: model.Monday, Status: coremetrics.StatusOK, Income: 42, Anomalies: 2, Duration: time.Second}))
	require.NoError(t, sink.RecordDay(coremetrics.DayEvent{Weekday: model.Friday, Status: "model"}))

	expected := `
# HELP flexbid_weekday_outcomes_total Weekday tasks by weekday and status
# TYPE flexbid_weekday_outcomes_total counter
flexbid_weekday_outcomes_total{status="model",weekday="Friday"} 1
flexbid_weekday_outcomes_total{status="ok",weekday="Monday"} 1
`
	if err := testutil.CollectAndCompare(sink.days, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if v := testutil.ToFloat64(sink.dayIncome.WithLabelValues("Monday")); v != 42 {
		t.Errorf("monday income = %v", v)
	}
	if v := testutil.ToFloat64(sink.anomalies.WithLabelValues("Monday")); v != 2 {
		t.Errorf("anomalies = %v", v)
	}
	if c := testutil.CollectAndCount(sink.dayLatency); c != 2 {
		t.Errorf("latency series = %d", c)
	}
}

func TestPromSink_RecordRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	now := time.Unix(1700000000, 0)
	require.NoError(t, sink.RecordRun(coremetrics.RunEvent{Days: 7, Income: 99.5, Time: now}))
	require.NoError(t, sink.RecordRun(coremetrics.RunEvent{Days: 7, Failed: 1, Time: now}))
	require.NoError(t, sink.RecordRun(coremetrics.RunEvent{Days: 7, Failed: 7, Time: now}))

	for status, want := range map[string]float64{"ok": 1, "partial": 1, "failed": 1} {
		if v := testutil.ToFloat64(sink.runs.WithLabelValues(status)); v != want {
			t.Errorf("runs{%s} = %v", status, v)
		}
	}
	if v := testutil.ToFloat64(sink.weekIncome); v != 0 {
		t.Errorf("weekly income = %v, want last run value 0", v)
	}
	if v := testutil.ToFloat64(sink.lastRun); v != 1700000000 {
		t.Errorf("last run = %v", v)
	}
}

func TestPromSink_SolveAndStage(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordSolve(coremetrics.SolveEvent{Weekday: model.Monday, Attempt: 1, Status: "timeout", Duration: time.Millisecond}))
	require.NoError(t, sink.RecordSolve(coremetrics.SolveEvent{Weekday: model.Monday, Attempt: 2, Status: "optimal", Duration: time.Millisecond}))
	if v := testutil.ToFloat64(sink.attempts.WithLabelValues("2", "optimal")); v != 1 {
		t.Errorf("attempts = %v", v)
	}

	require.NoError(t, sink.RecordStage(coremetrics.StageEvent{Stage: string(pipeline.StageStarted)}))
	require.NoError(t, sink.RecordStage(coremetrics.StageEvent{Stage: string(pipeline.StageStarted)}))
	require.NoError(t, sink.RecordStage(coremetrics.StageEvent{Stage: string(pipeline.StageSolved)}))
	require.NoError(t, sink.RecordStage(coremetrics.StageEvent{Stage: string(pipeline.StageDone)}))
	if v := testutil.ToFloat64(sink.inProgress); v != 1 {
		t.Errorf("in progress = %v", v)
	}
}

func TestPromSink_ReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	second, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, first.RecordRun(coremetrics.RunEvent{Days: 1}))
	require.NoError(t, second.RecordRun(coremetrics.RunEvent{Days: 1}))
	if v := testutil.ToFloat64(first.runs.WithLabelValues("ok")); v != 2 {
		t.Errorf("shared counter = %v", v)
	}
}
