package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/flexbid/core/metrics"
	"github.com/kilianp07/flexbid/core/model"
)

type lineServer struct {
	*httptest.Server
	mu     sync.Mutex
	bodies []string
}

func newLineServer(t *testing.T) *lineServer {
	t.Helper()
	ls := &lineServer{}
	ls.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		ls.mu.Lock()
		ls.bodies = append(ls.bodies, strings.TrimSpace(string(data)))
		ls.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(ls.Close)
	return ls
}

func (ls *lineServer) Bodies() []string {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return append([]string(nil), ls.bodies...)
}

func TestInfluxSink_RecordDay(t *testing.T) {
	srv := newLineServer(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	now := time.Date(2024, 3, 4, 6, 0, 0, 0, time.UTC)
	ev := coremetrics.DayEvent{
		RunID:     "run-1",
		Weekday:   model.Tuesday,
		Status:    coremetrics.StatusOK,
		Scenarios: 3,
		Anomalies: 1,
		Income:    123.45678,
		Duration:  1500 * time.Millisecond,
		Time:      now,
	}
	if err := sink.RecordDay(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("weekday_outcome").
		AddTag("run_id", "run-1").
		AddTag("weekday", "Tuesday").
		AddTag("status", "ok").
		AddField("scenarios", 3).
		AddField("anomalies", 1).
		AddField("income", 123.457).
		AddField("duration_ms", int64(1500)).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	bodies := srv.Bodies()
	if len(bodies) != 1 || bodies[0] != expected {
		t.Errorf("unexpected bodies: %#v", bodies)
	}
}

func TestInfluxSink_RecordRun(t *testing.T) {
	srv := newLineServer(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	now := time.Date(2024, 3, 4, 6, 0, 0, 0, time.UTC)
	if err := sink.RecordRun(coremetrics.RunEvent{RunID: "run-1", Days: 7, Failed: 2, Income: 10, Duration: time.Second, Time: now}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("weekly_run").
		AddTag("run_id", "run-1").
		AddField("days", 7).
		AddField("failed", 2).
		AddField("income", 10.0).
		AddField("duration_ms", int64(1000)).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	bodies := srv.Bodies()
	if len(bodies) != 1 || bodies[0] != expected {
		t.Errorf("unexpected bodies: %#v", bodies)
	}
}

func TestInfluxSink_RecordSchedule(t *testing.T) {
	srv := newLineServer(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Org: "org", Bucket: "bucket"})
	defer sink.Close()

	var blend model.BlendedDay
	blend.Weekday = model.Sunday
	for h := range blend.BidDown {
		blend.BidDown[h] = float64(h)
		blend.IncomeDown[h] = 2 * float64(h)
	}
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	if err := sink.RecordSchedule(coremetrics.ScheduleEvent{RunID: "r", Blend: blend, Time: now}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	bodies := srv.Bodies()
	if len(bodies) != 1 {
		t.Fatalf("expected one batched write, got %d", len(bodies))
	}
	lines := strings.Split(bodies[0], "\n")
	if len(lines) != model.HoursPerDay {
		t.Fatalf("expected %d lines, got %d", model.HoursPerDay, len(lines))
	}
	last := write.NewPointWithMeasurement("blended_schedule").
		AddTag("run_id", "r").
		AddTag("weekday", "Sunday").
		AddTag("hour", "23").
		AddField("bid_down", 23.0).
		AddField("bid_up", 0.0).
		AddField("income_down", 46.0).
		AddField("income_up", 0.0).
		SetTime(now.Add(23 * time.Hour))
	if want := strings.TrimSpace(write.PointToLineProtocol(last, time.Nanosecond)); lines[23] != want {
		t.Errorf("hour 23 line = %q, want %q", lines[23], want)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
