package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/flexbid/core/metrics"
	"github.com/kilianp07/flexbid/core/model"
	"github.com/kilianp07/flexbid/infra/logger"
)

// InfluxConfig addresses an InfluxDB v2 bucket.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes run outcomes and blended schedules to InfluxDB.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings InfluxDB and returns a NopSink when the
// health check fails so that a missing database never blocks a run.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

// RecordDay writes one weekday_outcome point.
func (s *InfluxSink) RecordDay(ev coremetrics.DayEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("weekday_outcome").
		AddTag("run_id", ev.RunID).
		AddTag("weekday", ev.Weekday.String()).
		AddTag("status", ev.Status).
		AddField("scenarios", ev.Scenarios).
		AddField("anomalies", ev.Anomalies).
		AddField("income", round3(ev.Income)).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRun writes one weekly_run point.
func (s *InfluxSink) RecordRun(ev coremetrics.RunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("weekly_run").
		AddTag("run_id", ev.RunID).
		AddField("days", ev.Days).
		AddField("failed", ev.Failed).
		AddField("income", round3(ev.Income)).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSolve writes one solver_attempt point.
func (s *InfluxSink) RecordSolve(ev coremetrics.SolveEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("solver_attempt").
		AddTag("weekday", ev.Weekday.String()).
		AddTag("attempt", strconv.Itoa(ev.Attempt)).
		AddTag("status", ev.Status).
		AddField("duration_ms", round3(float64(ev.Duration.Microseconds())/1000)).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSchedule writes the blended schedule as one point per hour, stamped
// at ev.Time plus the hour offset.
func (s *InfluxSink) RecordSchedule(ev coremetrics.ScheduleEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	b := ev.Blend
	points := make([]*write.Point, 0, model.HoursPerDay)
	for h := 0; h < model.HoursPerDay; h++ {
		p := write.NewPointWithMeasurement("blended_schedule").
			AddTag("run_id", ev.RunID).
			AddTag("weekday", b.Weekday.String()).
			AddTag("hour", strconv.Itoa(h)).
			AddField("bid_down", round3(b.BidDown[h])).
			AddField("bid_up", round3(b.BidUp[h])).
			AddField("income_down", round3(b.IncomeDown[h])).
			AddField("income_up", round3(b.IncomeUp[h])).
			SetTime(ev.Time.Add(time.Duration(h) * time.Hour))
		points = append(points, p)
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
