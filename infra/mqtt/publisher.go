package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kilianp07/flexbid/core/model"
	coremqtt "github.com/kilianp07/flexbid/core/mqtt"
	"github.com/kilianp07/flexbid/infra/logger"
)

// DaySchedule is the published form of one blended weekday.
type DaySchedule struct {
	Weekday    model.Weekday `json:"weekday"`
	BidDown    model.Hourly  `json:"bid_down"`
	BidUp      model.Hourly  `json:"bid_up"`
	IncomeDown model.Hourly  `json:"income_down"`
	IncomeUp   model.Hourly  `json:"income_up"`
	Income     float64       `json:"income"`
}

// DayFailure names a weekday without a schedule.
type DayFailure struct {
	Weekday model.Weekday `json:"weekday"`
	Kind    string        `json:"kind"`
	Error   string        `json:"error"`
}

// ScheduleMessage is the retained payload published on the schedule topic.
type ScheduleMessage struct {
	RunID       string        `json:"run_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Income      float64       `json:"income"`
	Days        []DaySchedule `json:"days"`
	Failed      []DayFailure  `json:"failed,omitempty"`
}

// NewScheduleMessage flattens the blended days of res.
func NewScheduleMessage(res model.WeekResult) ScheduleMessage {
	msg := ScheduleMessage{RunID: res.RunID, GeneratedAt: res.FinishedAt, Income: res.TotalIncome()}
	for _, d := range res.Days {
		if d.OK() {
			b := d.Blend
			msg.Days = append(msg.Days, DaySchedule{
				Weekday:    d.Weekday,
				BidDown:    b.BidDown,
				BidUp:      b.BidUp,
				IncomeDown: b.IncomeDown,
				IncomeUp:   b.IncomeUp,
				Income:     b.Income(),
			})
			continue
		}
		f := DayFailure{Weekday: d.Weekday, Kind: "unknown"}
		if d.Err != nil {
			f.Error = d.Err.Error()
			if k, ok := model.KindOf(d.Err); ok {
				f.Kind = k.String()
			}
		}
		msg.Failed = append(msg.Failed, f)
	}
	return msg
}

// SchedulePublisher publishes blended schedules over MQTT.
type SchedulePublisher struct {
	cli     pahoClient
	topic   string
	qos     byte
	retain  bool
	retries int
	backoff time.Duration
	log     logger.Logger
}

// NewSchedulePublisher connects to the configured broker.
func NewSchedulePublisher(cfg Config) (*SchedulePublisher, error) {
	log := logger.New("mqtt_publisher")
	cli, err := connect(cfg, log)
	if err != nil {
		return nil, err
	}
	backoff := time.Duration(cfg.BackoffMS) * time.Millisecond
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	return &SchedulePublisher{
		cli:     cli,
		topic:   cfg.topic(),
		qos:     cfg.QoS,
		retain:  cfg.retain(),
		retries: cfg.MaxRetries,
		backoff: backoff,
		log:     log,
	}, nil
}

// NewPublisher returns a SchedulePublisher, or a NopPublisher when no broker
// is configured.
func NewPublisher(cfg Config) (coremqtt.Publisher, error) {
	if !cfg.Enabled() {
		return coremqtt.NopPublisher{}, nil
	}
	return NewSchedulePublisher(cfg)
}

// PublishSchedule encodes res as a ScheduleMessage and publishes it.
func (p *SchedulePublisher) PublishSchedule(ctx context.Context, res model.WeekResult) error {
	msg := NewScheduleMessage(res)
	if len(msg.Days) == 0 {
		return coremqtt.ErrNoSchedule
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := publish(ctx, p.cli, p.topic, p.qos, p.retain, payload, p.retries, p.backoff, p.log); err != nil {
		return err
	}
	p.log.Infof("published schedule of run %s (%d days) to %s", res.RunID, len(msg.Days), p.topic)
	return nil
}

// Close disconnects from the broker.
func (p *SchedulePublisher) Close() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
