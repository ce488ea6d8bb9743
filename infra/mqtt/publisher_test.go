package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/flexbid/core/model"
	coremqtt "github.com/kilianp07/flexbid/core/mqtt"
)

type publishedMsg struct {
	topic   string
	qos     byte
	retain  bool
	payload []byte
}

// mockClient implements pahoClient for tests.
type mockClient struct {
	mu          sync.Mutex
	opts        *paho.ClientOptions
	published   []publishedMsg
	publishErrs []error
	connectErr  error
	disconnects int
}

func (m *mockClient) IsConnected() bool { return true }
func (m *mockClient) Connect() paho.Token {
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(nil)
	}
	return &dummyToken{err: m.connectErr}
}
func (m *mockClient) Disconnect(uint) {
	m.mu.Lock()
	m.disconnects++
	m.mu.Unlock()
}
func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, publishedMsg{topic, qos, retained, payload.([]byte)})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }

func useMock(t *testing.T, mc *mockClient) {
	t.Helper()
	prev := newMQTTClient
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() { newMQTTClient = prev })
}

func sampleResult() model.WeekResult {
	var blend model.BlendedDay
	blend.Weekday = model.Monday
	blend.BidDown[3] = 2.5
	blend.IncomeDown[3] = 100
	blend.IncomeUp[4] = 20
	return model.WeekResult{
		RunID:      "run-1",
		FinishedAt: time.Date(2024, 3, 4, 6, 0, 0, 0, time.UTC),
		Days: []model.DayOutcome{
			{Weekday: model.Monday, Blend: &blend, Solution: &model.DaySolution{Weekday: model.Monday, Income: 120}},
			{Weekday: model.Tuesday, Err: model.NewDayError(model.KindModel, model.Tuesday, model.ErrInfeasible)},
		},
	}
}

func TestPublishSchedule(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	pub, err := NewSchedulePublisher(Config{Broker: "tcp://localhost:1883", ClientID: "id", ScheduleTopic: "site/schedule", QoS: 1})
	require.NoError(t, err)

	require.NoError(t, pub.PublishSchedule(context.Background(), sampleResult()))
	require.Len(t, mc.published, 1)
	got := mc.published[0]
	assert.Equal(t, "site/schedule", got.topic)
	assert.Equal(t, byte(1), got.qos)
	assert.True(t, got.retain, "schedule should be retained by default")

	var msg ScheduleMessage
	require.NoError(t, json.Unmarshal(got.payload, &msg))
	assert.Equal(t, "run-1", msg.RunID)
	assert.InDelta(t, 120.0, msg.Income, 1e-9)
	require.Len(t, msg.Days, 1)
	assert.Equal(t, model.Monday, msg.Days[0].Weekday)
	assert.InDelta(t, 2.5, msg.Days[0].BidDown[3], 1e-9)
	assert.InDelta(t, 120.0, msg.Days[0].Income, 1e-9)
	require.Len(t, msg.Failed, 1)
	assert.Equal(t, "model", msg.Failed[0].Kind)

	pub.Close()
	assert.Equal(t, 1, mc.disconnects)
}

func TestPublishScheduleRetainDisabled(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	retain := false
	pub, err := NewSchedulePublisher(Config{Broker: "tcp://localhost:1883", Retain: &retain})
	require.NoError(t, err)
	require.NoError(t, pub.PublishSchedule(context.Background(), sampleResult()))
	assert.False(t, mc.published[0].retain)
	assert.Equal(t, DefaultScheduleTopic, mc.published[0].topic)
}

func TestPublishScheduleRetries(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), nil}}
	useMock(t, mc)
	pub, err := NewSchedulePublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1})
	require.NoError(t, err)
	require.NoError(t, pub.PublishSchedule(context.Background(), sampleResult()))
	assert.Len(t, mc.published, 2)
}

func TestPublishScheduleGivesUp(t *testing.T) {
	fail := fmt.Errorf("net fail")
	mc := &mockClient{publishErrs: []error{fail, fail, fail}}
	useMock(t, mc)
	pub, err := NewSchedulePublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 2, BackoffMS: 1})
	require.NoError(t, err)
	err = pub.PublishSchedule(context.Background(), sampleResult())
	require.ErrorIs(t, err, fail)
	assert.Len(t, mc.published, 3)
}

func TestPublishScheduleCanceled(t *testing.T) {
	fail := fmt.Errorf("net fail")
	mc := &mockClient{publishErrs: []error{fail, fail, fail, fail}}
	useMock(t, mc)
	pub, err := NewSchedulePublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 3, BackoffMS: 1000})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = pub.PublishSchedule(ctx, sampleResult())
	require.ErrorIs(t, err, context.Canceled)
}

func TestPublishScheduleWithoutBlend(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	pub, err := NewSchedulePublisher(Config{Broker: "tcp://localhost:1883"})
	require.NoError(t, err)
	res := model.WeekResult{Days: []model.DayOutcome{{Weekday: model.Friday, Err: errors.New("boom")}}}
	require.ErrorIs(t, pub.PublishSchedule(context.Background(), res), coremqtt.ErrNoSchedule)
	assert.Empty(t, mc.published)
}

func TestNewSchedulePublisherConnectError(t *testing.T) {
	mc := &mockClient{connectErr: errors.New("refused")}
	useMock(t, mc)
	if _, err := NewSchedulePublisher(Config{Broker: "tcp://localhost:1883"}); err == nil {
		t.Fatalf("expected connect error")
	}
}

func TestNewPublisherDisabled(t *testing.T) {
	pub, err := NewPublisher(Config{})
	require.NoError(t, err)
	if _, ok := pub.(coremqtt.NopPublisher); !ok {
		t.Fatalf("expected NopPublisher, got %T", pub)
	}
}
