package monitoring

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/flexbid/config"
	"github.com/kilianp07/flexbid/core/model"
	coremon "github.com/kilianp07/flexbid/core/monitoring"
)

type memTransport struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (m *memTransport) Flush(time.Duration) bool       { return true }
func (m *memTransport) Configure(sentry.ClientOptions) {}
func (m *memTransport) SendEvent(e *sentry.Event) {
	m.mu.Lock()
	m.events = append(m.events, e)
	m.mu.Unlock()
}

func TestNewSentryMonitorWithoutDSN(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.(coremon.NopMonitor); !ok {
		t.Fatalf("expected NopMonitor, got %T", m)
	}
}

func TestSentryMonitorTagsDayErrors(t *testing.T) {
	tr := &memTransport{}
	m, err := newSentryMonitor(sentry.ClientOptions{Dsn: "https://public@example.com/1", Transport: tr})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	de := model.NewDayError(model.KindSolver, model.Sunday, model.ErrSolverTimeout)
	coremon.CaptureDayError(m, de, map[string]string{"run_id": "abc"})
	m.CaptureException(errors.New("plain"), nil)
	m.Flush(time.Second)

	tr.mu.Lock()
	defer tr.mu.Unlock()
	if len(tr.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(tr.events))
	}
	ev := tr.events[0]
	if ev.Tags["weekday"] != "Sunday" || ev.Tags["kind"] != "solver" || ev.Tags["run_id"] != "abc" {
		t.Fatalf("unexpected tags %v", ev.Tags)
	}
	if len(ev.Fingerprint) != 3 || ev.Fingerprint[1] != "solver" {
		t.Fatalf("unexpected fingerprint %v", ev.Fingerprint)
	}
	if len(tr.events[1].Fingerprint) != 0 {
		t.Fatalf("plain errors keep default grouping, got %v", tr.events[1].Fingerprint)
	}
}
