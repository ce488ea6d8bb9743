package store

import (
	"context"
	"sync"

	"github.com/kilianp07/flexbid/core/model"
)

// Memory keeps runs in process memory.
type Memory struct {
	mu   sync.RWMutex
	recs []Record
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Save(_ context.Context, res model.WeekResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, NewRecord(res))
	return nil
}

func (m *Memory) Query(_ context.Context, q Query) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, r := range m.recs {
		if q.match(r) {
			out = append(out, r)
		}
	}
	return newestFirst(out, q.Limit), nil
}

func (m *Memory) Get(ctx context.Context, runID string) (Record, error) {
	recs, _ := m.Query(ctx, Query{})
	for _, r := range recs {
		if r.RunID == runID {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

func (m *Memory) Latest(ctx context.Context) (Record, error) {
	recs, _ := m.Query(ctx, Query{Limit: 1})
	if len(recs) == 0 {
		return Record{}, ErrNotFound
	}
	return recs[0], nil
}

func (m *Memory) Close() error { return nil }
