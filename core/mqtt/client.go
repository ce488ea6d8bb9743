package mqtt

import (
	"context"

	"github.com/kilianp07/flexbid/core/model"
)

// Publisher distributes the blended weekly schedule of a run to downstream
// consumers.
type Publisher interface {
	PublishSchedule(ctx context.Context, res model.WeekResult) error
	Close()
}

// NopPublisher drops every schedule.
type NopPublisher struct{}

func (NopPublisher) PublishSchedule(context.Context, model.WeekResult) error { return nil }
func (NopPublisher) Close()                                                  {}
