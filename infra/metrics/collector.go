package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/flexbid/core/metrics"
	"github.com/kilianp07/flexbid/core/pipeline"
	"github.com/kilianp07/flexbid/infra/logger"
	"github.com/kilianp07/flexbid/internal/eventbus"
)

// StartEventCollector forwards pipeline progress events to sink when it
// implements coremetrics.StageRecorder. It returns immediately; collection
// stops when ctx is canceled or the bus is closed.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[pipeline.Event], sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	rec, ok := sink.(coremetrics.StageRecorder)
	if !ok {
		return
	}
	log := logger.New("metrics-collector")
	go eventbus.Forward(ctx, bus, func(e pipeline.Event) {
		ev := coremetrics.StageEvent{RunID: e.RunID, Weekday: e.Weekday, Stage: string(e.Stage), Time: e.Time}
		if err := rec.RecordStage(ev); err != nil {
			log.Warnf("record stage %s for %s: %v", e.Stage, e.Weekday, err)
		}
	})
}
