package metrics

import (
	"github.com/kilianp07/flexbid/core/factory"
	coremetrics "github.com/kilianp07/flexbid/core/metrics"
)

func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMetricsSink("log", func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewLogSink(nil), nil
	})

	// The /metrics endpoint is served separately, see StartPromServer.
	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSink()
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c), nil
	})
}
