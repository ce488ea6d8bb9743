// Package metrics defines the sinks that observe weekly bid runs. Sinks
// record per-weekday outcomes and run summaries; optional interfaces cover
// solver attempts and blended schedules. Implementations live in
// infra/metrics and register themselves with RegisterMetricsSink, and
// NewMetricsSink returns a MultiSink when several sinks are configured.
package metrics
