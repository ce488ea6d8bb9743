package metrics

import (
	"fmt"
	"net"

	"github.com/kilianp07/flexbid/core/factory"
)

// Config lists the sinks receiving run metrics.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr is the listen address of the /metrics endpoint; empty disables it.
	PrometheusAddr string `json:"prometheus_addr"`
}

// Validate checks that every sink names a type and that the endpoint
// address is a host:port pair.
func (c Config) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("sink %d has no type", i)
		}
	}
	if c.PrometheusAddr != "" {
		if _, _, err := net.SplitHostPort(c.PrometheusAddr); err != nil {
			return fmt.Errorf("invalid prometheus_addr: %w", err)
		}
	}
	return nil
}
