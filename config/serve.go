package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// ServeConfig configures the scheduled service mode.
type ServeConfig struct {
	Addr string `json:"addr"`
	// Schedule is a standard five-field cron expression.
	Schedule    string   `json:"schedule"`
	CORSOrigins []string `json:"cors_origins"`
	// SkipInitialRun disables the batch normally run at start-up.
	SkipInitialRun bool `json:"skip_initial_run"`
}

func (c *ServeConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.Schedule == "" {
		c.Schedule = "0 6 * * 1"
	}
}

func (c ServeConfig) Validate() error {
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", c.Schedule, err)
	}
	return nil
}
