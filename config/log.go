package config

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/kilianp07/flexbid/infra/logger"
)

// LogConfig selects the log level and output style.
type LogConfig struct {
	Level   string `json:"level"`
	Console bool   `json:"console"`
}

func (c *LogConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

func (c LogConfig) Validate() error {
	_, err := zerolog.ParseLevel(strings.ToLower(c.Level))
	return err
}

// Options converts the section for logger.Configure.
func (c LogConfig) Options() logger.Options {
	return logger.Options{Level: c.Level, Console: c.Console}
}
