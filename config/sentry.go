package config

import (
	"fmt"

	"github.com/getsentry/sentry-go"
)

// SentryConfig enables error reporting of failed weekdays; an empty DSN
// disables it.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
}

func (c SentryConfig) Validate() error {
	if c.DSN == "" {
		return nil
	}
	if _, err := sentry.NewDsn(c.DSN); err != nil {
		return fmt.Errorf("invalid dsn: %w", err)
	}
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("traces_sample_rate must be in [0,1], got %v", c.TracesSampleRate)
	}
	return nil
}
