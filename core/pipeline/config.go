package pipeline

import (
	"fmt"

	"github.com/kilianp07/flexbid/core/model"
)

// Config controls how a weekly run is scheduled.
type Config struct {
	// Parallelism bounds the number of weekdays processed at once.
	Parallelism int `json:"parallelism"`
	// Weekdays restricts the run to the named days; empty means all seven.
	Weekdays []string `json:"weekdays"`
}

// DefaultConfig runs all weekdays concurrently.
func DefaultConfig() Config {
	return Config{Parallelism: model.DaysPerWeek}
}

// Validate checks the parallelism and weekday names.
func (c Config) Validate() error {
	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1, got %d", c.Parallelism)
	}
	_, err := c.Days()
	return err
}

// Days returns the weekdays to process in Monday..Sunday order.
func (c Config) Days() ([]model.Weekday, error) {
	if len(c.Weekdays) == 0 {
		return model.Weekdays(), nil
	}
	var want [model.DaysPerWeek]bool
	for _, name := range c.Weekdays {
		wd, err := model.ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		want[wd] = true
	}
	var days []model.Weekday
	for _, wd := range model.Weekdays() {
		if want[wd] {
			days = append(days, wd)
		}
	}
	return days, nil
}
