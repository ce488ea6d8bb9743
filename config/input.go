package config

import (
	"fmt"

	"github.com/kilianp07/flexbid/core/model"
	"github.com/kilianp07/flexbid/infra/profiles"
)

// InputConfig locates the consumption and price tables.
type InputConfig struct {
	ConsumptionPath string  `json:"consumption_path"`
	UpPricePath     string  `json:"up_price_path"`
	DownPricePath   string  `json:"down_price_path"`
	TimeLayout      string  `json:"time_layout"`
	DayFirst        bool    `json:"day_first"`
	UpPriceFactor   float64 `json:"up_price_factor"`
	DownPriceFactor float64 `json:"down_price_factor"`
	// Pmax is the hourly import ceiling; empty derives it from the consumption table.
	Pmax []float64 `json:"pmax"`
}

// Validate checks the Pmax shape and the conversion factors.
func (c InputConfig) Validate() error {
	if n := len(c.Pmax); n != 0 && n != model.HoursPerDay {
		return fmt.Errorf("pmax must have %d values, got %d", model.HoursPerDay, n)
	}
	if c.UpPriceFactor < 0 || c.DownPriceFactor < 0 {
		return fmt.Errorf("price factors must be non-negative")
	}
	return nil
}

// Options maps the section onto the profile repository options.
func (c InputConfig) Options() profiles.Options {
	return profiles.Options{
		ConsumptionPath: c.ConsumptionPath,
		UpPricePath:     c.UpPricePath,
		DownPricePath:   c.DownPricePath,
		TimeLayout:      c.TimeLayout,
		DayFirst:        c.DayFirst,
		UpFactor:        c.UpPriceFactor,
		DownFactor:      c.DownPriceFactor,
	}
}

// FixedPmax returns the configured ceiling, or false when it must be derived.
func (c InputConfig) FixedPmax() (model.Hourly, bool) {
	var out model.Hourly
	if len(c.Pmax) != model.HoursPerDay {
		return out, false
	}
	copy(out[:], c.Pmax)
	return out, true
}
