package scenario

import "fmt"

// BoundPolicy selects how negative reserve bandwidths are handled.
type BoundPolicy string

const (
	// PolicyClamp sets negative reserves to zero and keeps going.
	PolicyClamp BoundPolicy = "clamp"
	// PolicyReject fails the weekday on the first negative reserve.
	PolicyReject BoundPolicy = "reject"
	// PolicyPropagate keeps the negative value and only reports it.
	PolicyPropagate BoundPolicy = "propagate"
)

// Config holds the Scenario Builder parameters.
type Config struct {
	// K is the number of scenarios built per weekday.
	K int `json:"k"`
	// FloorFraction defines Pmin as a fraction of the centroid.
	FloorFraction   float64     `json:"floor_fraction"`
	LowerPercentile float64     `json:"lower_percentile"`
	UpperPercentile float64     `json:"upper_percentile"`
	MaxIterations   int         `json:"max_iterations"`
	Tolerance       float64     `json:"tolerance"`
	BoundPolicy     BoundPolicy `json:"bound_policy"`
}

// DefaultConfig returns the reference parameters.
func DefaultConfig() Config {
	return Config{
		K:               5,
		FloorFraction:   0.2,
		LowerPercentile: 0.1,
		UpperPercentile: 0.9,
		MaxIterations:   1000,
		Tolerance:       1e-9,
		BoundPolicy:     PolicyClamp,
	}
}

// Validate checks parameter ranges.
func (c Config) Validate() error {
	if c.K < 1 {
		return fmt.Errorf("scenario k must be at least 1, got %d", c.K)
	}
	if c.FloorFraction < 0 || c.FloorFraction >= 1 {
		return fmt.Errorf("floor_fraction must be in [0,1), got %v", c.FloorFraction)
	}
	if c.LowerPercentile < 0 || c.UpperPercentile > 1 || c.LowerPercentile > c.UpperPercentile {
		return fmt.Errorf("invalid percentiles %v/%v", c.LowerPercentile, c.UpperPercentile)
	}
	if c.MaxIterations < 0 || c.Tolerance < 0 {
		return fmt.Errorf("max_iterations and tolerance must be non-negative")
	}
	switch c.BoundPolicy {
	case PolicyClamp, PolicyReject, PolicyPropagate:
	default:
		return fmt.Errorf("unknown bound_policy %q", c.BoundPolicy)
	}
	return nil
}
