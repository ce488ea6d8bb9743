package bidding

import (
	"fmt"
	"time"
)

// Config holds the Bid Optimizer parameters.
type Config struct {
	// MinBid is the smallest tradable capacity.
	MinBid         float64 `json:"min_bid"`
	TimeoutSeconds float64 `json:"timeout_seconds"`
	// MaxNodes caps branch-and-bound nodes per attempt; zero disables the cap.
	MaxNodes int `json:"max_nodes"`
	// RetryFactor multiplies timeout and node cap on the second attempt.
	RetryFactor float64 `json:"retry_factor"`
	Tolerance   float64 `json:"tolerance"`
}

// DefaultConfig returns the reference parameters.
func DefaultConfig() Config {
	return Config{
		MinBid:         0.1,
		TimeoutSeconds: 30,
		MaxNodes:       100000,
		RetryFactor:    4,
		Tolerance:      1e-7,
	}
}

// Validate checks parameter ranges.
func (c Config) Validate() error {
	if c.MinBid < 0 {
		return fmt.Errorf("min_bid must be non-negative, got %v", c.MinBid)
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %v", c.TimeoutSeconds)
	}
	if c.MaxNodes < 0 {
		return fmt.Errorf("max_nodes must be non-negative, got %d", c.MaxNodes)
	}
	if c.RetryFactor < 1 {
		return fmt.Errorf("retry_factor must be at least 1, got %v", c.RetryFactor)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative, got %v", c.Tolerance)
	}
	return nil
}

// Timeout returns the solve timeout of the first attempt.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds * float64(time.Second))
}
