package config

import (
	"fmt"
	"slices"

	"github.com/kilianp07/flexbid/core/factory"
	"github.com/kilianp07/flexbid/infra/store"
)

// StoreConfig defines the run store and its rotation.
type StoreConfig struct {
	// Backend selects the store type: "jsonl", "sqlite" or "memory".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		switch c.Backend {
		case "sqlite":
			c.Path = "runs.db"
		case "jsonl":
			c.Path = "runs.jsonl"
		}
	}
}

// Validate checks mandatory fields.
func (c StoreConfig) Validate() error {
	if !slices.Contains(store.Backends(), c.Backend) {
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.Backend != "memory" && c.Path == "" {
		return fmt.Errorf("path is required")
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("rotation limits must be non-negative")
	}
	return nil
}

// Module returns the factory configuration of the backend.
func (c StoreConfig) Module() factory.ModuleConfig {
	return factory.ModuleConfig{Type: c.Backend, Conf: map[string]any{
		"path":         c.Path,
		"max_size_mb":  c.MaxSizeMB,
		"max_backups":  c.MaxBackups,
		"max_age_days": c.MaxAgeDays,
	}}
}
