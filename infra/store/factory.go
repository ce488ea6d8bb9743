package store

import (
	"github.com/kilianp07/flexbid/core/factory"
)

var registry = factory.NewRegistry[Store]()

func init() {
	_ = registry.Register("memory", func(map[string]any) (Store, error) {
		return NewMemory(), nil
	})
	_ = registry.Register("jsonl", func(conf map[string]any) (Store, error) {
		var c struct {
			Path       string `json:"path"`
			MaxSizeMB  int    `json:"max_size_mb"`
			MaxBackups int    `json:"max_backups"`
			MaxAgeDays int    `json:"max_age_days"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	})
	_ = registry.Register("sqlite", func(conf map[string]any) (Store, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSQLiteStore(c.Path)
	})
}

// Backends lists the registered store types.
func Backends() []string { return registry.Names() }

// Open creates the store described by cfg.
func Open(cfg factory.ModuleConfig) (Store, error) {
	return registry.Create(cfg)
}
