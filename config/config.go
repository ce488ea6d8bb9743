package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/flexbid/core/bidding"
	"github.com/kilianp07/flexbid/core/metrics"
	"github.com/kilianp07/flexbid/core/pipeline"
	"github.com/kilianp07/flexbid/core/scenario"
	"github.com/kilianp07/flexbid/infra/market"
	"github.com/kilianp07/flexbid/infra/mqtt"
)

// EnvPrefix marks environment overrides. FB_SCENARIO__K=3 sets scenario.k.
const EnvPrefix = "FB_"

type Config struct {
	Input     InputConfig     `json:"input"`
	Scenario  scenario.Config `json:"scenario"`
	Optimizer bidding.Config  `json:"optimizer"`
	Pipeline  pipeline.Config `json:"pipeline"`
	Export    ExportConfig    `json:"export"`
	Store     StoreConfig     `json:"store"`
	Metrics   metrics.Config  `json:"metrics"`
	Sentry    SentryConfig    `json:"sentry"`
	MQTT      mqtt.Config     `json:"mqtt"`
	Market    market.Config   `json:"market"`
	Serve     ServeConfig     `json:"serve"`
	Log       LogConfig       `json:"log"`
}

// Default returns a configuration holding the reference parameters.
func Default() Config {
	cfg := Config{
		Scenario:  scenario.DefaultConfig(),
		Optimizer: bidding.DefaultConfig(),
		Pipeline:  pipeline.DefaultConfig(),
	}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills the sections whose zero value is not usable.
func (c *Config) SetDefaults() {
	c.Export.SetDefaults()
	c.Store.SetDefaults()
	c.Serve.SetDefaults()
	c.Log.SetDefaults()
}

// Load reads path (YAML or JSON) over the defaults and applies FB_ environment
// overrides. An empty path loads the defaults and the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}
	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate checks every section and joins the errors.
func (c Config) Validate() error {
	var errs []error
	add := func(section string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", section, err))
		}
	}
	add("input", c.Input.Validate())
	add("scenario", c.Scenario.Validate())
	add("optimizer", c.Optimizer.Validate())
	add("pipeline", c.Pipeline.Validate())
	add("export", c.Export.Validate())
	add("store", c.Store.Validate())
	add("metrics", c.Metrics.Validate())
	add("sentry", c.Sentry.Validate())
	add("mqtt", c.MQTT.Validate())
	add("market", c.Market.Validate())
	add("serve", c.Serve.Validate())
	add("log", c.Log.Validate())
	return errors.Join(errs...)
}
