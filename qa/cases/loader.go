// Package cases runs YAML-described bid models through the optimizer and
// checks the expected income or failure.
package cases

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/flexbid/core/model"
)

// Hourly decodes either a scalar, repeated over the day, or a list of 24 values.
type Hourly model.Hourly

func (h *Hourly) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := n.Decode(&v); err != nil {
			return err
		}
		for i := range h {
			h[i] = v
		}
		return nil
	case yaml.SequenceNode:
		var vs []float64
		if err := n.Decode(&vs); err != nil {
			return err
		}
		if len(vs) != model.HoursPerDay {
			return fmt.Errorf("line %d: want %d hourly values, got %d", n.Line, model.HoursPerDay, len(vs))
		}
		copy(h[:], vs)
		return nil
	default:
		return fmt.Errorf("line %d: hourly value must be a number or a list", n.Line)
	}
}

type ScenarioDef struct {
	Weight      float64 `yaml:"weight"`
	Baseline    Hourly  `yaml:"baseline"`
	Pmin        Hourly  `yaml:"pmin"`
	UpReserve   Hourly  `yaml:"up_reserve"`
	DownReserve Hourly  `yaml:"down_reserve"`
	PriceUp     Hourly  `yaml:"price_up"`
	PriceDown   Hourly  `yaml:"price_down"`
}

// Expected is the outcome a case must produce. Error is empty for a solved
// model, otherwise the error kind ("data", "model", ...).
type Expected struct {
	Income *float64 `yaml:"income,omitempty"`
	Error  string   `yaml:"error,omitempty"`
	Family string   `yaml:"family,omitempty"`
	// Scenario and Hour locate a model error when set.
	Scenario *int `yaml:"scenario,omitempty"`
	Hour     *int `yaml:"hour,omitempty"`
}

type Case struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description,omitempty"`
	Weekday     model.Weekday `yaml:"weekday"`
	MinBid      float64       `yaml:"min_bid"`
	Pmax        Hourly        `yaml:"pmax"`
	Scenarios   []ScenarioDef `yaml:"scenarios"`
	Expected    Expected      `yaml:"expected"`
}

func Load(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Case
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if c.Name == "" {
		c.Name = filepath.Base(path)
	}
	return &c, nil
}

// LoadGlob loads every file matching pattern, sorted by path.
func LoadGlob(pattern string) ([]*Case, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	out := make([]*Case, 0, len(files))
	for _, f := range files {
		c, err := Load(f)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
