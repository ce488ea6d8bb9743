package bidding

import (
	"fmt"
	"math"

	"github.com/kilianp07/flexbid/core/model"
)

// Input is the data of one weekday's bid model. Every per-scenario slice has
// one entry per scenario.
type Input struct {
	Weekday     model.Weekday
	MinBid      float64
	Baseline    []model.Hourly
	PriceUp     []model.Hourly
	PriceDown   []model.Hourly
	UpReserve   []model.Hourly
	DownReserve []model.Hourly
	Pmin        []model.Hourly
	Pmax        model.Hourly
	Weights     []float64
}

// NewInput assembles the optimizer input from a scenario set. Scenario
// centroids serve as baselines.
func NewInput(set model.ScenarioSet, pmax model.Hourly, minBid float64) Input {
	in := Input{Weekday: set.Weekday, MinBid: minBid, Pmax: pmax}
	for i, sc := range set.Scenarios {
		in.Baseline = append(in.Baseline, sc.Centroid)
		in.UpReserve = append(in.UpReserve, sc.Bounds.UpReserve)
		in.DownReserve = append(in.DownReserve, sc.Bounds.DownReserve)
		in.Pmin = append(in.Pmin, sc.Bounds.Pmin)
		in.Weights = append(in.Weights, sc.Weight)
		var up, down model.Hourly
		if i < len(set.Prices) {
			up, down = set.Prices[i].Up, set.Prices[i].Down
		}
		in.PriceUp = append(in.PriceUp, up)
		in.PriceDown = append(in.PriceDown, down)
	}
	return in
}

// Scenarios returns the scenario count.
func (in Input) Scenarios() int { return len(in.Weights) }

// Validate checks shapes and numeric values.
func (in Input) Validate() error {
	s := in.Scenarios()
	if s == 0 {
		return fmt.Errorf("no scenarios")
	}
	if math.IsNaN(in.MinBid) || in.MinBid < 0 {
		return fmt.Errorf("invalid min bid %v", in.MinBid)
	}
	tables := map[string][]model.Hourly{
		"baseline":     in.Baseline,
		"price_up":     in.PriceUp,
		"price_down":   in.PriceDown,
		"up_reserve":   in.UpReserve,
		"down_reserve": in.DownReserve,
		"pmin":         in.Pmin,
	}
	for name, tbl := range tables {
		if len(tbl) != s {
			return fmt.Errorf("%s has %d scenarios, want %d", name, len(tbl), s)
		}
		for si, row := range tbl {
			if h := nonFinite(row); h >= 0 {
				return fmt.Errorf("%s scenario %d hour %d is not finite", name, si, h)
			}
		}
	}
	if h := nonFinite(in.Pmax); h >= 0 {
		return fmt.Errorf("pmax hour %d is not finite", h)
	}
	for si, w := range in.Weights {
		if math.IsNaN(w) || w < 0 || w > 1 {
			return fmt.Errorf("scenario %d has invalid weight %v", si, w)
		}
	}
	return nil
}

func nonFinite(v model.Hourly) int {
	for h, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return h
		}
	}
	return -1
}
