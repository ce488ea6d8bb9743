package cases

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/kilianp07/flexbid/core/bidding"
	"github.com/kilianp07/flexbid/core/model"
)

// IncomeTolerance is the absolute income difference accepted by Check.
const IncomeTolerance = 1e-6

// Input converts the case into an optimizer input.
func (c *Case) Input() bidding.Input {
	in := bidding.Input{Weekday: c.Weekday, MinBid: c.MinBid, Pmax: model.Hourly(c.Pmax)}
	for _, s := range c.Scenarios {
		in.Weights = append(in.Weights, s.Weight)
		in.Baseline = append(in.Baseline, model.Hourly(s.Baseline))
		in.Pmin = append(in.Pmin, model.Hourly(s.Pmin))
		in.UpReserve = append(in.UpReserve, model.Hourly(s.UpReserve))
		in.DownReserve = append(in.DownReserve, model.Hourly(s.DownReserve))
		in.PriceUp = append(in.PriceUp, model.Hourly(s.PriceUp))
		in.PriceDown = append(in.PriceDown, model.Hourly(s.PriceDown))
	}
	return in
}

// Run optimizes the case and checks its expectations.
func Run(ctx context.Context, opt *bidding.Optimizer, c *Case) error {
	sol, err := opt.Optimize(ctx, c.Input())
	return Check(c, sol, err)
}

// Check compares an optimizer result with the expectations of c.
func Check(c *Case, sol model.DaySolution, err error) error {
	want := c.Expected
	if want.Error == "" {
		if err != nil {
			return fmt.Errorf("%s: unexpected error: %w", c.Name, err)
		}
		if want.Income != nil && math.Abs(sol.Income-*want.Income) > IncomeTolerance {
			return fmt.Errorf("%s: income %.6f, want %.6f", c.Name, sol.Income, *want.Income)
		}
		return checkBids(c, sol)
	}

	var de *model.DayError
	if !errors.As(err, &de) {
		return fmt.Errorf("%s: want a %s error, got %v", c.Name, want.Error, err)
	}
	if de.Kind.String() != want.Error {
		return fmt.Errorf("%s: error kind %s, want %s", c.Name, de.Kind, want.Error)
	}
	if want.Family != "" && de.Family != want.Family {
		return fmt.Errorf("%s: constraint family %q, want %q", c.Name, de.Family, want.Family)
	}
	if want.Scenario != nil && de.Scenario != *want.Scenario {
		return fmt.Errorf("%s: scenario %d, want %d", c.Name, de.Scenario, *want.Scenario)
	}
	if want.Hour != nil && de.Hour != *want.Hour {
		return fmt.Errorf("%s: hour %d, want %d", c.Name, de.Hour, *want.Hour)
	}
	return nil
}

// checkBids verifies that every bid is either zero or within
// [min_bid, reserve] and inside the operating envelope.
func checkBids(c *Case, sol model.DaySolution) error {
	const eps = 1e-7
	for s, row := range sol.PerScenario {
		sc := c.Scenarios[s]
		for h, b := range row {
			down := math.Min(sc.DownReserve[h], c.Pmax[h]-sc.Baseline[h])
			up := math.Min(sc.UpReserve[h], sc.Baseline[h]-sc.Pmin[h])
			if b.CD != 0 && (b.CD < c.MinBid-eps || b.CD > down+eps) {
				return fmt.Errorf("%s: scenario %d hour %d down bid %v outside [%v, %v]", c.Name, s, h, b.CD, c.MinBid, down)
			}
			if b.CU != 0 && (b.CU < c.MinBid-eps || b.CU > up+eps) {
				return fmt.Errorf("%s: scenario %d hour %d up bid %v outside [%v, %v]", c.Name, s, h, b.CU, c.MinBid, up)
			}
		}
	}
	return nil
}
