package bidding

import (
	"errors"
	"fmt"

	"github.com/kilianp07/flexbid/core/model"
)

// ErrShapeMismatch is returned by Blend when its inputs disagree in scenario count.
var ErrShapeMismatch = errors.New("blend inputs do not match")

// Blend combines per-scenario bids into probability-weighted hourly bid and
// income curves.
func Blend(cD, cU []model.Hourly, weights []float64, priceUp, priceDown []model.Hourly) (model.BlendedDay, error) {
	var out model.BlendedDay
	s := len(weights)
	if len(cD) != s || len(cU) != s || len(priceUp) != s || len(priceDown) != s {
		return out, fmt.Errorf("%w: %d weights, %d/%d bids, %d/%d prices",
			ErrShapeMismatch, s, len(cD), len(cU), len(priceUp), len(priceDown))
	}
	for i, w := range weights {
		for h := 0; h < model.HoursPerDay; h++ {
			out.BidDown[h] += w * cD[i][h]
			out.BidUp[h] += w * cU[i][h]
			out.IncomeDown[h] += w * cD[i][h] * priceDown[i][h]
			out.IncomeUp[h] += w * cU[i][h] * priceUp[i][h]
		}
	}
	return out, nil
}

// BlendSolution blends sol using the weights and prices of in.
func BlendSolution(in Input, sol model.DaySolution) (model.BlendedDay, error) {
	b, err := Blend(sol.Down(), sol.Up(), in.Weights, in.PriceUp, in.PriceDown)
	b.Weekday = in.Weekday
	return b, err
}
