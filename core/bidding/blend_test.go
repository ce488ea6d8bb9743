package bidding

import (
	"errors"
	"testing"

	"github.com/kilianp07/flexbid/core/model"
)

func TestBlend(t *testing.T) {
	cD := []model.Hourly{flat(1), flat(2)}
	cU := []model.Hourly{flat(4), flat(0)}
	pu := []model.Hourly{flat(10), flat(10)}
	pd := []model.Hourly{flat(3), flat(5)}
	b, err := Blend(cD, cU, []float64{0.25, 0.75}, pu, pd)
	if err != nil {
		t.Fatalf("blend: %v", err)
	}
	for h := 0; h < model.HoursPerDay; h++ {
		if b.BidDown[h] != 1.75 || b.BidUp[h] != 1 {
			t.Fatalf("hour %d: bids %v/%v", h, b.BidDown[h], b.BidUp[h])
		}
		if b.IncomeDown[h] != 0.75+7.5 || b.IncomeUp[h] != 10 {
			t.Fatalf("hour %d: income %v/%v", h, b.IncomeDown[h], b.IncomeUp[h])
		}
	}
	if got := b.Income(); got != 24*(8.25+10) {
		t.Fatalf("income = %v", got)
	}
}

func TestBlendShapeMismatch(t *testing.T) {
	_, err := Blend([]model.Hourly{{}}, nil, []float64{1}, nil, nil)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}
