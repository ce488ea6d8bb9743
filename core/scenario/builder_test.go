package scenario

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/flexbid/core/cluster"
	"github.com/kilianp07/flexbid/core/model"
)

func flat(v float64) model.Hourly {
	var h model.Hourly
	for i := range h {
		h[i] = v
	}
	return h
}

func profile(day int, values model.Hourly) model.ConsumptionProfile {
	return model.ConsumptionProfile{DayOfYear: day, Weekday: model.Monday, Values: values}
}

func price(day int, up, down float64) model.PriceProfile {
	return model.PriceProfile{DayOfYear: day, Weekday: model.Monday, Up: flat(up), Down: flat(down)}
}

// shapedWeek builds n Monday profiles alternating between a low and a high
// consumption regime with a daily shape.
func shapedWeek(n int) ([]model.ConsumptionProfile, []model.PriceProfile) {
	var profiles []model.ConsumptionProfile
	var prices []model.PriceProfile
	for i := 0; i < n; i++ {
		day := 3 + 7*i
		var v model.Hourly
		base := 2.0
		if i%3 == 0 {
			base = 6
		}
		for h := range v {
			v[h] = base + math.Sin(float64(h)/24*2*math.Pi) + 0.01*float64(i)
		}
		profiles = append(profiles, profile(day, v))
		prices = append(prices, price(day, float64(10+i), float64(20+i)))
	}
	return profiles, prices
}

func cfgK(k int) Config {
	c := DefaultConfig()
	c.K = k
	return c
}

func TestBuild_WeightsSumToOne(t *testing.T) {
	profiles, prices := shapedWeek(52)
	b, err := NewBuilder(cfgK(5), flat(20))
	require.NoError(t, err)
	set, err := b.Build(model.Monday, profiles, prices)
	require.NoError(t, err)
	require.Len(t, set.Scenarios, 5)
	require.Len(t, set.Prices, 5)
	var sum float64
	members := 0
	for i, sc := range set.Scenarios {
		sum += sc.Weight
		members += len(sc.MemberDays)
		assert.Equal(t, i, sc.ID)
		assert.Equal(t, i, set.Prices[i].ScenarioID)
		if i > 0 {
			assert.GreaterOrEqual(t, set.Scenarios[i-1].Weight, sc.Weight)
		}
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Equal(t, 52, members)
}

func TestBuild_SingleClusterBounds(t *testing.T) {
	profiles := []model.ConsumptionProfile{profile(10, flat(12)), profile(3, flat(10)), profile(17, flat(11))}
	prices := []model.PriceProfile{price(3, 1, 4), price(10, 2, 5), price(17, 3, 9)}
	b, err := NewBuilder(cfgK(1), flat(13))
	require.NoError(t, err)
	set, err := b.Build(model.Monday, profiles, prices)
	require.NoError(t, err)

	sc := set.Scenarios[0]
	assert.Equal(t, []int{3, 10, 17}, sc.MemberDays)
	assert.Equal(t, 1.0, sc.Weight)
	for h := 0; h < model.HoursPerDay; h++ {
		assert.InDelta(t, 11, sc.Centroid[h], 1e-12)
		assert.InDelta(t, 2.2, sc.Bounds.Pmin[h], 1e-12)
		assert.InDelta(t, 10.2, sc.Bounds.Q10[h], 1e-12)
		assert.InDelta(t, 11.8, sc.Bounds.Q90[h], 1e-12)
		assert.InDelta(t, 8.0, sc.Bounds.UpReserve[h], 1e-12)
		assert.InDelta(t, 1.2, sc.Bounds.DownReserve[h], 1e-12)
		assert.InDelta(t, 2, set.Prices[0].Up[h], 1e-12)
		assert.InDelta(t, 6, set.Prices[0].Down[h], 1e-12)
	}
	assert.Empty(t, set.Anomalies)
}

func TestBuild_Idempotent(t *testing.T) {
	profiles, prices := shapedWeek(30)
	b, err := NewBuilder(cfgK(4), flat(20))
	require.NoError(t, err)
	first, err := b.Build(model.Monday, profiles, prices)
	require.NoError(t, err)

	reversed := make([]model.ConsumptionProfile, len(profiles))
	for i, p := range profiles {
		reversed[len(profiles)-1-i] = p
	}
	second, err := b.Build(model.Monday, reversed, prices)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuild_Errors(t *testing.T) {
	profiles, prices := shapedWeek(6)
	cases := []struct {
		name     string
		k        int
		profiles []model.ConsumptionProfile
		prices   []model.PriceProfile
		want     error
	}{
		{"insufficient", 7, profiles, prices, model.ErrInsufficientData},
		{"degenerate", 2, []model.ConsumptionProfile{profile(1, flat(3)), profile(8, flat(3)), profile(15, flat(3))}, prices, model.ErrDegenerateCluster},
		{"missing price", 2, profiles, prices[1:], model.ErrMissingPrice},
		{"duplicate day", 1, append([]model.ConsumptionProfile{profiles[0]}, profiles...), prices, model.ErrInvalidProfile},
		{"wrong weekday", 1, []model.ConsumptionProfile{{DayOfYear: 4, Weekday: model.Tuesday}}, prices, model.ErrInvalidProfile},
		{"nan", 1, []model.ConsumptionProfile{profile(3, model.Hourly{math.NaN()})}, prices, model.ErrInvalidProfile},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b, err := NewBuilder(cfgK(c.k), flat(20))
			require.NoError(t, err)
			_, err = b.Build(model.Monday, c.profiles, c.prices)
			if !errors.Is(err, c.want) {
				t.Fatalf("expected %v got %v", c.want, err)
			}
			kind, ok := model.KindOf(err)
			if !ok || kind != model.KindData {
				t.Fatalf("expected data error, got %v", err)
			}
		})
	}
}

func TestBuild_BoundPolicies(t *testing.T) {
	profiles := []model.ConsumptionProfile{profile(3, flat(10)), profile(10, flat(11)), profile(17, flat(12))}
	prices := []model.PriceProfile{price(3, 1, 1), price(10, 1, 1), price(17, 1, 1)}
	// Pmax below Q90 (11.8) makes every Down reserve negative.
	pmax := flat(11.5)

	t.Run("clamp", func(t *testing.T) {
		b, err := NewBuilder(cfgK(1), pmax)
		require.NoError(t, err)
		set, err := b.Build(model.Monday, profiles, prices)
		require.NoError(t, err)
		assert.Len(t, set.Anomalies, model.HoursPerDay)
		assert.Equal(t, model.ProductDown, set.Anomalies[0].Product)
		assert.InDelta(t, -0.3, set.Anomalies[0].Value, 1e-12)
		assert.Equal(t, 0.0, set.Scenarios[0].Bounds.DownReserve[5])
	})
	t.Run("propagate", func(t *testing.T) {
		cfg := cfgK(1)
		cfg.BoundPolicy = PolicyPropagate
		b, err := NewBuilder(cfg, pmax)
		require.NoError(t, err)
		set, err := b.Build(model.Monday, profiles, prices)
		require.NoError(t, err)
		assert.InDelta(t, -0.3, set.Scenarios[0].Bounds.DownReserve[5], 1e-12)
	})
	t.Run("reject", func(t *testing.T) {
		cfg := cfgK(1)
		cfg.BoundPolicy = PolicyReject
		b, err := NewBuilder(cfg, pmax)
		require.NoError(t, err)
		_, err = b.Build(model.Monday, profiles, prices)
		require.ErrorIs(t, err, model.ErrBoundAnomaly)
		var de *model.DayError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, model.KindBoundAnomaly, de.Kind)
		assert.Equal(t, 0, de.Scenario)
		assert.Equal(t, 0, de.Hour)
		assert.Equal(t, "down_reserve", de.Family)
	})
}

type emptyPartitioner struct{}

func (emptyPartitioner) Partition(vectors [][]float64, k int) (cluster.Result, error) {
	return cluster.Result{Centroids: make([][]float64, k), Assignment: make([]int, len(vectors))}, nil
}

func TestBuild_CustomPartitioner(t *testing.T) {
	profiles, prices := shapedWeek(4)
	b, err := NewBuilder(cfgK(2), flat(20), WithPartitioner(emptyPartitioner{}))
	require.NoError(t, err)
	_, err = b.Build(model.Monday, profiles, prices)
	require.ErrorIs(t, err, model.ErrDegenerateCluster)
}

func TestNewBuilder_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LowerPercentile = 0.95
	if _, err := NewBuilder(cfg, flat(1)); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestQuantile(t *testing.T) {
	vals := []float64{12, 10, 11}
	cases := map[float64]float64{0: 10, 0.1: 10.2, 0.5: 11, 0.9: 11.8, 1: 12}
	for p, want := range cases {
		if got := quantile(p, vals); math.Abs(got-want) > 1e-12 {
			t.Errorf("p=%v: got %v want %v", p, got, want)
		}
	}
	if vals[0] != 12 {
		t.Fatalf("input mutated")
	}
	if !math.IsNaN(quantile(0.5, nil)) {
		t.Fatalf("expected NaN for empty input")
	}
}
