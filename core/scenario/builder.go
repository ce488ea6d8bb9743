package scenario

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/flexbid/core/cluster"
	"github.com/kilianp07/flexbid/core/logger"
	"github.com/kilianp07/flexbid/core/model"
)

// Builder clusters the historical profiles of a weekday into scenarios.
type Builder struct {
	cfg         Config
	pmax        model.Hourly
	partitioner cluster.Partitioner
	log         logger.Logger
}

// Option customises a Builder.
type Option func(*Builder)

// WithPartitioner replaces the default k-means partitioner.
func WithPartitioner(p cluster.Partitioner) Option {
	return func(b *Builder) { b.partitioner = p }
}

// WithLogger sets the logger used to report bound anomalies.
func WithLogger(l logger.Logger) Option {
	return func(b *Builder) { b.log = l }
}

// NewBuilder validates cfg and returns a Builder using pmax as the
// year-wide consumption ceiling.
func NewBuilder(cfg Config, pmax model.Hourly, opts ...Option) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &Builder{
		cfg:         cfg,
		pmax:        pmax,
		partitioner: cluster.KMeans{MaxIterations: cfg.MaxIterations, Tolerance: cfg.Tolerance},
	}
	for _, o := range opts {
		o(b)
	}
	b.log = logger.OrNop(b.log)
	return b, nil
}

// Pmax returns the consumption ceiling used for DownReserve.
func (b *Builder) Pmax() model.Hourly { return b.pmax }

// Build derives the scenarios of weekday wd from that weekday's consumption
// profiles and the price profiles of the same days.
func (b *Builder) Build(wd model.Weekday, profiles []model.ConsumptionProfile, prices []model.PriceProfile) (model.ScenarioSet, error) {
	set := model.ScenarioSet{Weekday: wd}
	days, err := sortedProfiles(wd, profiles)
	if err != nil {
		return set, err
	}
	n, k := len(days), b.cfg.K
	if n < k {
		return set, model.NewDayError(model.KindData, wd,
			fmt.Errorf("%w: %d profiles for %d scenarios", model.ErrInsufficientData, n, k))
	}

	vectors := make([][]float64, n)
	for i := range days {
		v := days[i].Values
		vectors[i] = v[:]
	}
	part, err := b.partitioner.Partition(vectors, k)
	if err != nil {
		if errors.Is(err, cluster.ErrTooFewVectors) {
			return set, model.NewDayError(model.KindData, wd, fmt.Errorf("%w: %v", model.ErrInsufficientData, err))
		}
		return set, model.NewDayError(model.KindData, wd, fmt.Errorf("partition: %w", err))
	}
	set.Inertia = part.Inertia
	set.Iterations = part.Iterations

	clusters := make([][]int, k)
	for c := range clusters {
		clusters[c] = part.Members(c)
		if len(clusters[c]) == 0 {
			return set, model.NewDayError(model.KindData, wd,
				fmt.Errorf("%w: cluster %d has no members", model.ErrDegenerateCluster, c)).At(c, -1)
		}
	}
	// Most likely scenario first; ties keep the cluster holding the earliest day.
	sort.SliceStable(clusters, func(i, j int) bool {
		if len(clusters[i]) != len(clusters[j]) {
			return len(clusters[i]) > len(clusters[j])
		}
		return clusters[i][0] < clusters[j][0]
	})

	priceByDay := make(map[int]model.PriceProfile, len(prices))
	for _, p := range prices {
		priceByDay[p.DayOfYear] = p
	}

	for id, members := range clusters {
		sc := model.Scenario{
			Weekday: wd,
			ID:      id,
			Weight:  float64(len(members)) / float64(n),
		}
		column := make([]float64, len(members))
		for h := 0; h < model.HoursPerDay; h++ {
			for i, m := range members {
				column[i] = days[m].Values[h]
			}
			sc.Centroid[h] = stat.Mean(column, nil)
			sc.Bounds.Q10[h] = quantile(b.cfg.LowerPercentile, column)
			sc.Bounds.Q90[h] = quantile(b.cfg.UpperPercentile, column)
		}
		for _, m := range members {
			sc.MemberDays = append(sc.MemberDays, days[m].DayOfYear)
		}
		if err := b.deriveReserves(&set, &sc); err != nil {
			return set, err
		}
		price, err := averagePrices(sc, priceByDay)
		if err != nil {
			return set, err
		}
		set.Scenarios = append(set.Scenarios, sc)
		set.Prices = append(set.Prices, price)
	}
	return set, nil
}

// deriveReserves fills Pmin and the reserve bandwidths of sc and applies the
// bound policy to negative values.
func (b *Builder) deriveReserves(set *model.ScenarioSet, sc *model.Scenario) error {
	bd := &sc.Bounds
	for h := 0; h < model.HoursPerDay; h++ {
		bd.Pmin[h] = b.cfg.FloorFraction * sc.Centroid[h]
		bd.UpReserve[h] = bd.Q10[h] - bd.Pmin[h]
		bd.DownReserve[h] = b.pmax[h] - bd.Q90[h]
		for _, chk := range []struct {
			product model.Product
			value   *float64
		}{
			{model.ProductUp, &bd.UpReserve[h]},
			{model.ProductDown, &bd.DownReserve[h]},
		} {
			if *chk.value >= 0 {
				continue
			}
			an := model.BoundAnomaly{Weekday: sc.Weekday, Scenario: sc.ID, Hour: h, Product: chk.product, Value: *chk.value}
			set.Anomalies = append(set.Anomalies, an)
			b.log.Warnf("bound anomaly (%s): %s", b.cfg.BoundPolicy, an)
			switch b.cfg.BoundPolicy {
			case PolicyReject:
				de := model.NewDayError(model.KindBoundAnomaly, sc.Weekday,
					fmt.Errorf("%w: %s reserve %.6g", model.ErrBoundAnomaly, chk.product, *chk.value)).At(sc.ID, h)
				de.Family = chk.product.String() + "_reserve"
				return de
			case PolicyClamp:
				*chk.value = 0
			}
		}
	}
	return nil
}

func averagePrices(sc model.Scenario, priceByDay map[int]model.PriceProfile) (model.ScenarioPrice, error) {
	out := model.ScenarioPrice{Weekday: sc.Weekday, ScenarioID: sc.ID}
	for _, day := range sc.MemberDays {
		p, ok := priceByDay[day]
		if !ok {
			return out, model.NewDayError(model.KindData, sc.Weekday,
				fmt.Errorf("%w: day %d", model.ErrMissingPrice, day)).At(sc.ID, -1)
		}
		for h := 0; h < model.HoursPerDay; h++ {
			out.Up[h] += p.Up[h]
			out.Down[h] += p.Down[h]
		}
	}
	inv := 1 / float64(len(sc.MemberDays))
	for h := 0; h < model.HoursPerDay; h++ {
		out.Up[h] *= inv
		out.Down[h] *= inv
	}
	return out, nil
}

// sortedProfiles validates the profiles of wd and returns a copy ordered by
// day of year.
func sortedProfiles(wd model.Weekday, profiles []model.ConsumptionProfile) ([]model.ConsumptionProfile, error) {
	seen := make(map[int]struct{}, len(profiles))
	days := make([]model.ConsumptionProfile, 0, len(profiles))
	for _, p := range profiles {
		if p.Weekday != wd {
			return nil, model.NewDayError(model.KindData, wd,
				fmt.Errorf("%w: day %d belongs to %s", model.ErrInvalidProfile, p.DayOfYear, p.Weekday))
		}
		if _, dup := seen[p.DayOfYear]; dup {
			return nil, model.NewDayError(model.KindData, wd,
				fmt.Errorf("%w: duplicate day %d", model.ErrInvalidProfile, p.DayOfYear))
		}
		seen[p.DayOfYear] = struct{}{}
		for h, v := range p.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, model.NewDayError(model.KindData, wd,
					fmt.Errorf("%w: day %d has non-finite value", model.ErrInvalidProfile, p.DayOfYear)).At(-1, h)
			}
		}
		days = append(days, p)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].DayOfYear < days[j].DayOfYear })
	return days, nil
}
