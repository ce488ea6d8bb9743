package profiles

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/kilianp07/flexbid/core/logger"
	"github.com/kilianp07/flexbid/core/model"
)

// Options describe the CSV tables of a Repository.
type Options struct {
	ConsumptionPath string
	UpPricePath     string
	DownPricePath   string
	// TimeLayout is a Go time layout; empty tries common layouts.
	TimeLayout string
	DayFirst   bool
	// UpFactor and DownFactor convert prices to the income currency; zero means 1.
	UpFactor   float64
	DownFactor float64
}

func factor(f float64) float64 {
	if f == 0 {
		return 1
	}
	return f
}

// Stats summarise what was loaded.
type Stats struct {
	Rows           int
	SkippedRows    int
	Days           int
	IncompleteDays int
	PriceDays      int
}

// Repository serves hourly profiles bucketed by weekday. It is immutable
// after Load and safe for concurrent use.
type Repository struct {
	consumption [model.DaysPerWeek][]model.ConsumptionProfile
	prices      [model.DaysPerWeek][]model.PriceProfile
	stats       Stats
}

// Load reads the three CSV files of opts.
func Load(opts Options, log logger.Logger) (*Repository, error) {
	files := make([]*os.File, 0, 3)
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()
	for _, path := range []string{opts.ConsumptionPath, opts.UpPricePath, opts.DownPricePath} {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return LoadReaders(files[0], files[1], files[2], opts, log)
}

// LoadReaders builds a Repository from a consumption table (time,value) and
// Up and Down price tables (time,price). Sub-hourly samples are averaged per
// hour. A consumption day is kept only when all 24 hours are present; price
// hours without data are 0.
func LoadReaders(consumption, up, down io.Reader, opts Options, log logger.Logger) (*Repository, error) {
	log = logger.OrNop(log)
	tp := newTimeParser(opts.TimeLayout, opts.DayFirst)
	type source struct {
		name string
		r    io.Reader
		col  string
	}
	sources := []source{{"consumption", consumption, "value"}, {"up price", up, "price"}, {"down price", down, "price"}}
	tables := make([]table, len(sources))
	repo := &Repository{}
	for i, s := range sources {
		t, err := readTable(s.r, s.col, tp)
		if err != nil {
			return nil, fmt.Errorf("%s table: %w", s.name, err)
		}
		for _, msg := range t.skipped {
			log.Warnf("%s table: skipped %s", s.name, msg)
		}
		repo.stats.Rows += t.rows
		repo.stats.SkippedRows += len(t.skipped)
		tables[i] = t
	}
	if len(tables[0].samples) == 0 {
		return nil, fmt.Errorf("consumption table: %w: no valid rows", model.ErrInsufficientData)
	}

	origin := firstYear(tables)
	cons := bucket(tables[0].samples, origin, 1)
	upB := bucket(tables[1].samples, origin, factor(opts.UpFactor))
	downB := bucket(tables[2].samples, origin, factor(opts.DownFactor))

	for _, day := range sortedDays(cons) {
		b := cons[day]
		if !b.complete() {
			repo.stats.IncompleteDays++
			continue
		}
		p := model.ConsumptionProfile{DayOfYear: day, Weekday: b.weekday, Values: b.mean()}
		repo.consumption[b.weekday] = append(repo.consumption[b.weekday], p)
		repo.stats.Days++
	}
	priceDays := map[int]model.Weekday{}
	for day, b := range upB {
		priceDays[day] = b.weekday
	}
	for day, b := range downB {
		priceDays[day] = b.weekday
	}
	days := make([]int, 0, len(priceDays))
	for d := range priceDays {
		days = append(days, d)
	}
	sort.Ints(days)
	for _, day := range days {
		wd := priceDays[day]
		p := model.PriceProfile{DayOfYear: day, Weekday: wd}
		if b, ok := upB[day]; ok {
			p.Up = b.mean()
		}
		if b, ok := downB[day]; ok {
			p.Down = b.mean()
		}
		repo.prices[wd] = append(repo.prices[wd], p)
		repo.stats.PriceDays++
	}
	log.Infof("loaded %d consumption days (%d incomplete dropped) and %d price days from %d rows",
		repo.stats.Days, repo.stats.IncompleteDays, repo.stats.PriceDays, repo.stats.Rows)
	return repo, nil
}

// Consumption returns the complete consumption days of wd in day order.
func (r *Repository) Consumption(ctx context.Context, wd model.Weekday) ([]model.ConsumptionProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !wd.Valid() {
		return nil, fmt.Errorf("invalid weekday %d", wd)
	}
	return append([]model.ConsumptionProfile(nil), r.consumption[wd]...), nil
}

// Prices returns the price days of wd in day order.
func (r *Repository) Prices(ctx context.Context, wd model.Weekday) ([]model.PriceProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !wd.Valid() {
		return nil, fmt.Errorf("invalid weekday %d", wd)
	}
	return append([]model.PriceProfile(nil), r.prices[wd]...), nil
}

// All returns every complete consumption day.
func (r *Repository) All() []model.ConsumptionProfile {
	var out []model.ConsumptionProfile
	for _, days := range r.consumption {
		out = append(out, days...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayOfYear < out[j].DayOfYear })
	return out
}

// Stats returns load statistics.
func (r *Repository) Stats() Stats { return r.stats }

// DerivePmax returns the per-hour maximum over profiles.
func DerivePmax(profiles []model.ConsumptionProfile) model.Hourly {
	var pmax model.Hourly
	for i, p := range profiles {
		for h, v := range p.Values {
			if i == 0 || v > pmax[h] {
				pmax[h] = v
			}
		}
	}
	return pmax
}

// dayBucket accumulates the samples of one calendar day.
type dayBucket struct {
	weekday model.Weekday
	sum     model.Hourly
	count   [model.HoursPerDay]int
}

func (b *dayBucket) complete() bool {
	for _, c := range b.count {
		if c == 0 {
			return false
		}
	}
	return true
}

func (b *dayBucket) mean() model.Hourly {
	var m model.Hourly
	for h, c := range b.count {
		if c > 0 {
			m[h] = b.sum[h] / float64(c)
		}
	}
	return m
}

// bucket groups samples by day number, counted from 1 on 1 January of
// origin, so single-year tables use the calendar day of year.
func bucket(samples []sample, origin int, scale float64) map[int]*dayBucket {
	start := time.Date(origin, time.January, 1, 0, 0, 0, 0, time.UTC)
	out := map[int]*dayBucket{}
	for _, s := range samples {
		day := int(s.at.Sub(start).Hours()/24) + 1
		b, ok := out[day]
		if !ok {
			b = &dayBucket{weekday: model.WeekdayOf(s.at)}
			out[day] = b
		}
		if s.missing {
			continue
		}
		h := s.at.Hour()
		b.sum[h] += s.value * scale
		b.count[h]++
	}
	return out
}

func firstYear(tables []table) int {
	year := 0
	for _, t := range tables {
		for _, s := range t.samples {
			if year == 0 || s.at.Year() < year {
				year = s.at.Year()
			}
		}
	}
	return year
}

func sortedDays(m map[int]*dayBucket) []int {
	days := make([]int, 0, len(m))
	for d := range m {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}
