package export

import (
	"strconv"
	"time"

	"github.com/kilianp07/flexbid/core/model"
)

// BidRow is one line of the per-scenario bid table.
type BidRow struct {
	Weekday    model.Weekday `json:"weekday" yaml:"weekday"`
	ScenarioID int           `json:"scenario_id" yaml:"scenario_id"`
	Hour       int           `json:"hour" yaml:"hour"`
	CD         float64       `json:"c_down" yaml:"c_down"`
	CU         float64       `json:"c_up" yaml:"c_up"`
}

func (BidRow) header() []string { return []string{"weekday", "scenario_id", "hour", "c_down", "c_up"} }

func (r BidRow) record() []string {
	return []string{r.Weekday.String(), strconv.Itoa(r.ScenarioID), strconv.Itoa(r.Hour), ftoa(r.CD), ftoa(r.CU)}
}

// BlendRow is one line of the blended schedule table.
type BlendRow struct {
	Weekday    model.Weekday `json:"weekday" yaml:"weekday"`
	Hour       int           `json:"hour" yaml:"hour"`
	BidDown    float64       `json:"bid_down" yaml:"bid_down"`
	BidUp      float64       `json:"bid_up" yaml:"bid_up"`
	IncomeDown float64       `json:"income_down" yaml:"income_down"`
	IncomeUp   float64       `json:"income_up" yaml:"income_up"`
}

func (BlendRow) header() []string {
	return []string{"weekday", "hour", "bid_down", "bid_up", "income_down", "income_up"}
}

func (r BlendRow) record() []string {
	return []string{r.Weekday.String(), strconv.Itoa(r.Hour), ftoa(r.BidDown), ftoa(r.BidUp), ftoa(r.IncomeDown), ftoa(r.IncomeUp)}
}

// PriceRow is one line of a downloaded price table, in the layout read back
// by the profile loader.
type PriceRow struct {
	Time  time.Time `json:"time" yaml:"time"`
	Price float64   `json:"price" yaml:"price"`
}

func (PriceRow) header() []string { return []string{"time", "price"} }

func (r PriceRow) record() []string {
	return []string{r.Time.UTC().Format(time.RFC3339), ftoa(r.Price)}
}

// ScenarioRow is one line of the scenario table.
type ScenarioRow struct {
	Weekday     model.Weekday `json:"weekday" yaml:"weekday"`
	ScenarioID  int           `json:"scenario_id" yaml:"scenario_id"`
	Weight      float64       `json:"weight" yaml:"weight"`
	Hour        int           `json:"hour" yaml:"hour"`
	Centroid    float64       `json:"centroid" yaml:"centroid"`
	Pmin        float64       `json:"pmin" yaml:"pmin"`
	Q10         float64       `json:"q10" yaml:"q10"`
	Q90         float64       `json:"q90" yaml:"q90"`
	UpReserve   float64       `json:"up_reserve" yaml:"up_reserve"`
	DownReserve float64       `json:"down_reserve" yaml:"down_reserve"`
	PriceUp     float64       `json:"price_up" yaml:"price_up"`
	PriceDown   float64       `json:"price_down" yaml:"price_down"`
}

func (ScenarioRow) header() []string {
	return []string{"weekday", "scenario_id", "weight", "hour", "centroid", "pmin", "q10", "q90",
		"up_reserve", "down_reserve", "price_up", "price_down"}
}

func (r ScenarioRow) record() []string {
	return []string{r.Weekday.String(), strconv.Itoa(r.ScenarioID), ftoa(r.Weight), strconv.Itoa(r.Hour),
		ftoa(r.Centroid), ftoa(r.Pmin), ftoa(r.Q10), ftoa(r.Q90),
		ftoa(r.UpReserve), ftoa(r.DownReserve), ftoa(r.PriceUp), ftoa(r.PriceDown)}
}

// DayRow summarises one weekday of a run.
type DayRow struct {
	Weekday model.Weekday `json:"weekday" yaml:"weekday"`
	Status  string        `json:"status" yaml:"status"`
	Income  float64       `json:"income" yaml:"income"`
	Error   string        `json:"error,omitempty" yaml:"error,omitempty"`
}

func (DayRow) header() []string { return []string{"weekday", "status", "income", "error"} }

func (r DayRow) record() []string {
	return []string{r.Weekday.String(), r.Status, ftoa(r.Income), r.Error}
}

// Summary is the weekly income report of a run.
type Summary struct {
	RunID       string   `json:"run_id" yaml:"run_id"`
	TotalIncome float64  `json:"total_income" yaml:"total_income"`
	Days        []DayRow `json:"days" yaml:"days"`
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// BidRows flattens the per-scenario bids of the successful weekdays.
func BidRows(res model.WeekResult) []BidRow {
	var rows []BidRow
	for _, d := range res.Days {
		if !d.OK() || d.Solution == nil {
			continue
		}
		for s, hours := range d.Solution.PerScenario {
			for h, b := range hours {
				rows = append(rows, BidRow{Weekday: d.Weekday, ScenarioID: s, Hour: h, CD: b.CD, CU: b.CU})
			}
		}
	}
	return rows
}

// BlendRows flattens the blended schedules of the successful weekdays.
func BlendRows(res model.WeekResult) []BlendRow {
	var rows []BlendRow
	for _, d := range res.Days {
		if d.OK() {
			rows = append(rows, blendRows(*d.Blend)...)
		}
	}
	return rows
}

func blendRows(b model.BlendedDay) []BlendRow {
	rows := make([]BlendRow, model.HoursPerDay)
	for h := range rows {
		rows[h] = BlendRow{
			Weekday:    b.Weekday,
			Hour:       h,
			BidDown:    b.BidDown[h],
			BidUp:      b.BidUp[h],
			IncomeDown: b.IncomeDown[h],
			IncomeUp:   b.IncomeUp[h],
		}
	}
	return rows
}

// ScenarioRows flattens scenario sets into one row per scenario and hour.
func ScenarioRows(sets []model.ScenarioSet) []ScenarioRow {
	var rows []ScenarioRow
	for _, set := range sets {
		for i, sc := range set.Scenarios {
			var price model.ScenarioPrice
			if i < len(set.Prices) {
				price = set.Prices[i]
			}
			for h := 0; h < model.HoursPerDay; h++ {
				rows = append(rows, ScenarioRow{
					Weekday:     set.Weekday,
					ScenarioID:  sc.ID,
					Weight:      sc.Weight,
					Hour:        h,
					Centroid:    sc.Centroid[h],
					Pmin:        sc.Bounds.Pmin[h],
					Q10:         sc.Bounds.Q10[h],
					Q90:         sc.Bounds.Q90[h],
					UpReserve:   sc.Bounds.UpReserve[h],
					DownReserve: sc.Bounds.DownReserve[h],
					PriceUp:     price.Up[h],
					PriceDown:   price.Down[h],
				})
			}
		}
	}
	return rows
}

// ScenarioSets returns the scenario sets computed during res.
func ScenarioSets(res model.WeekResult) []model.ScenarioSet {
	var sets []model.ScenarioSet
	for _, d := range res.Days {
		if d.Scenarios != nil {
			sets = append(sets, *d.Scenarios)
		}
	}
	return sets
}

// Summarize builds the weekly income report of res.
func Summarize(res model.WeekResult) Summary {
	s := Summary{RunID: res.RunID, TotalIncome: res.TotalIncome()}
	for _, d := range res.Days {
		row := DayRow{Weekday: d.Weekday, Status: "ok"}
		switch {
		case d.OK():
			if d.Solution != nil {
				row.Income = d.Solution.Income
			}
		case d.Err != nil:
			row.Status = "failed"
			if k, ok := model.KindOf(d.Err); ok {
				row.Status = k.String()
			}
			row.Error = d.Err.Error()
		default:
			row.Status = "failed"
		}
		s.Days = append(s.Days, row)
	}
	return s
}
