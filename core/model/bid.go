package model

import "time"

// BidDecision is the solved bid of one scenario and hour.
type BidDecision struct {
	Weekday    Weekday `json:"weekday"`
	ScenarioID int     `json:"scenario_id"`
	Hour       int     `json:"hour"`
	CD         float64 `json:"c_down"`
	CU         float64 `json:"c_up"`
	ZD         bool    `json:"z_down"`
	ZU         bool    `json:"z_up"`
}

// DaySolution is the optimizer output for one weekday.
type DaySolution struct {
	Weekday     Weekday                    `json:"weekday"`
	PerScenario [][HoursPerDay]BidDecision `json:"per_scenario"`
	Income      float64                    `json:"income"`
	Attempts    int                        `json:"attempts"`
	Nodes       int                        `json:"nodes"`
}

// Down returns the Down bid vectors per scenario.
func (d DaySolution) Down() []Hourly {
	out := make([]Hourly, len(d.PerScenario))
	for s, row := range d.PerScenario {
		for h, b := range row {
			out[s][h] = b.CD
		}
	}
	return out
}

// Up returns the Up bid vectors per scenario.
func (d DaySolution) Up() []Hourly {
	out := make([]Hourly, len(d.PerScenario))
	for s, row := range d.PerScenario {
		for h, b := range row {
			out[s][h] = b.CU
		}
	}
	return out
}

// BlendedDay is the probability-weighted bid and income curve of a weekday.
type BlendedDay struct {
	Weekday    Weekday `json:"weekday"`
	BidDown    Hourly  `json:"bid_down"`
	BidUp      Hourly  `json:"bid_up"`
	IncomeDown Hourly  `json:"income_down"`
	IncomeUp   Hourly  `json:"income_up"`
}

// Income returns the blended income summed over hours and products.
func (b BlendedDay) Income() float64 { return b.IncomeDown.Sum() + b.IncomeUp.Sum() }

// DayOutcome collects everything computed for one weekday. Err is set when
// the weekday failed; the other fields hold whatever completed before.
type DayOutcome struct {
	Weekday   Weekday       `json:"weekday"`
	Scenarios *ScenarioSet  `json:"scenarios,omitempty"`
	Solution  *DaySolution  `json:"solution,omitempty"`
	Blend     *BlendedDay   `json:"blend,omitempty"`
	Err       error         `json:"-"`
	Duration  time.Duration `json:"duration"`
}

// OK reports whether the weekday produced a blended schedule.
func (o DayOutcome) OK() bool { return o.Err == nil && o.Blend != nil }

// WeekResult is the output of one weekly run.
type WeekResult struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Days       []DayOutcome `json:"days"`
}

// TotalIncome sums the income of the weekdays that succeeded.
func (w WeekResult) TotalIncome() float64 {
	var total float64
	for _, d := range w.Days {
		if d.OK() && d.Solution != nil {
			total += d.Solution.Income
		}
	}
	return total
}

// Failed returns the weekdays that did not complete.
func (w WeekResult) Failed() []DayOutcome {
	var out []DayOutcome
	for _, d := range w.Days {
		if !d.OK() {
			out = append(out, d)
		}
	}
	return out
}
