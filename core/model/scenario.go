package model

import "fmt"

// Bounds are the operating limits derived for one scenario.
type Bounds struct {
	Pmin        Hourly `json:"pmin"`
	Q10         Hourly `json:"q10"`
	Q90         Hourly `json:"q90"`
	UpReserve   Hourly `json:"up_reserve"`
	DownReserve Hourly `json:"down_reserve"`
}

// Scenario is a representative daily consumption shape for a weekday.
type Scenario struct {
	Weekday    Weekday `json:"weekday"`
	ID         int     `json:"scenario_id"`
	Centroid   Hourly  `json:"centroid"`
	Weight     float64 `json:"weight"`
	MemberDays []int   `json:"member_days"`
	Bounds     Bounds  `json:"bounds"`
}

// ScenarioPrice holds the expected hourly prices of a scenario, averaged
// over its member days.
type ScenarioPrice struct {
	Weekday    Weekday `json:"weekday"`
	ScenarioID int     `json:"scenario_id"`
	Up         Hourly  `json:"up"`
	Down       Hourly  `json:"down"`
}

// BoundAnomaly records a negative reserve bandwidth.
type BoundAnomaly struct {
	Weekday  Weekday `json:"weekday"`
	Scenario int     `json:"scenario_id"`
	Hour     int     `json:"hour"`
	Product  Product `json:"product"`
	Value    float64 `json:"value"`
}

func (a BoundAnomaly) String() string {
	return fmt.Sprintf("%s scenario %d hour %d: negative %s reserve %.6g", a.Weekday, a.Scenario, a.Hour, a.Product, a.Value)
}

// ScenarioSet is the Scenario Builder output for one weekday.
type ScenarioSet struct {
	Weekday    Weekday         `json:"weekday"`
	Scenarios  []Scenario      `json:"scenarios"`
	Prices     []ScenarioPrice `json:"prices"`
	Anomalies  []BoundAnomaly  `json:"anomalies,omitempty"`
	Inertia    float64         `json:"inertia"`
	Iterations int             `json:"iterations"`
}

// Weights returns the scenario weights in scenario order.
func (s ScenarioSet) Weights() []float64 {
	w := make([]float64, len(s.Scenarios))
	for i, sc := range s.Scenarios {
		w[i] = sc.Weight
	}
	return w
}
