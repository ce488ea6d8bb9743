package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
)

// HoursPerDay is the number of hourly slots in a daily profile.
const HoursPerDay = 24

// Hourly holds one value per hour of the day, index 0 being 00:00-01:00.
type Hourly [HoursPerDay]float64

// Sum returns the sum over all hours.
func (h Hourly) Sum() float64 { return floats.Sum(h[:]) }

// Max returns the largest hourly value.
func (h Hourly) Max() float64 { return floats.Max(h[:]) }

// Weekday indexes the days of the week starting on Monday.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// DaysPerWeek is the number of weekdays processed by a weekly run.
const DaysPerWeek = 7

var weekdayNames = [DaysPerWeek]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Weekdays returns Monday..Sunday in order.
func Weekdays() []Weekday {
	out := make([]Weekday, DaysPerWeek)
	for i := range out {
		out[i] = Weekday(i)
	}
	return out
}

// WeekdayOf returns the weekday of t.
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % DaysPerWeek)
}

// Valid reports whether d is one of Monday..Sunday.
func (d Weekday) Valid() bool { return d >= Monday && d <= Sunday }

func (d Weekday) String() string {
	if !d.Valid() {
		return "unknown"
	}
	return weekdayNames[d]
}

// MarshalText encodes the weekday by name.
func (d Weekday) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid weekday %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText accepts a weekday name or its Monday-based index.
func (d *Weekday) UnmarshalText(b []byte) error {
	wd, err := ParseWeekday(string(b))
	if err != nil {
		return err
	}
	*d = wd
	return nil
}

// ParseWeekday parses a case-insensitive weekday name, a three-letter
// abbreviation or a Monday-based index.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		d := Weekday(n)
		if !d.Valid() {
			return 0, fmt.Errorf("weekday index out of range: %d", n)
		}
		return d, nil
	}
	for i, name := range weekdayNames {
		if strings.EqualFold(s, name) || (len(s) == 3 && strings.EqualFold(s, name[:3])) {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// Product identifies one of the two reserve-capacity markets.
type Product int

const (
	ProductUp Product = iota
	ProductDown
)

func (p Product) String() string {
	switch p {
	case ProductUp:
		return "up"
	case ProductDown:
		return "down"
	default:
		return "unknown"
	}
}

// ConsumptionProfile is one calendar day of hourly mean consumption.
type ConsumptionProfile struct {
	DayOfYear int     `json:"day_of_year"`
	Weekday   Weekday `json:"weekday"`
	Values    Hourly  `json:"values"`
}

// PriceProfile holds the Up and Down reserve prices of one calendar day.
type PriceProfile struct {
	DayOfYear int     `json:"day_of_year"`
	Weekday   Weekday `json:"weekday"`
	Up        Hourly  `json:"up"`
	Down      Hourly  `json:"down"`
}
