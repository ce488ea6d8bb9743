// Package report renders the blended schedules of a run as an HTML page of
// line charts.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/flexbid/core/model"
)

// FileName is the report written by WriteFile.
const FileName = "report.html"

type curve struct {
	title string
	unit  string
	value func(model.BlendedDay) model.Hourly
}

var curves = []curve{
	{"Blended Down bid", "MW", func(b model.BlendedDay) model.Hourly { return b.BidDown }},
	{"Blended Up bid", "MW", func(b model.BlendedDay) model.Hourly { return b.BidUp }},
	{"Expected Down income", "currency", func(b model.BlendedDay) model.Hourly { return b.IncomeDown }},
	{"Expected Up income", "currency", func(b model.BlendedDay) model.Hourly { return b.IncomeUp }},
}

func hours() []string {
	out := make([]string, model.HoursPerDay)
	for h := range out {
		out[h] = strconv.Itoa(h)
	}
	return out
}

// Charts builds one line chart per curve with a series per weekday.
func Charts(res model.WeekResult) []*charts.Line {
	var days []model.BlendedDay
	for _, d := range res.Days {
		if d.OK() {
			days = append(days, *d.Blend)
		}
	}
	out := make([]*charts.Line, 0, len(curves))
	for _, c := range curves {
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{Title: c.title, Subtitle: "run " + res.RunID}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
			charts.WithXAxisOpts(opts.XAxis{Name: "Hour"}),
			charts.WithYAxisOpts(opts.YAxis{Name: c.unit}),
		)
		line.SetXAxis(hours())
		for _, d := range days {
			values := c.value(d)
			data := make([]opts.LineData, len(values))
			for h, v := range values {
				data[h] = opts.LineData{Value: v}
			}
			line.AddSeries(d.Weekday.String(), data)
		}
		out = append(out, line)
	}
	return out
}

// Render writes the HTML report of res to w.
func Render(w io.Writer, res model.WeekResult) error {
	page := components.NewPage()
	page.SetPageTitle(fmt.Sprintf("Bids %s (income %.2f)", res.RunID, res.TotalIncome()))
	for _, c := range Charts(res) {
		page.AddCharts(c)
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// WriteFile renders the report into dir/FileName and returns its path.
func WriteFile(dir string, res model.WeekResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := Render(f, res); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
