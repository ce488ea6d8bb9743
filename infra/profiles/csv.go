package profiles

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// sample is one timestamped reading of a CSV table.
type sample struct {
	at    time.Time
	value float64
	// missing marks an empty value cell.
	missing bool
}

var defaultLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

var dayFirstLayouts = []string{
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
}

var monthFirstLayouts = []string{
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
}

// timeParser parses timestamps in UTC with an explicit layout or a list of
// common ones.
type timeParser struct {
	layouts []string
}

func newTimeParser(layout string, dayFirst bool) timeParser {
	if layout != "" {
		return timeParser{layouts: []string{layout}}
	}
	layouts := append([]string(nil), defaultLayouts...)
	if dayFirst {
		layouts = append(layouts, dayFirstLayouts...)
	} else {
		layouts = append(layouts, monthFirstLayouts...)
	}
	return timeParser{layouts: layouts}
}

func (p timeParser) parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range p.layouts {
		if t, err := time.ParseInLocation(l, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// table is the parsed content of one CSV file.
type table struct {
	samples []sample
	rows    int
	skipped []string
}

// readTable reads a two-column CSV (time and value) whose value header is
// valueCol. Malformed rows are skipped and reported; a missing header is an
// error.
func readTable(r io.Reader, valueCol string, tp timeParser) (table, error) {
	var t table
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return t, fmt.Errorf("empty table")
		}
		return t, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range headers {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	ti, ok := col["time"]
	if !ok {
		return t, fmt.Errorf("missing required header: time")
	}
	vi, ok := col[valueCol]
	if !ok {
		return t, fmt.Errorf("missing required header: %s", valueCol)
	}

	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		t.rows++
		if err != nil {
			t.skipped = append(t.skipped, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		if ti >= len(rec) {
			t.skipped = append(t.skipped, fmt.Sprintf("line %d: missing time", line))
			continue
		}
		at, err := tp.parse(rec[ti])
		if err != nil {
			t.skipped = append(t.skipped, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		s := sample{at: at, missing: true}
		if vi < len(rec) && strings.TrimSpace(rec[vi]) != "" {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[vi]), 64)
			if err != nil {
				t.skipped = append(t.skipped, fmt.Sprintf("line %d: %v", line, err))
				continue
			}
			s.value, s.missing = v, false
		}
		t.samples = append(t.samples, s)
	}
	return t, nil
}
