package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/flexbid/core/model"
)

// Row is a table line with a fixed CSV layout.
type Row interface {
	BidRow | BlendRow | ScenarioRow | DayRow | PriceRow
	header() []string
	record() []string
}

// WriteCSV writes rows with a header line.
func WriteCSV[R Row](w io.Writer, rows []R) error {
	cw := csv.NewWriter(w)
	var zero R
	if err := cw.Write(zero.header()); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML writes v as a YAML document.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Write encodes rows in format f.
func Write[R Row](w io.Writer, f Format, rows []R) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatJSON:
		return WriteJSON(w, rows)
	case FormatYAML:
		return WriteYAML(w, rows)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// Table file names, without extension.
const (
	BidsFile      = "bids"
	BlendedFile   = "blended"
	ScenariosFile = "scenarios"
	SummaryFile   = "summary"
)

// WriteRun writes the bid, blended, scenario and summary tables of res into
// dir and returns the created paths.
func WriteRun(dir string, f Format, res model.WeekResult) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var paths []string
	steps := []struct {
		name  string
		write func(io.Writer) error
	}{
		{BidsFile, func(w io.Writer) error { return Write(w, f, BidRows(res)) }},
		{BlendedFile, func(w io.Writer) error { return Write(w, f, BlendRows(res)) }},
		{ScenariosFile, func(w io.Writer) error { return Write(w, f, ScenarioRows(ScenarioSets(res))) }},
		{SummaryFile, func(w io.Writer) error { return writeSummary(w, f, Summarize(res)) }},
	}
	for _, s := range steps {
		p, err := writeFile(dir, s.name, f, s.write)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// WriteScenarios writes only the scenario table of sets into dir.
func WriteScenarios(dir string, f Format, sets []model.ScenarioSet) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return writeFile(dir, ScenariosFile, f, func(w io.Writer) error {
		return Write(w, f, ScenarioRows(sets))
	})
}

// writeSummary appends a total line in CSV; structured formats carry the
// total as a field.
func writeSummary(w io.Writer, f Format, s Summary) error {
	switch f {
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(DayRow{}.header()); err != nil {
			return err
		}
		for _, r := range s.Days {
			if err := cw.Write(r.record()); err != nil {
				return err
			}
		}
		if err := cw.Write([]string{"total", "", ftoa(s.TotalIncome), ""}); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	case FormatJSON:
		return WriteJSON(w, s)
	case FormatYAML:
		return WriteYAML(w, s)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

func writeFile(dir, name string, f Format, write func(io.Writer) error) (string, error) {
	path := filepath.Join(dir, name+f.Ext())
	fh, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := write(fh); err != nil {
		fh.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, fh.Close()
}
