package market

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kilianp07/flexbid/pkg/export"
)

// DefaultChunk is the widest date range requested at once.
const DefaultChunk = 7 * 24 * time.Hour

// Download fetches [start, end) in chunks and returns one row per delivery
// hour. Periods longer than an hour are repeated on every hour they cover;
// points already seen in an earlier chunk are dropped.
func Download(ctx context.Context, src Source, start, end time.Time, chunk time.Duration) ([]export.PriceRow, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("end %s is not after start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	if chunk <= 0 {
		chunk = DefaultChunk
	}
	seen := make(map[time.Time]bool)
	var rows []export.PriceRow
	for from := start; from.Before(end); from = from.Add(chunk) {
		to := from.Add(chunk)
		if to.After(end) {
			to = end
		}
		pts, err := src.Fetch(ctx, from, to)
		if err != nil {
			return rows, fmt.Errorf("fetch %s..%s: %w", from.Format(time.DateOnly), to.Format(time.DateOnly), err)
		}
		for _, p := range pts {
			if seen[p.Start] || p.Start.Before(start) || !p.Start.Before(end) {
				continue
			}
			seen[p.Start] = true
			rows = append(rows, hourly(p)...)
		}
	}
	return rows, nil
}

func hourly(p Point) []export.PriceRow {
	if !p.End.After(p.Start.Add(time.Hour)) {
		return []export.PriceRow{{Time: p.Start, Price: p.Price}}
	}
	var out []export.PriceRow
	for t := p.Start; t.Before(p.End); t = t.Add(time.Hour) {
		out = append(out, export.PriceRow{Time: t, Price: p.Price})
	}
	return out
}

// WriteTable writes rows as a time,price CSV file at path.
func WriteTable(path string, rows []export.PriceRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteCSV(f, rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
