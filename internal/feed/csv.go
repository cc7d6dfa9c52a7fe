package feed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/eddiefleurent/schrute_bucks/internal/series"
	"github.com/gocarina/gocsv"
)

// csvRow is one line of a price file. Only the date and close columns are
// read; anything else in the file is ignored by the field mapping.
type csvRow struct {
	Date  string  `csv:"date"`
	Close float64 `csv:"close"`
}

// CSVProvider reads daily closes from <dir>/<SYMBOL>.csv files with a
// date,close header. Duplicate dates keep the first occurrence.
type CSVProvider struct {
	dir string
}

// Compile-time check that CSVProvider satisfies Provider.
var _ Provider = (*CSVProvider)(nil)

// NewCSVProvider creates a provider rooted at dir.
func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

// Prices loads the symbol's file and returns the closes within [start, end].
func (p *CSVProvider) Prices(ctx context.Context, symbol string, start, end time.Time) (*series.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	path := filepath.Join(p.dir, symbol+".csv")
	f, err := os.Open(path) // #nosec G304 -- path is derived from the configured data dir
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &RangeError{Symbol: symbol, Start: start, End: end}
		}
		return nil, fmt.Errorf("opening price file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var rows []csvRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	type bar struct {
		date  time.Time
		close float64
	}
	bars := make([]bar, 0, len(rows))
	for i, row := range rows {
		d, err := time.Parse("2006-01-02", strings.TrimSpace(row.Date))
		if err != nil {
			return nil, fmt.Errorf("parsing %s row %d: %w", path, i+1, err)
		}
		bars = append(bars, bar{date: d, close: row.Close})
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].date.Before(bars[j].date) })

	dates := make([]time.Time, 0, len(bars))
	values := make([]float64, 0, len(bars))
	for _, b := range bars {
		if len(dates) > 0 && !b.date.After(dates[len(dates)-1]) {
			continue
		}
		dates = append(dates, b.date)
		values = append(values, b.close)
	}

	full, err := series.New(dates, values)
	if err != nil {
		return nil, fmt.Errorf("building series from %s: %w", path, err)
	}

	window := full.Slice(start, end)
	if window.Empty() {
		return nil, &RangeError{Symbol: symbol, Start: start, End: end}
	}
	return window, nil
}
