// Package feed loads historical price series for the simulation.
package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eddiefleurent/schrute_bucks/internal/series"
)

// ErrNoData indicates the provider holds no prices for the requested
// symbol and range.
var ErrNoData = errors.New("no price data")

// Provider supplies daily close prices for a symbol over a date range,
// inclusive on both ends.
type Provider interface {
	Prices(ctx context.Context, symbol string, start, end time.Time) (*series.Series, error)
}

// RangeError decorates ErrNoData with the request that failed.
type RangeError struct {
	Symbol string
	Start  time.Time
	End    time.Time
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("no price data for %s between %s and %s",
		e.Symbol, e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"))
}

// Unwrap lets errors.Is(err, ErrNoData) match.
func (e *RangeError) Unwrap() error { return ErrNoData }
