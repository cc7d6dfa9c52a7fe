package storage

import (
	"time"

	"github.com/eddiefleurent/schrute_bucks/internal/config"
	"github.com/eddiefleurent/schrute_bucks/internal/engine"
	"github.com/eddiefleurent/schrute_bucks/internal/metrics"
	"github.com/eddiefleurent/schrute_bucks/internal/models"
)

// EquityPoint is one (date, value) pair of a persisted equity curve.
type EquityPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Analysis is a persisted backtest run: the inputs that shaped it and
// everything needed to redraw its results.
type Analysis struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`

	Underlying string              `json:"underlying"`
	Strategy   config.StrategyType `json:"strategy"`
	Start      string              `json:"start"`
	End        string              `json:"end"`

	Stats  metrics.Metrics      `json:"stats"`
	Trades []models.TradeRecord `json:"trades"`
	Equity []EquityPoint        `json:"equity"`
}

// FromResult snapshots a completed run under the given name.
func FromResult(name string, cfg *config.Config, res *engine.Result) Analysis {
	a := Analysis{
		Name:       name,
		CreatedAt:  time.Now().UTC(),
		Underlying: cfg.Backtest.Underlying,
		Strategy:   cfg.Strategy.Type,
		Start:      cfg.Backtest.Start,
		End:        cfg.Backtest.End,
		Stats:      res.Stats,
		Trades:     res.Trades,
	}
	for i := 0; i < res.Equity.Len(); i++ {
		a.Equity = append(a.Equity, EquityPoint{Date: res.Equity.Date(i), Value: res.Equity.Value(i)})
	}
	return a
}
