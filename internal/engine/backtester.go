// Package engine runs the day-stepped option strategy simulation: it walks
// a daily price series, marks open positions, applies exit rules and costs,
// opens new positions, and produces the equity curve, trade list and
// performance report.
package engine

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/eddiefleurent/schrute_bucks/internal/config"
	"github.com/eddiefleurent/schrute_bucks/internal/metrics"
	"github.com/eddiefleurent/schrute_bucks/internal/models"
	"github.com/eddiefleurent/schrute_bucks/internal/pricing"
	"github.com/eddiefleurent/schrute_bucks/internal/series"
	"github.com/eddiefleurent/schrute_bucks/internal/sizing"
	"github.com/eddiefleurent/schrute_bucks/internal/util"
	"github.com/sirupsen/logrus"
)

const (
	daysPerYear = 365.25
	// strikeTick is the price increment strikes are rounded to.
	strikeTick = 0.01
	// jitterAmplitude bounds the uniform execution-price noise.
	jitterAmplitude = 0.0005
	// minTimeToExpiry keeps the entry pricing year fraction positive.
	minTimeToExpiry = 1e-6
)

// ErrEmptyPrices indicates the price series holds no observations.
var ErrEmptyPrices = errors.New("price series is empty")

// Result bundles everything one run produces. Config is the configuration
// that shaped the run; Benchmark is nil when the overlay is disabled or its
// data was unavailable.
type Result struct {
	Equity    *series.Series
	Trades    []models.TradeRecord
	Stats     metrics.Metrics
	Config    *config.Config
	Benchmark *series.Series
}

// Backtester executes runs for one configuration. It is not safe for
// concurrent use; sweeps construct one per goroutine.
type Backtester struct {
	cfg    *config.Config
	logger *logrus.Logger
	sizer  sizing.Sizer
	noise  models.NoiseFunc
}

// New creates a Backtester. A non-zero simulation seed enables a small
// deterministic execution-price jitter on every mark; seed 0 disables it.
func New(cfg *config.Config, logger *logrus.Logger) *Backtester {
	if logger == nil {
		logger = logrus.New()
	}
	b := &Backtester{
		cfg:    cfg,
		logger: logger,
		sizer:  sizing.Sizer{Policy: cfg.Sizing.Policy},
	}
	if seed := cfg.Simulation.Seed; seed != 0 {
		rng := rand.New(rand.NewSource(seed)) // #nosec G404 -- simulation jitter, not security
		b.noise = func() float64 {
			return (rng.Float64()*2 - 1) * jitterAmplitude
		}
	}
	return b
}

// Run simulates the configured strategy over prices. vols is the base
// volatility series aligned positionally with prices; nil derives it from
// realized volatility. benchmark, when enabled and non-nil, is scaled to
// the starting equity for overlay comparison; benchmark problems are
// logged, never fatal.
func (b *Backtester) Run(prices, vols, benchmark *series.Series) (*Result, error) {
	if prices.Empty() {
		return nil, ErrEmptyPrices
	}
	if vols == nil {
		vols = series.RealizedVol(prices, series.DefaultVolWindow)
	}
	if vols.Len() != prices.Len() {
		return nil, fmt.Errorf("vol series length %d does not match price series length %d", vols.Len(), prices.Len())
	}

	var (
		bt         = b.cfg.Backtest
		rf         = bt.RiskFreeRate
		cash       = bt.Capital
		positions  []*models.Position
		trades     []models.TradeRecord
		eqDates    = make([]time.Time, 0, prices.Len()+1)
		eqValues   = make([]float64, 0, prices.Len()+1)
		slippage   = b.cfg.Simulation.SlippagePerContract
		volPremium = b.cfg.Simulation.VolPremium
	)

	// Synthetic day-zero point pins the curve at the starting capital.
	firstDate, _ := prices.First()
	eqDates = append(eqDates, firstDate.AddDate(0, 0, -1))
	eqValues = append(eqValues, cash)

	for i := 0; i < prices.Len(); i++ {
		today := prices.Date(i)
		spot := prices.Value(i)
		sigma := vols.Value(i) * volPremium

		if len(positions) > 0 {
			open := positions[:0]
			for _, pos := range positions {
				pos.UpdateAndMaybeClose(spot, today, rf, sigma)
				if !pos.Closed {
					open = append(open, pos)
					continue
				}
				contracts := pos.Contracts()
				pos.PnL -= bt.CommissionPerContract*float64(contracts) + slippage*float64(contracts)
				trades = append(trades, pos.Summary())
				cash += pos.PnL
			}
			positions = open
		}

		eqDates = append(eqDates, today)
		eqValues = append(eqValues, cash)

		expiry := findExpiry(prices, today, bt.DTETarget)
		legs, credit := b.buildLegs(spot, sigma, rf)
		if credit <= 0 {
			continue
		}

		size := b.sizer.Size(cash, b.cfg.AllocationFraction(), legs)
		if size == 0 {
			continue
		}
		for _, leg := range legs {
			leg.Quantity = size
			leg.Noise = b.noise
		}

		pos := models.NewPosition(today, expiry, legs,
			b.cfg.ProfitTargetFraction(), bt.StopLossMult, spot, sigma, rf)
		if pos.HasNearZeroCredit() {
			b.logger.WithFields(logrus.Fields{
				"date":   today.Format("2006-01-02"),
				"credit": pos.InitialCredit,
			}).Warn("Position opened with near-zero credit; PnL exits disabled")
		}
		positions = append(positions, pos)
	}

	equity, err := series.New(eqDates, eqValues)
	if err != nil {
		return nil, fmt.Errorf("building equity curve: %w", err)
	}

	res := &Result{
		Equity: equity,
		Trades: trades,
		Stats:  metrics.Summary(equity, trades, rf, b.cfg.Strategy.Type),
		Config: b.cfg,
	}
	if b.cfg.UseBenchmark() {
		res.Benchmark = scaleBenchmark(equity, benchmark, b.logger)
	}
	return res, nil
}

// buildLegs constructs the candidate legs for an entry at the given market
// state and returns the net per-share credit. Entry prices come from the
// unskewed model with half the bid/ask spread charged against each side:
// shorts sell below mid, longs buy above it.
func (b *Backtester) buildLegs(spot, sigma, rf float64) ([]*models.Leg, float64) {
	t := math.Max(minTimeToExpiry, float64(b.cfg.Backtest.DTETarget)/daysPerYear)
	halfSpread := b.cfg.Simulation.SpreadPct / 2

	if b.cfg.Strategy.Type == config.StrategyCustomManual {
		legs := make([]*models.Leg, 0, len(b.cfg.Strategy.CustomLegs))
		credit := 0.0
		for _, spec := range b.cfg.Strategy.CustomLegs {
			dir := models.Long
			if spec.Direction == "short" {
				dir = models.Short
			}
			typ := pricing.Call
			if spec.Type == "put" {
				typ = pricing.Put
			}
			prem := pricing.Price(spot, spec.Strike, t, rf, sigma, typ)
			if dir == models.Short {
				prem *= 1 - halfSpread
			} else {
				prem *= 1 + halfSpread
			}
			credit -= float64(dir) * prem
			legs = append(legs, &models.Leg{
				Strike:     spec.Strike,
				Type:       typ,
				Direction:  dir,
				Quantity:   spec.Quantity,
				EntryPrice: prem,
			})
		}
		return legs, credit
	}

	shortK := shortPutStrike(spot, b.cfg.Strategy.ShortPutPctOTM)
	shortPrem := pricing.Price(spot, shortK, t, rf, sigma, pricing.Put) * (1 - halfSpread)
	legs := []*models.Leg{{
		Strike:     shortK,
		Type:       pricing.Put,
		Direction:  models.Short,
		Quantity:   1,
		EntryPrice: shortPrem,
	}}
	credit := shortPrem

	if b.cfg.Strategy.Type == config.StrategyPutSpread {
		longK := longPutStrike(spot, shortK, b.cfg.Strategy.SpreadWidthPct)
		longPrem := pricing.Price(spot, longK, t, rf, sigma, pricing.Put) * (1 + halfSpread)
		legs = append(legs, &models.Leg{
			Strike:     longK,
			Type:       pricing.Put,
			Direction:  models.Long,
			Quantity:   1,
			EntryPrice: longPrem,
		})
		credit -= longPrem
	}
	return legs, credit
}

// shortPutStrike places the short put otmPct below spot, rounded to tick.
func shortPutStrike(spot, otmPct float64) float64 {
	return util.RoundToTick(spot*(1-otmPct), strikeTick)
}

// longPutStrike places the hedge widthPct of spot below the short strike,
// clamped strictly below it so the spread never degenerates.
func longPutStrike(spot, shortK, widthPct float64) float64 {
	longK := util.RoundToTick(shortK-spot*widthPct, strikeTick)
	return math.Min(longK, shortK-strikeTick)
}

// findExpiry returns the first trading date at least dte calendar days
// after today, falling back to the final date near the end of the series.
func findExpiry(prices *series.Series, today time.Time, dte int) time.Time {
	approx := today.AddDate(0, 0, dte)
	idx := prices.SearchDate(approx)
	if idx < prices.Len() {
		return prices.Date(idx)
	}
	last, _ := prices.Last()
	return last
}

// scaleBenchmark rescales the benchmark closes so they start at the
// strategy's initial equity. Missing or empty data just disables the
// overlay.
func scaleBenchmark(equity, benchmark *series.Series, logger *logrus.Logger) *series.Series {
	if benchmark.Empty() {
		return nil
	}
	base := benchmark.Value(0)
	if base <= 0 {
		logger.WithField("value", base).Warn("Benchmark starts at a non-positive price; overlay disabled")
		return nil
	}
	start := equity.Value(0)
	values := make([]float64, benchmark.Len())
	for i := 0; i < benchmark.Len(); i++ {
		values[i] = start * benchmark.Value(i) / base
	}
	scaled, err := series.New(benchmark.Dates(), values)
	if err != nil {
		logger.WithError(err).Warn("Benchmark scaling failed; overlay disabled")
		return nil
	}
	return scaled
}
