// Package metrics computes performance statistics from an equity curve and
// a closed-trade list. Every function is total: empty input yields a zero
// report, never a panic.
package metrics

import (
	"math"

	"github.com/eddiefleurent/schrute_bucks/internal/config"
	"github.com/eddiefleurent/schrute_bucks/internal/models"
	"github.com/eddiefleurent/schrute_bucks/internal/series"
)

const (
	tradingDaysPerYear = 252.0
	calendarDaysPerYear = 365.25
)

// Metrics is the full performance report for one backtest run.
type Metrics struct {
	StartValue     float64 `json:"start_value"`
	EndValue       float64 `json:"end_value"`
	TotalReturn    float64 `json:"total_return"`
	TotalReturnPct float64 `json:"total_return_pct"`
	CAGRPct        float64 `json:"cagr_pct"`
	VolatilityPct  float64 `json:"volatility_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	SortinoRatio   float64 `json:"sortino_ratio"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	UlcerIndex     float64 `json:"ulcer_index"`
	ProfitFactor   float64 `json:"profit_factor"`
	WinRatePct     float64 `json:"win_rate_pct"`
	TradesCount    int     `json:"trades_count"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	GrossProfit    float64 `json:"gross_profit"`
	GrossLoss      float64 `json:"gross_loss"`
	AvgWin         float64 `json:"avg_win"`
	AvgLoss        float64 `json:"avg_loss"`
	Expectancy     float64 `json:"expectancy"`
	BestTrade      float64 `json:"best_trade"`
	WorstTrade     float64 `json:"worst_trade"`
	// UnlimitedRisk flags strategies whose worst-case loss is unbounded.
	UnlimitedRisk bool `json:"unlimited_risk"`
}

// Summary computes the full report. riskFreeRate is annualized; strat
// determines the unlimited-risk flag.
func Summary(equity *series.Series, trades []models.TradeRecord, riskFreeRate float64, strat config.StrategyType) Metrics {
	m := Metrics{UnlimitedRisk: strat.UnlimitedRisk()}
	m.tradeStats(trades)

	if equity.Len() < 2 {
		if equity.Len() == 1 {
			m.StartValue = equity.Value(0)
			m.EndValue = equity.Value(0)
		}
		m.sanitize()
		return m
	}

	values := equity.Values()
	m.StartValue = values[0]
	m.EndValue = values[len(values)-1]
	m.TotalReturn = m.EndValue - m.StartValue
	if m.StartValue != 0 {
		m.TotalReturnPct = (m.EndValue/m.StartValue - 1) * 100
	}

	firstDate, _ := equity.First()
	lastDate, _ := equity.Last()
	days := lastDate.Sub(firstDate).Hours() / 24
	if days < 1 {
		days = 1
	}
	years := days / calendarDaysPerYear
	if m.StartValue > 0 && m.EndValue > 0 {
		m.CAGRPct = (math.Pow(m.EndValue/m.StartValue, 1/years) - 1) * 100
	}

	returns := dailyReturns(values)
	mean, std := meanStd(returns)
	m.VolatilityPct = std * math.Sqrt(tradingDaysPerYear) * 100

	annualized := mean * tradingDaysPerYear
	if vol := std * math.Sqrt(tradingDaysPerYear); vol > 0 {
		m.SharpeRatio = (annualized - riskFreeRate) / vol
	}

	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	_, dstd := meanStd(downside)
	if dvol := dstd * math.Sqrt(tradingDaysPerYear); dvol > 0 {
		m.SortinoRatio = (annualized - riskFreeRate) / dvol
	} else {
		m.SortinoRatio = math.Inf(1)
	}

	m.MaxDrawdown, m.MaxDrawdownPct, m.UlcerIndex = drawdownStats(values)

	m.sanitize()
	return m
}

func (m *Metrics) tradeStats(trades []models.TradeRecord) {
	m.TradesCount = len(trades)
	if len(trades) == 0 {
		return
	}

	var totalPnL float64
	m.BestTrade = math.Inf(-1)
	m.WorstTrade = math.Inf(1)
	for _, tr := range trades {
		totalPnL += tr.PnL
		if tr.PnL > 0 {
			m.Wins++
			m.GrossProfit += tr.PnL
		} else if tr.PnL < 0 {
			m.Losses++
			m.GrossLoss += -tr.PnL
		}
		if tr.PnL > m.BestTrade {
			m.BestTrade = tr.PnL
		}
		if tr.PnL < m.WorstTrade {
			m.WorstTrade = tr.PnL
		}
	}

	m.WinRatePct = float64(m.Wins) / float64(m.TradesCount) * 100
	m.Expectancy = totalPnL / float64(m.TradesCount)
	if m.Wins > 0 {
		m.AvgWin = m.GrossProfit / float64(m.Wins)
	}
	if m.Losses > 0 {
		m.AvgLoss = -m.GrossLoss / float64(m.Losses)
	}

	switch {
	case m.GrossLoss > 0:
		m.ProfitFactor = m.GrossProfit / m.GrossLoss
	case m.GrossProfit > 0:
		m.ProfitFactor = math.Inf(1)
	default:
		m.ProfitFactor = 0
	}
}

// sanitize maps NaN to 0 so the report always serializes cleanly.
// Legitimate infinities (Sortino with no down days, profit factor with no
// losses) pass through.
func (m *Metrics) sanitize() {
	for _, f := range []*float64{
		&m.StartValue, &m.EndValue, &m.TotalReturn, &m.TotalReturnPct,
		&m.CAGRPct, &m.VolatilityPct, &m.SharpeRatio, &m.SortinoRatio,
		&m.MaxDrawdown, &m.MaxDrawdownPct, &m.UlcerIndex,
		&m.ProfitFactor, &m.WinRatePct, &m.GrossProfit, &m.GrossLoss,
		&m.AvgWin, &m.AvgLoss, &m.Expectancy, &m.BestTrade, &m.WorstTrade,
	} {
		if math.IsNaN(*f) {
			*f = 0
		}
	}
}

func dailyReturns(values []float64) []float64 {
	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, values[i]/values[i-1]-1)
	}
	return returns
}

// meanStd returns the mean and sample standard deviation (n-1 divisor).
// Fewer than two observations yields a zero std.
func meanStd(xs []float64) (mean, std float64) {
	n := float64(len(xs))
	if n == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= n
	if n < 2 {
		return mean, 0
	}
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / (n - 1))
}

// drawdownStats walks the curve once, tracking the running peak. The dollar
// and percent maxima can occur at different points; ulcer is the root mean
// square of the percent drawdown expressed as a decimal.
func drawdownStats(values []float64) (maxDD, maxDDPct, ulcer float64) {
	peak := values[0]
	var sumSq float64
	for _, v := range values {
		if v > peak {
			peak = v
		}
		dd := peak - v
		if dd > maxDD {
			maxDD = dd
		}
		var ddPct float64
		if peak > 0 {
			ddPct = dd / peak
		}
		if ddPct > maxDDPct {
			maxDDPct = ddPct
		}
		sumSq += ddPct * ddPct
	}
	ulcer = math.Sqrt(sumSq / float64(len(values)))
	return maxDD, maxDDPct * 100, ulcer
}
