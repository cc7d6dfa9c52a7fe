package metrics

import (
	"encoding/json"
	"math"
)

// metricsJSON mirrors Metrics with pointer fields for the two ratios that
// can legitimately be infinite; JSON has no Inf literal, so those encode
// as null.
type metricsJSON struct {
	StartValue     float64  `json:"start_value"`
	EndValue       float64  `json:"end_value"`
	TotalReturn    float64  `json:"total_return"`
	TotalReturnPct float64  `json:"total_return_pct"`
	CAGRPct        float64  `json:"cagr_pct"`
	VolatilityPct  float64  `json:"volatility_pct"`
	SharpeRatio    float64  `json:"sharpe_ratio"`
	SortinoRatio   *float64 `json:"sortino_ratio"`
	MaxDrawdown    float64  `json:"max_drawdown"`
	MaxDrawdownPct float64  `json:"max_drawdown_pct"`
	UlcerIndex     float64  `json:"ulcer_index"`
	ProfitFactor   *float64 `json:"profit_factor"`
	WinRatePct     float64  `json:"win_rate_pct"`
	TradesCount    int      `json:"trades_count"`
	Wins           int      `json:"wins"`
	Losses         int      `json:"losses"`
	GrossProfit    float64  `json:"gross_profit"`
	GrossLoss      float64  `json:"gross_loss"`
	AvgWin         float64  `json:"avg_win"`
	AvgLoss        float64  `json:"avg_loss"`
	Expectancy     float64  `json:"expectancy"`
	BestTrade      float64  `json:"best_trade"`
	WorstTrade     float64  `json:"worst_trade"`
	UnlimitedRisk  bool     `json:"unlimited_risk"`
}

// MarshalJSON encodes infinite Sortino and profit-factor values as null.
func (m Metrics) MarshalJSON() ([]byte, error) {
	j := metricsJSON{
		StartValue:     m.StartValue,
		EndValue:       m.EndValue,
		TotalReturn:    m.TotalReturn,
		TotalReturnPct: m.TotalReturnPct,
		CAGRPct:        m.CAGRPct,
		VolatilityPct:  m.VolatilityPct,
		SharpeRatio:    m.SharpeRatio,
		MaxDrawdown:    m.MaxDrawdown,
		MaxDrawdownPct: m.MaxDrawdownPct,
		UlcerIndex:     m.UlcerIndex,
		WinRatePct:     m.WinRatePct,
		TradesCount:    m.TradesCount,
		Wins:           m.Wins,
		Losses:         m.Losses,
		GrossProfit:    m.GrossProfit,
		GrossLoss:      m.GrossLoss,
		AvgWin:         m.AvgWin,
		AvgLoss:        m.AvgLoss,
		Expectancy:     m.Expectancy,
		BestTrade:      m.BestTrade,
		WorstTrade:     m.WorstTrade,
		UnlimitedRisk:  m.UnlimitedRisk,
	}
	if !math.IsInf(m.SortinoRatio, 0) {
		v := m.SortinoRatio
		j.SortinoRatio = &v
	}
	if !math.IsInf(m.ProfitFactor, 0) {
		v := m.ProfitFactor
		j.ProfitFactor = &v
	}
	return json.Marshal(j)
}

// UnmarshalJSON restores null ratios to +Inf, the only infinity either
// field can take.
func (m *Metrics) UnmarshalJSON(data []byte) error {
	var j metricsJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*m = Metrics{
		StartValue:     j.StartValue,
		EndValue:       j.EndValue,
		TotalReturn:    j.TotalReturn,
		TotalReturnPct: j.TotalReturnPct,
		CAGRPct:        j.CAGRPct,
		VolatilityPct:  j.VolatilityPct,
		SharpeRatio:    j.SharpeRatio,
		SortinoRatio:   math.Inf(1),
		MaxDrawdown:    j.MaxDrawdown,
		MaxDrawdownPct: j.MaxDrawdownPct,
		UlcerIndex:     j.UlcerIndex,
		ProfitFactor:   math.Inf(1),
		WinRatePct:     j.WinRatePct,
		TradesCount:    j.TradesCount,
		Wins:           j.Wins,
		Losses:         j.Losses,
		GrossProfit:    j.GrossProfit,
		GrossLoss:      j.GrossLoss,
		AvgWin:         j.AvgWin,
		AvgLoss:        j.AvgLoss,
		Expectancy:     j.Expectancy,
		BestTrade:      j.BestTrade,
		WorstTrade:     j.WorstTrade,
		UnlimitedRisk:  j.UnlimitedRisk,
	}
	if j.SortinoRatio != nil {
		m.SortinoRatio = *j.SortinoRatio
	}
	if j.ProfitFactor != nil {
		m.ProfitFactor = *j.ProfitFactor
	}
	return nil
}
