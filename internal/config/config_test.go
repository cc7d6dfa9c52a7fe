package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eddiefleurent/schrute_bucks/internal/sizing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
backtest:
  underlying: spy
  start: "2020-01-02"
  end: "2023-12-29"
  capital: 100000
  allocation_pct: 5
  profit_target_pct: 50
  stop_loss_mult: 2.0
  dte_target: 30
strategy:
  type: put_spread
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "SPY", cfg.Backtest.Underlying, "ticker is upper-cased")
	assert.Equal(t, 0.03, cfg.Backtest.RiskFreeRate)
	assert.Equal(t, 0.07, cfg.Strategy.ShortPutPctOTM)
	assert.Equal(t, 0.05, cfg.Strategy.SpreadWidthPct)
	assert.Equal(t, sizing.PolicyMinOne, cfg.Sizing.Policy)
	assert.Equal(t, "SPY", cfg.Benchmark.Ticker)
	assert.True(t, cfg.UseBenchmark(), "benchmark defaults on")
	assert.Equal(t, 1.15, cfg.Simulation.VolPremium)
	assert.Equal(t, 0.05, cfg.Simulation.SpreadPct)
	assert.Equal(t, 0.01, cfg.Simulation.SlippagePerContract)
	assert.Equal(t, int64(0), cfg.Simulation.Seed, "jitter off by default")
	assert.Equal(t, 8080, cfg.Dashboard.Port)
	assert.Equal(t, "info", cfg.LogLevel)

	assert.Equal(t, time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), cfg.StartDate())
	assert.Equal(t, time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC), cfg.EndDate())
	assert.InDelta(t, 0.05, cfg.AllocationFraction(), 1e-12)
	assert.InDelta(t, 0.50, cfg.ProfitTargetFraction(), 1e-12)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("BT_UNDERLYING", "QQQ")
	body := `
backtest:
  underlying: ${BT_UNDERLYING}
  start: "2022-01-03"
  end: "2022-06-30"
  capital: 50000
  allocation_pct: 10
  profit_target_pct: 50
  stop_loss_mult: 2.0
  dte_target: 45
strategy:
  type: short_put
`
	cfg, err := Load(writeConfig(t, body))
	require.NoError(t, err)
	assert.Equal(t, "QQQ", cfg.Backtest.Underlying)
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	_, err := Load(writeConfig(t, minimalYAML+"\nunknown_section:\n  x: 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_Errors(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(writeConfig(t, minimalYAML))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing underlying", func(c *Config) { c.Backtest.Underlying = "" }},
		{"bad start date", func(c *Config) { c.Backtest.Start = "01/02/2020" }},
		{"start after end", func(c *Config) { c.Backtest.Start = "2024-01-01" }},
		{"zero capital", func(c *Config) { c.Backtest.Capital = 0 }},
		{"allocation above 100", func(c *Config) { c.Backtest.AllocationPct = 150 }},
		{"zero profit target", func(c *Config) { c.Backtest.ProfitTargetPct = 0 }},
		{"zero stop loss", func(c *Config) { c.Backtest.StopLossMult = 0 }},
		{"zero dte", func(c *Config) { c.Backtest.DTETarget = 0 }},
		{"negative commission", func(c *Config) { c.Backtest.CommissionPerContract = -1 }},
		{"bad strategy type", func(c *Config) { c.Strategy.Type = "iron_condor" }},
		{"otm out of range", func(c *Config) { c.Strategy.ShortPutPctOTM = 1.5 }},
		{"bad sizing policy", func(c *Config) { c.Sizing.Policy = "kelly" }},
		{"zero vol premium", func(c *Config) { c.Simulation.VolPremium = -1 }},
		{"spread out of range", func(c *Config) { c.Simulation.SpreadPct = 1 }},
		{"bad port", func(c *Config) { c.Dashboard.Port = 70000 }},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }},
		{"custom legs on spread", func(c *Config) {
			c.Strategy.CustomLegs = []LegSpec{{Strike: 95, Type: "put", Direction: "short", Quantity: 1}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_CustomManual(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	cfg.Strategy.Type = StrategyCustomManual
	assert.Error(t, cfg.Validate(), "custom_manual requires legs")

	cfg.Strategy.CustomLegs = []LegSpec{
		{Strike: 95, Type: "put", Direction: "short", Quantity: 1},
		{Strike: 90, Type: "put", Direction: "long", Quantity: 1},
	}
	assert.NoError(t, cfg.Validate())

	cfg.Strategy.CustomLegs[0].Direction = "sideways"
	assert.Error(t, cfg.Validate())
}

func TestStrategyType(t *testing.T) {
	assert.True(t, StrategyShortPut.UnlimitedRisk())
	assert.True(t, StrategyCustomManual.UnlimitedRisk())
	assert.False(t, StrategyPutSpread.UnlimitedRisk())
	assert.False(t, StrategyType("calendar").Valid())
}

func TestWithOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	out, err := cfg.WithOverrides(map[string]float64{
		"allocation_pct":    10,
		"profit_target_pct": 75,
		"dte_target":        45,
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, out.Backtest.AllocationPct)
	assert.Equal(t, 75.0, out.Backtest.ProfitTargetPct)
	assert.Equal(t, 45, out.Backtest.DTETarget)

	assert.Equal(t, 5.0, cfg.Backtest.AllocationPct, "base config untouched")

	_, err = cfg.WithOverrides(map[string]float64{"delta_target": 0.2})
	assert.Error(t, err, "unknown override name")

	_, err = cfg.WithOverrides(map[string]float64{"allocation_pct": -5})
	assert.Error(t, err, "override must still validate")
}
