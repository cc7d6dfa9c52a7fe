// Package config provides configuration management for the backtester.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/eddiefleurent/schrute_bucks/internal/filter"
	"github.com/eddiefleurent/schrute_bucks/internal/sizing"
	yaml "gopkg.in/yaml.v3"
)

// Simulation defaults applied when the corresponding field is unset.
const (
	// defaultRiskFreeRate is the annualized risk-free rate.
	defaultRiskFreeRate = 0.03
	// defaultVolPremium scales realized vol up to an implied-vol proxy.
	defaultVolPremium = 1.15
	// defaultSpreadPct is the emulated bid/ask spread fraction.
	defaultSpreadPct = 0.05
	// defaultSlippagePerContract is the fixed per-contract slippage charge.
	defaultSlippagePerContract = 0.01
	// defaultShortPutPctOTM places the short put 7% below spot.
	defaultShortPutPctOTM = 0.07
	// defaultSpreadWidthPct places the hedge 5% of spot below the short strike.
	defaultSpreadWidthPct = 0.05
	// defaultBenchmarkTicker is the benchmark symbol when unset.
	defaultBenchmarkTicker = "SPY"
	// defaultDashboardPort serves the results API.
	defaultDashboardPort = 8080
)

// StrategyType identifies the leg-construction algorithm. It is a closed
// enum validated at config-parse time.
type StrategyType string

const (
	// StrategyShortPut sells a single naked put.
	StrategyShortPut StrategyType = "short_put"
	// StrategyPutSpread sells a put credit spread.
	StrategyPutSpread StrategyType = "put_spread"
	// StrategyCustomManual builds an explicit caller-supplied leg list.
	StrategyCustomManual StrategyType = "custom_manual"
)

// Valid returns true if the StrategyType is one of the defined constants.
func (t StrategyType) Valid() bool {
	switch t {
	case StrategyShortPut, StrategyPutSpread, StrategyCustomManual:
		return true
	default:
		return false
	}
}

// UnlimitedRisk reports whether the strategy carries theoretically
// unbounded loss (naked short legs, or arbitrary custom legs).
func (t StrategyType) UnlimitedRisk() bool {
	return t == StrategyShortPut || t == StrategyCustomManual
}

// Config represents the complete application configuration.
type Config struct {
	Backtest   BacktestConfig       `yaml:"backtest"`
	Strategy   StrategyConfig       `yaml:"strategy"`
	Sizing     SizingConfig         `yaml:"sizing"`
	Benchmark  BenchmarkConfig      `yaml:"benchmark"`
	Simulation SimulationConfig     `yaml:"simulation"`
	Filters    *filter.Config       `yaml:"filters,omitempty"`
	Data       DataConfig           `yaml:"data"`
	Storage    StorageConfig        `yaml:"storage"`
	Dashboard  DashboardConfig      `yaml:"dashboard"`
	Sweep      map[string][]float64 `yaml:"sweep,omitempty"`
	LogLevel   string               `yaml:"log_level"`

	start time.Time
	end   time.Time
}

// BacktestConfig defines the core simulation inputs.
type BacktestConfig struct {
	Underlying string `yaml:"underlying"`
	Start      string `yaml:"start"` // YYYY-MM-DD
	End        string `yaml:"end"`   // YYYY-MM-DD
	Capital    float64 `yaml:"capital"`
	// AllocationPct is the per-trade capital allocation in percent (0,100].
	AllocationPct float64 `yaml:"allocation_pct"`
	// ProfitTargetPct is the profit target as a percent of initial credit.
	ProfitTargetPct float64 `yaml:"profit_target_pct"`
	// StopLossMult is the stop loss as a multiple of initial credit.
	StopLossMult          float64 `yaml:"stop_loss_mult"`
	DTETarget             int     `yaml:"dte_target"`
	CommissionPerContract float64 `yaml:"commission_per_contract"`
	RiskFreeRate          float64 `yaml:"risk_free_rate"`
}

// StrategyConfig defines the leg-construction parameters.
type StrategyConfig struct {
	Type           StrategyType `yaml:"type"`
	ShortPutPctOTM float64      `yaml:"short_put_pct_otm"`
	SpreadWidthPct float64      `yaml:"spread_width_pct"`
	CustomLegs     []LegSpec    `yaml:"custom_legs,omitempty"`
}

// LegSpec describes one leg of a custom_manual strategy.
type LegSpec struct {
	Strike    float64 `yaml:"strike"`
	Type      string  `yaml:"type"`      // put | call
	Direction string  `yaml:"direction"` // long | short
	Quantity  int     `yaml:"quantity"`
}

// SizingConfig selects the position-sizing policy.
type SizingConfig struct {
	Policy sizing.Policy `yaml:"policy"`
}

// BenchmarkConfig controls the scaled benchmark overlay.
type BenchmarkConfig struct {
	Ticker string `yaml:"ticker"`
	// Enabled defaults to true when omitted.
	Enabled *bool `yaml:"enabled,omitempty"`
}

// SimulationConfig tunes the market-friction model.
type SimulationConfig struct {
	// Seed drives the execution-price jitter; 0 disables the jitter so
	// runs are fully deterministic.
	Seed                int64   `yaml:"seed"`
	VolPremium          float64 `yaml:"vol_premium"`
	SpreadPct           float64 `yaml:"spread_pct"`
	SlippagePerContract float64 `yaml:"slippage_per_contract"`
}

// DataConfig locates the local price files.
type DataConfig struct {
	Dir string `yaml:"dir"`
}

// StorageConfig defines storage settings for saved analyses.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// DashboardConfig defines the results API server settings.
type DashboardConfig struct {
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token,omitempty"`
}

// Load reads and parses the configuration file from the specified path.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is a user-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var config Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate normalizes defaults and checks that all configuration values
// are valid and consistent.
func (c *Config) Validate() error {
	c.normalize()

	// Backtest validation
	c.Backtest.Underlying = strings.ToUpper(strings.TrimSpace(c.Backtest.Underlying))
	if c.Backtest.Underlying == "" {
		return fmt.Errorf("backtest.underlying is required")
	}
	start, err := time.Parse("2006-01-02", c.Backtest.Start)
	if err != nil {
		return fmt.Errorf("backtest.start must be YYYY-MM-DD: %w", err)
	}
	end, err := time.Parse("2006-01-02", c.Backtest.End)
	if err != nil {
		return fmt.Errorf("backtest.end must be YYYY-MM-DD: %w", err)
	}
	if !start.Before(end) {
		return fmt.Errorf("backtest.start (%s) must be before backtest.end (%s)", c.Backtest.Start, c.Backtest.End)
	}
	c.start, c.end = start, end

	if c.Backtest.Capital <= 0 {
		return fmt.Errorf("backtest.capital must be > 0")
	}
	if c.Backtest.AllocationPct <= 0 || c.Backtest.AllocationPct > 100 {
		return fmt.Errorf("backtest.allocation_pct must be in (0,100]")
	}
	if c.Backtest.ProfitTargetPct <= 0 {
		return fmt.Errorf("backtest.profit_target_pct must be > 0")
	}
	if c.Backtest.StopLossMult <= 0 {
		return fmt.Errorf("backtest.stop_loss_mult must be > 0")
	}
	if c.Backtest.DTETarget < 1 {
		return fmt.Errorf("backtest.dte_target must be >= 1")
	}
	if c.Backtest.CommissionPerContract < 0 {
		return fmt.Errorf("backtest.commission_per_contract must be >= 0")
	}
	if c.Backtest.RiskFreeRate < 0 {
		return fmt.Errorf("backtest.risk_free_rate must be >= 0")
	}

	// Strategy validation
	if !c.Strategy.Type.Valid() {
		return fmt.Errorf("strategy.type must be one of short_put, put_spread, custom_manual")
	}
	if c.Strategy.ShortPutPctOTM < 0 || c.Strategy.ShortPutPctOTM >= 1 {
		return fmt.Errorf("strategy.short_put_pct_otm must be in [0,1)")
	}
	if c.Strategy.SpreadWidthPct <= 0 || c.Strategy.SpreadWidthPct >= 1 {
		return fmt.Errorf("strategy.spread_width_pct must be in (0,1)")
	}
	if c.Strategy.Type == StrategyCustomManual {
		if len(c.Strategy.CustomLegs) == 0 {
			return fmt.Errorf("strategy.custom_legs is required for custom_manual")
		}
		for i, leg := range c.Strategy.CustomLegs {
			if err := leg.validate(); err != nil {
				return fmt.Errorf("strategy.custom_legs[%d]: %w", i, err)
			}
		}
	} else if len(c.Strategy.CustomLegs) > 0 {
		return fmt.Errorf("strategy.custom_legs is only valid with strategy.type custom_manual")
	}

	// Sizing validation
	if !c.Sizing.Policy.Valid() {
		return fmt.Errorf("sizing.policy must be min_one or strict")
	}

	// Simulation validation
	if c.Simulation.VolPremium <= 0 {
		return fmt.Errorf("simulation.vol_premium must be > 0")
	}
	if c.Simulation.SpreadPct < 0 || c.Simulation.SpreadPct >= 1 {
		return fmt.Errorf("simulation.spread_pct must be in [0,1)")
	}
	if c.Simulation.SlippagePerContract < 0 {
		return fmt.Errorf("simulation.slippage_per_contract must be >= 0")
	}

	// Filter validation
	if err := c.Filters.Validate(); err != nil {
		return err
	}

	// Dashboard validation
	if c.Dashboard.Port <= 0 || c.Dashboard.Port > 65535 {
		return fmt.Errorf("dashboard.port must be a valid TCP port")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error")
	}

	return nil
}

func (l LegSpec) validate() error {
	if l.Strike <= 0 {
		return fmt.Errorf("strike must be > 0")
	}
	if l.Type != "put" && l.Type != "call" {
		return fmt.Errorf("type must be put or call")
	}
	if l.Direction != "long" && l.Direction != "short" {
		return fmt.Errorf("direction must be long or short")
	}
	if l.Quantity < 1 {
		return fmt.Errorf("quantity must be >= 1")
	}
	return nil
}

// normalize fills unset fields with their documented defaults.
func (c *Config) normalize() {
	if c.Backtest.RiskFreeRate == 0 {
		c.Backtest.RiskFreeRate = defaultRiskFreeRate
	}
	if c.Strategy.ShortPutPctOTM == 0 {
		c.Strategy.ShortPutPctOTM = defaultShortPutPctOTM
	}
	if c.Strategy.SpreadWidthPct == 0 {
		c.Strategy.SpreadWidthPct = defaultSpreadWidthPct
	}
	if c.Sizing.Policy == "" {
		c.Sizing.Policy = sizing.PolicyMinOne
	}
	if c.Benchmark.Ticker == "" {
		c.Benchmark.Ticker = defaultBenchmarkTicker
	}
	if c.Simulation.VolPremium == 0 {
		c.Simulation.VolPremium = defaultVolPremium
	}
	if c.Simulation.SpreadPct == 0 {
		c.Simulation.SpreadPct = defaultSpreadPct
	}
	if c.Simulation.SlippagePerContract == 0 {
		c.Simulation.SlippagePerContract = defaultSlippagePerContract
	}
	if c.Data.Dir == "" {
		c.Data.Dir = "data"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "analyses.json"
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = defaultDashboardPort
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// StartDate returns the parsed start date; Validate must have succeeded.
func (c *Config) StartDate() time.Time { return c.start }

// EndDate returns the parsed end date; Validate must have succeeded.
func (c *Config) EndDate() time.Time { return c.end }

// AllocationFraction converts allocation_pct to a fraction.
func (c *Config) AllocationFraction() float64 { return c.Backtest.AllocationPct / 100 }

// ProfitTargetFraction converts profit_target_pct to a fraction of credit.
func (c *Config) ProfitTargetFraction() float64 { return c.Backtest.ProfitTargetPct / 100 }

// UseBenchmark reports whether the benchmark overlay is enabled (the
// default when unset).
func (c *Config) UseBenchmark() bool {
	return c.Benchmark.Enabled == nil || *c.Benchmark.Enabled
}

// Clone returns a validated deep copy of the configuration.
func (c *Config) Clone() (*Config, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("cloning config: %w", err)
	}
	var out Config
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("cloning config: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("cloning config: %w", err)
	}
	return &out, nil
}

// WithOverrides returns a validated copy with the named numeric fields
// replaced; unknown names are an error. This is what parameter sweeps use
// to derive per-run configs from a base config.
func (c *Config) WithOverrides(overrides map[string]float64) (*Config, error) {
	out, err := c.Clone()
	if err != nil {
		return nil, err
	}
	for name, v := range overrides {
		switch name {
		case "capital":
			out.Backtest.Capital = v
		case "allocation_pct":
			out.Backtest.AllocationPct = v
		case "profit_target_pct":
			out.Backtest.ProfitTargetPct = v
		case "stop_loss_mult":
			out.Backtest.StopLossMult = v
		case "dte_target":
			out.Backtest.DTETarget = int(v)
		case "commission_per_contract":
			out.Backtest.CommissionPerContract = v
		case "risk_free_rate":
			out.Backtest.RiskFreeRate = v
		case "short_put_pct_otm":
			out.Strategy.ShortPutPctOTM = v
		case "spread_width_pct":
			out.Strategy.SpreadWidthPct = v
		case "vol_premium":
			out.Simulation.VolPremium = v
		default:
			return nil, fmt.Errorf("unknown override %q", name)
		}
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("override produced invalid config: %w", err)
	}
	return out, nil
}
