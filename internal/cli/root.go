// Package cli provides the command-line interface for the backtester.
package cli

import (
	"context"
	"fmt"

	"github.com/eddiefleurent/schrute_bucks/internal/config"
	"github.com/eddiefleurent/schrute_bucks/internal/feed"
	"github.com/eddiefleurent/schrute_bucks/internal/series"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the CLI.
func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "backtest",
		Short: "Option strategy backtester",
		Long: `Backtest simulates daily option-selling strategies (naked puts, put
credit spreads, custom leg sets) over historical prices with a
Black-Scholes pricing model, and reports equity, trades and
performance statistics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")

	root.AddCommand(newRunCmd(&configPath))
	root.AddCommand(newSweepCmd(&configPath))
	root.AddCommand(newServeCmd(&configPath))
	return root
}

// setup loads the config and builds a logger at its configured level.
func setup(configPath string) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing log level: %w", err)
	}
	logger.SetLevel(level)
	return cfg, logger, nil
}

// loadInputs fetches the underlying prices and, when enabled, the benchmark
// closes. Benchmark problems are logged and ignored.
func loadInputs(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (prices, benchmark *series.Series, err error) {
	provider := feed.NewBreakerProvider(
		feed.NewRetryProvider(feed.NewCSVProvider(cfg.Data.Dir), logger), logger)

	prices, err = provider.Prices(ctx, cfg.Backtest.Underlying, cfg.StartDate(), cfg.EndDate())
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s prices: %w", cfg.Backtest.Underlying, err)
	}

	if cfg.UseBenchmark() {
		benchmark, err = provider.Prices(ctx, cfg.Benchmark.Ticker, cfg.StartDate(), cfg.EndDate())
		if err != nil {
			logger.WithError(err).WithField("ticker", cfg.Benchmark.Ticker).
				Warn("Benchmark data unavailable; overlay disabled")
			benchmark = nil
		}
	}
	return prices, benchmark, nil
}
