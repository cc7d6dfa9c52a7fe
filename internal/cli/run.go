package cli

import (
	"encoding/json"
	"fmt"

	"github.com/eddiefleurent/schrute_bucks/internal/engine"
	"github.com/eddiefleurent/schrute_bucks/internal/metrics"
	"github.com/eddiefleurent/schrute_bucks/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRunCmd(configPath *string) *cobra.Command {
	var (
		saveName   string
		showTrades bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single backtest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}

			prices, benchmark, err := loadInputs(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			res, err := engine.New(cfg, logger).Run(prices, nil, benchmark)
			if err != nil {
				return err
			}

			// The calendar filter prunes the trade list after the run; the
			// statistics are recomputed over what remains.
			if cfg.Filters != nil {
				kept := cfg.Filters.Apply(res.Trades, cfg.Backtest.Underlying)
				if len(kept) != len(res.Trades) {
					logger.WithFields(logrus.Fields{
						"before": len(res.Trades),
						"after":  len(kept),
					}).Info("Calendar filter pruned trades")
					res.Trades = kept
					res.Stats = metrics.Summary(res.Equity, kept, cfg.Backtest.RiskFreeRate, cfg.Strategy.Type)
				}
			}

			if saveName != "" {
				store, err := storage.NewStorage(cfg.Storage.Path)
				if err != nil {
					return err
				}
				if err := store.SaveAnalysis(storage.FromResult(saveName, cfg, res)); err != nil {
					return fmt.Errorf("saving analysis: %w", err)
				}
				logger.WithField("name", saveName).Info("Analysis saved")
			}

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res.Stats); err != nil {
				return err
			}
			if showTrades {
				if err := enc.Encode(res.Trades); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&saveName, "save", "", "persist the result under this analysis name")
	cmd.Flags().BoolVar(&showTrades, "trades", false, "also print the closed-trade list")
	return cmd
}
