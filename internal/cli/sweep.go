package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/eddiefleurent/schrute_bucks/internal/batch"
	"github.com/spf13/cobra"
)

func newSweepCmd(configPath *string) *cobra.Command {
	var (
		workers int
		top     int
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the configured parameter sweep",
		Long: `Sweep runs every combination of the config's sweep grid concurrently
and prints the runs ranked by total return.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			if len(cfg.Sweep) == 0 {
				return fmt.Errorf("config has no sweep grid")
			}

			prices, benchmark, err := loadInputs(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			results, err := batch.NewRunner(cfg, logger, workers).
				Sweep(cmd.Context(), prices, nil, benchmark)
			if err != nil {
				return err
			}

			if top > 0 && len(results) > top {
				results = results[:top]
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-40s %12s %10s %8s\n", "OVERRIDES", "RETURN %", "SHARPE", "TRADES")
			for _, rr := range results {
				fmt.Fprintf(out, "%-40s %12.2f %10.2f %8d\n",
					formatOverrides(rr.Overrides),
					rr.Result.Stats.TotalReturnPct,
					rr.Result.Stats.SharpeRatio,
					rr.Result.Stats.TradesCount)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = default)")
	cmd.Flags().IntVar(&top, "top", 0, "only print the best N runs (0 = all)")
	return cmd
}

func formatOverrides(overrides map[string]float64) string {
	if len(overrides) == 0 {
		return "(base)"
	}
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%g", name, overrides[name]))
	}
	return strings.Join(parts, " ")
}
