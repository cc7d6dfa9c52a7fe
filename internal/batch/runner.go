// Package batch runs parameter sweeps: the cartesian product of the
// configured override grid, executed concurrently over shared input series.
package batch

import (
	"context"
	"fmt"
	"sort"

	"github.com/eddiefleurent/schrute_bucks/internal/config"
	"github.com/eddiefleurent/schrute_bucks/internal/engine"
	"github.com/eddiefleurent/schrute_bucks/internal/series"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// defaultWorkers bounds sweep concurrency when the caller passes 0.
const defaultWorkers = 4

// RunResult pairs one grid point with its backtest outcome.
type RunResult struct {
	Overrides map[string]float64
	Config    *config.Config
	Result    *engine.Result
}

// Runner executes every combination of the base config's sweep grid.
type Runner struct {
	base    *config.Config
	logger  *logrus.Logger
	workers int
}

// NewRunner creates a Runner; workers <= 0 selects a small default.
func NewRunner(base *config.Config, logger *logrus.Logger, workers int) *Runner {
	if logger == nil {
		logger = logrus.New()
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Runner{base: base, logger: logger, workers: workers}
}

// Sweep runs the full grid against the shared input series and returns the
// results ordered by total return, best first. An empty grid degenerates to
// a single run of the base config. The first failing run cancels the rest.
func (r *Runner) Sweep(ctx context.Context, prices, vols, benchmark *series.Series) ([]RunResult, error) {
	points := ExpandGrid(r.base.Sweep)
	results := make([]RunResult, len(points))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, overrides := range points {
		i, overrides := i, overrides
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			cfg, err := r.base.WithOverrides(overrides)
			if err != nil {
				return fmt.Errorf("grid point %v: %w", overrides, err)
			}

			res, err := engine.New(cfg, r.logger).Run(prices, vols, benchmark)
			if err != nil {
				return fmt.Errorf("grid point %v: %w", overrides, err)
			}

			r.logger.WithFields(logrus.Fields{
				"overrides":    overrides,
				"total_return": res.Stats.TotalReturnPct,
				"trades":       res.Stats.TradesCount,
			}).Debug("Sweep run finished")

			results[i] = RunResult{Overrides: overrides, Config: cfg, Result: res}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Result.Stats.TotalReturnPct > results[j].Result.Stats.TotalReturnPct
	})
	return results, nil
}

// ExpandGrid enumerates the cartesian product of the override grid in a
// deterministic order: parameter names sorted, values in listed order. A
// nil or empty grid yields the single empty point.
func ExpandGrid(grid map[string][]float64) []map[string]float64 {
	names := make([]string, 0, len(grid))
	for name, values := range grid {
		if len(values) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	points := []map[string]float64{{}}
	for _, name := range names {
		next := make([]map[string]float64, 0, len(points)*len(grid[name]))
		for _, point := range points {
			for _, v := range grid[name] {
				expanded := make(map[string]float64, len(point)+1)
				for k, pv := range point {
					expanded[k] = pv
				}
				expanded[name] = v
				next = append(next, expanded)
			}
		}
		points = next
	}
	return points
}
