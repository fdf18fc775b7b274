// Package sweep runs the structure detector over one series with many
// parameter sets and ranks the outcomes.
package sweep

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"orderBlocks/internal/domain"
	"orderBlocks/internal/ports"
	"orderBlocks/internal/series"
	"orderBlocks/internal/structure"
)

// Result is the outcome of one parameter set.
type Result struct {
	Params domain.AnalysisParams
	Result *structure.Result
	Score  float64
	Err    error
}

// Config holds configuration for a Sweeper.
type Config struct {
	MaxWorkers    int // Concurrent scans; defaults to GOMAXPROCS
	ScoreFunction func(*structure.Result) float64
	Logger        ports.Logger
}

// Sweeper runs parameter sweeps.
type Sweeper struct {
	cfg Config
}

// New creates a Sweeper.
func New(cfg Config) (*Sweeper, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for sweeper")
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = runtime.GOMAXPROCS(0)
	}
	if cfg.ScoreFunction == nil {
		cfg.ScoreFunction = DefaultScore
	}
	return &Sweeper{cfg: cfg}, nil
}

// Run scans s once per config and returns the results best first. Configs
// that fail keep their error in Result.Err and sort last.
func (sw *Sweeper) Run(ctx context.Context, s *series.Series, configs []structure.Config) ([]Result, error) {
	if s == nil {
		return nil, fmt.Errorf("nil bar series: %w", ports.ErrInvalidInput)
	}

	results := make([]Result, len(configs))
	sem := make(chan struct{}, sw.cfg.MaxWorkers)
	var wg sync.WaitGroup

	for i, cfg := range configs {
		wg.Add(1)
		go func(i int, cfg structure.Config) {
			defer wg.Done()
			results[i] = Result{Params: cfg.Params()}

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i].Err = fmt.Errorf("sweep canceled: %w: %w", ports.ErrContextCanceled, ctx.Err())
				return
			}

			// Detectors only carry configuration, and the series is read-only,
			// so scans share nothing mutable.
			det, err := structure.New(cfg, sw.cfg.Logger)
			if err != nil {
				results[i].Err = err
				return
			}
			res, err := det.Run(ctx, s)
			if err != nil {
				results[i].Err = err
				return
			}
			results[i].Result = res
			results[i].Score = sw.cfg.ScoreFunction(res)
		}(i, cfg)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("sweep interrupted: %w: %w", ports.ErrContextCanceled, err)
	}

	sortResults(results)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	sw.cfg.Logger.Info(ctx, "Parameter sweep finished", map[string]interface{}{
		"sets":   len(configs),
		"failed": failed,
	})
	return results, nil
}

// sortResults orders by score descending, then by smaller candle range.
func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if (a.Err == nil) != (b.Err == nil) {
			return a.Err == nil
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Params.CandleRange < b.Params.CandleRange
	})
}

// DefaultScore ranks by surviving order blocks, then by break-of-structure
// lines.
func DefaultScore(res *structure.Result) float64 {
	return float64(len(res.Zones())) + float64(len(res.BOSLines))/float64(len(res.BOSLines)+1)
}
