package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"orderBlocks/config"
	"orderBlocks/internal/adapters/logger"
	"orderBlocks/internal/app"
	"orderBlocks/internal/series"
	"orderBlocks/internal/sweep"
)

func main() {
	planPath := flag.String("plan", "configs/sweep.yaml", "YAML file listing the parameter sets")
	workers := flag.Int("workers", 0, "concurrent scans (default GOMAXPROCS)")
	top := flag.Int("top", 10, "rows to print")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()

	plan, err := sweep.LoadPlan(*planPath)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	configs, err := plan.Configs()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	source, err := app.NewBarSource(cfg, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize bar source: %v", err)
	}
	bars, err := source.LoadBars(ctx)
	if err != nil {
		log.Fatalf("FATAL: Failed to load bars: %v", err)
	}
	s, err := series.New(bars)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	sweeper, err := sweep.New(sweep.Config{MaxWorkers: *workers, Logger: appLogger})
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	results, err := sweeper.Run(ctx, s, configs)
	if err != nil {
		log.Fatalf("FATAL: Sweep failed: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintln(w, "Range\tPD\tBearBOS\tBullBOS\tBearOB\tBullOB\tBOS\tScore\tFinal\t")
	for i, r := range results {
		if i >= *top {
			break
		}
		if r.Err != nil {
			fmt.Fprintf(w, "%d\t%t\t%t\t%t\t-\t-\t-\t-\t%v\t\n",
				r.Params.CandleRange, r.Params.ShowPreviousDay, r.Params.ShowBearishBOS, r.Params.ShowBullishBOS, r.Err)
			continue
		}
		fmt.Fprintf(w, "%d\t%t\t%t\t%t\t%d\t%d\t%d\t%.3f\t%s\t\n",
			r.Params.CandleRange, r.Params.ShowPreviousDay, r.Params.ShowBearishBOS, r.Params.ShowBullishBOS,
			len(r.Result.BearishZones), len(r.Result.BullishZones), len(r.Result.BOSLines),
			r.Score, r.Result.FinalColor())
	}
	w.Flush()
}
