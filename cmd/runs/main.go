package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"orderBlocks/config"
	"orderBlocks/internal/adapters/logger"
	"orderBlocks/internal/adapters/sqlite"
	"orderBlocks/internal/app"
)

func main() {
	runID := flag.String("id", "", "show one run with its shapes")
	limit := flag.Int("limit", 20, "runs to list")
	export := flag.String("export", "", "with -id: reload the run's bars and write them with its shapes as a render payload to this file")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
	if err != nil {
		log.Fatalf("FATAL: Failed to open database: %v", err)
	}
	defer repo.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	defer w.Flush()

	if *runID == "" {
		runs, err := repo.ListRuns(ctx, cfg.Symbol, *limit)
		if err != nil {
			log.Fatalf("Error listing runs: %v", err)
		}
		if len(runs) == 0 {
			log.Printf("No runs stored for %s.", cfg.Symbol)
			return
		}
		fmt.Fprintln(w, "ID\tCreated\tSource\tBars\tRange\tFinal\t")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t\n",
				r.ID, r.CreatedAt.Format(time.RFC3339), r.Source, r.BarCount, r.Params.CandleRange, r.FinalColor)
		}
		return
	}

	run, err := repo.FindRun(ctx, *runID)
	if err != nil {
		log.Fatalf("Error loading run: %v", err)
	}
	if run == nil {
		log.Fatalf("Run %s not found", *runID)
	}

	fmt.Fprintf(w, "Run\t%s\t\n", run.ID)
	fmt.Fprintf(w, "Symbol\t%s\t\n", run.Symbol)
	fmt.Fprintf(w, "Bars\t%d (%s .. %s)\t\n", run.BarCount, run.FirstBar.Format("2006-01-02"), run.LastBar.Format("2006-01-02"))
	fmt.Fprintf(w, "Params\t%+v\t\n", run.Params)
	fmt.Fprintf(w, "Final color\t%s\t\n", run.FinalColor)
	fmt.Fprintln(w, "\t\t")
	fmt.Fprintln(w, "Type\tKind\tFrom\tTo\tY0\tY1\t")
	for _, s := range run.Shapes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.4f\t%.4f\t\n",
			s.Type, s.Kind, s.X0.Format("2006-01-02 15:04"), s.X1.Format("2006-01-02 15:04"), s.Y0, s.Y1)
	}

	if *export != "" {
		source, err := app.NewBarSource(cfg, appLogger)
		if err != nil {
			log.Fatalf("Error creating bar source: %v", err)
		}
		payload, err := app.ExportRun(ctx, run, source, *export)
		if err != nil {
			log.Fatalf("Error exporting run: %v", err)
		}
		log.Printf("Exported %d bars and %d shapes to %s", len(payload.Bars), len(payload.Shapes), *export)
	}
}
