package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up

	"orderBlocks/config"
	"orderBlocks/internal/adapters/logger"
	"orderBlocks/internal/adapters/sqlite"
	"orderBlocks/internal/app"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": appLogger.Level().String()})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()

	// 4. Initialize Bar Source
	source, err := app.NewBarSource(cfg, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize bar source")
		log.Fatalf("FATAL: Failed to initialize bar source: %v", err)
	}
	appLogger.Info(context.Background(), "Bar source initialized", map[string]interface{}{"source": source.Name()})

	// 5. Initialize Application Service
	service, err := app.NewAnalysisService(cfg, appLogger, source, repo)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize analysis service")
		log.Fatalf("FATAL: Failed to initialize analysis service: %v", err)
	}

	// 6. Run
	report, err := service.Start(context.Background())
	if err != nil {
		appLogger.Error(context.Background(), err, "Analysis failed")
		log.Fatalf("FATAL: Analysis failed: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished", map[string]interface{}{"runID": report.Run.ID})
}
