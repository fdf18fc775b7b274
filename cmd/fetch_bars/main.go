package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"orderBlocks/config"
	"orderBlocks/internal/adapters/binanceclient"
	"orderBlocks/internal/adapters/logger"
	"orderBlocks/internal/utils"
)

func main() {
	days := flag.Int("days", 90, "number of days to download, ending now")
	out := flag.String("out", "", "output CSV file (default data/<symbol>_<interval>_<start>_to_<end>.csv)")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)

	// 3. Initialize Exchange Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:               cfg.APIKey,
		SecretKey:            cfg.SecretKey,
		UseTestnet:           cfg.IsTestnet,
		Logger:               appLogger,
		ReconnectDelay:       cfg.ReconnectDelay,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}

	ctx := context.Background()
	if err := binanceClient.Ping(ctx); err != nil {
		log.Fatalf("Binance is unreachable: %v", err)
	}

	end := time.Now()
	start := end.AddDate(0, 0, -*days)

	appLogger.Info(ctx, "Fetching bars", map[string]interface{}{
		"symbol":   cfg.Symbol,
		"interval": cfg.Interval,
		"start":    start.Format(time.RFC3339),
		"end":      end.Format(time.RFC3339),
	})
	bars, err := binanceClient.GetKlinesRange(ctx, cfg.Symbol, cfg.Interval, start, end)
	if err != nil {
		appLogger.Error(ctx, err, "Error fetching bars")
		log.Fatalf("Error fetching bars: %v", err)
	}

	filename := *out
	if filename == "" {
		filename = fmt.Sprintf("data/%s_%s_%s_to_%s.csv", cfg.Symbol, cfg.Interval, start.Format("20060102"), end.Format("20060102"))
	}
	if err := utils.WriteBarsToCSV(bars, filename); err != nil {
		appLogger.Error(ctx, err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(ctx, "Saved bars", map[string]interface{}{"filename": filename, "count": len(bars)})
}
