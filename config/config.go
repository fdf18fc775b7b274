package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"orderBlocks/internal/adapters/logger"
	"orderBlocks/internal/domain"
	"orderBlocks/internal/structure"
)

// Bar sources selectable with DATA_SOURCE.
const (
	SourceCSV     = "csv"
	SourceWeb     = "web"
	SourceBinance = "binance"
)

// Config holds all application configuration.
type Config struct {
	// Bar source
	DataSource string // csv, web or binance
	CSVPath    string
	WebCSVURL  string
	Symbol     string
	Interval   string // Kline interval for the binance source
	KlineLimit int

	// Binance API
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Indicator
	CandleRange      int
	IndicatorEnabled bool
	ShowPreviousDay  bool
	ShowBearishBOS   bool
	ShowBullishBOS   bool

	// Output
	DBPath     string
	OutputPath string // Render payload JSON file

	// Logging
	LogLevel logger.LogLevel

	// Connection Settings
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
}

// AnalysisParams returns the indicator parameters.
func (c *Config) AnalysisParams() domain.AnalysisParams {
	return domain.AnalysisParams{
		CandleRange:     c.CandleRange,
		ShowPreviousDay: c.ShowPreviousDay,
		ShowBearishBOS:  c.ShowBearishBOS,
		ShowBullishBOS:  c.ShowBullishBOS,
	}
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string

	// Bar source
	cfg.DataSource = strings.ToLower(getEnv("DATA_SOURCE", SourceWeb))
	cfg.CSVPath = getEnv("CSV_PATH", "")
	cfg.WebCSVURL = getEnv("WEB_CSV_URL", "https://raw.githubusercontent.com/plotly/datasets/master/finance-charts-apple.csv")
	cfg.Symbol = getEnv("SYMBOL", "AAPL")
	cfg.Interval = getEnv("INTERVAL", "1d")

	switch cfg.DataSource {
	case SourceCSV:
		if cfg.CSVPath == "" {
			errs = append(errs, "CSV_PATH must be set when DATA_SOURCE=csv")
		}
	case SourceWeb:
		if cfg.WebCSVURL == "" {
			errs = append(errs, "WEB_CSV_URL must be set when DATA_SOURCE=web")
		}
	case SourceBinance:
		if cfg.Interval == "" {
			errs = append(errs, "INTERVAL must be set when DATA_SOURCE=binance")
		}
	default:
		errs = append(errs, fmt.Sprintf("DATA_SOURCE must be one of csv, web, binance (got '%s')", cfg.DataSource))
	}
	if cfg.Symbol == "" {
		errs = append(errs, "SYMBOL must be set")
	}

	cfg.KlineLimit, err = getEnvAsIntRequired("KLINE_LIMIT", 500)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid KLINE_LIMIT: %v", err))
	} else if cfg.KlineLimit <= 0 || cfg.KlineLimit > 1500 {
		errs = append(errs, "KLINE_LIMIT must be between 1 and 1500")
	}

	// Binance API; keys are optional since klines are public
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", false)

	// Indicator
	cfg.CandleRange, err = getEnvAsIntRequired("CANDLE_RANGE", structure.DefaultCandleRange)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid CANDLE_RANGE: %v", err))
	} else if cfg.CandleRange < structure.MinCandleRange || cfg.CandleRange > structure.MaxCandleRange {
		errs = append(errs, fmt.Sprintf("CANDLE_RANGE must be between %d and %d",
			structure.MinCandleRange, structure.MaxCandleRange))
	}
	cfg.IndicatorEnabled = getEnvAsBool("INDICATOR_ENABLED", true)
	cfg.ShowPreviousDay = getEnvAsBool("SHOW_PD", true)
	cfg.ShowBearishBOS = getEnvAsBool("SHOW_BEARISH_BOS", true)
	cfg.ShowBullishBOS = getEnvAsBool("SHOW_BULLISH_BOS", true)

	// Output
	cfg.DBPath = getEnv("DB_PATH", "./data/order_blocks.db")
	cfg.OutputPath = getEnv("OUTPUT_PATH", "./data/chart.json")

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))

	// Connection Settings
	reconnectDelaySeconds := getEnvAsInt("RECONNECT_DELAY_SECONDS", 5)
	if reconnectDelaySeconds <= 0 {
		errs = append(errs, "RECONNECT_DELAY_SECONDS must be positive")
	}
	cfg.ReconnectDelay = time.Duration(reconnectDelaySeconds) * time.Second

	cfg.MaxReconnectAttempts = getEnvAsInt("MAX_RECONNECT_ATTEMPTS", 10)
	if cfg.MaxReconnectAttempts < 0 {
		errs = append(errs, "MAX_RECONNECT_ATTEMPTS cannot be negative")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
