package app

import (
	"fmt"

	"orderBlocks/config"
	"orderBlocks/internal/adapters/binanceclient"
	"orderBlocks/internal/adapters/csvsource"
	"orderBlocks/internal/ports"
)

// NewBarSource builds the bar source selected by cfg.DataSource.
func NewBarSource(cfg *config.Config, logger ports.Logger) (ports.BarSource, error) {
	switch cfg.DataSource {
	case config.SourceCSV:
		return csvsource.NewFileSource(cfg.CSVPath, logger)
	case config.SourceWeb:
		return csvsource.NewWebSource(cfg.WebCSVURL, logger)
	case config.SourceBinance:
		client, err := binanceclient.New(binanceclient.Config{
			APIKey:               cfg.APIKey,
			SecretKey:            cfg.SecretKey,
			UseTestnet:           cfg.IsTestnet,
			Logger:               logger,
			ReconnectDelay:       cfg.ReconnectDelay,
			MaxReconnectAttempts: cfg.MaxReconnectAttempts,
		})
		if err != nil {
			return nil, err
		}
		return binanceclient.NewSource(client, cfg.Symbol, cfg.Interval, cfg.KlineLimit)
	default:
		return nil, fmt.Errorf("unknown data source '%s': %w", cfg.DataSource, ports.ErrConfigurationError)
	}
}
