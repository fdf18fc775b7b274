package binanceclient

import (
	"context"
	"fmt"

	"orderBlocks/internal/domain"
	"orderBlocks/internal/ports"
)

// Source loads the latest bars for one symbol and interval.
type Source struct {
	client   *Client
	symbol   string
	interval string
	limit    int
}

// NewSource creates a bar source backed by client.
func NewSource(client *Client, symbol, interval string, limit int) (*Source, error) {
	if client == nil {
		return nil, fmt.Errorf("binance client is required: %w", ports.ErrConfigurationError)
	}
	if symbol == "" || interval == "" {
		return nil, fmt.Errorf("symbol and interval are required: %w", ports.ErrConfigurationError)
	}
	return &Source{client: client, symbol: symbol, interval: interval, limit: limit}, nil
}

func (s *Source) Name() string { return "binance" }

// LoadBars fetches the latest bars, retrying transient failures.
func (s *Source) LoadBars(ctx context.Context) ([]domain.Bar, error) {
	var bars []domain.Bar
	err := s.client.withRetry(ctx, "LoadBars", func() error {
		var err error
		bars, err = s.client.GetKlines(ctx, s.symbol, s.interval, s.limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.client.logger.Info(ctx, "Loaded bars from Binance", map[string]interface{}{
		"symbol":   s.symbol,
		"interval": s.interval,
		"bars":     len(bars),
	})
	return bars, nil
}

var (
	_ ports.KlineClient = (*Client)(nil)
	_ ports.BarSource   = (*Source)(nil)
)
