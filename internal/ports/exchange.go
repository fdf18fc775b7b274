package ports

import (
	"context"
	"time"

	"orderBlocks/internal/domain"
)

// BarSource defines where bar series come from.
// Implementations return bars ordered by date ascending.
type BarSource interface {
	// Name identifies the source in logs and stored runs (e.g. "csv", "binance").
	Name() string

	// LoadBars retrieves the bar series to analyze.
	LoadBars(ctx context.Context) ([]domain.Bar, error)
}

// KlineClient defines the exchange calls used to pull historical bars.
type KlineClient interface {
	// Ping checks the connectivity to the exchange API.
	Ping(ctx context.Context) error

	// GetKlines retrieves the most recent klines for the given symbol.
	GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]domain.Bar, error)

	// GetKlinesRange fetches all klines for a symbol/interval between start and end time.
	GetKlinesRange(ctx context.Context, symbol, interval string, start, end time.Time) ([]domain.Bar, error)
}
