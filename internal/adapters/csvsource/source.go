// Package csvsource loads bars from CSV files on disk or over HTTP.
package csvsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"orderBlocks/internal/domain"
	"orderBlocks/internal/ports"
	"orderBlocks/internal/utils"
)

// DefaultWebURL is the public Apple daily bars file used when no URL is configured.
const DefaultWebURL = "https://raw.githubusercontent.com/plotly/datasets/master/finance-charts-apple.csv"

// FileSource reads bars from a local CSV file.
type FileSource struct {
	Path   string
	Logger ports.Logger
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string, logger ports.Logger) (*FileSource, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for CSV file source")
	}
	if path == "" {
		return nil, fmt.Errorf("CSV path is empty: %w", ports.ErrConfigurationError)
	}
	return &FileSource{Path: path, Logger: logger}, nil
}

func (s *FileSource) Name() string { return "csv" }

// LoadBars reads every bar in the file.
func (s *FileSource) LoadBars(ctx context.Context) ([]domain.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("loading bars: %w: %w", ports.ErrContextCanceled, err)
	}
	bars, err := utils.ReadBarsFromFile(s.Path)
	if err != nil {
		return nil, err
	}
	s.Logger.Info(ctx, "Loaded bars from CSV file", map[string]interface{}{"path": s.Path, "bars": len(bars)})
	return bars, nil
}

// WebSource downloads a CSV file over HTTP.
type WebSource struct {
	URL    string
	Client *http.Client
	Logger ports.Logger
}

// NewWebSource creates a WebSource. An empty url selects DefaultWebURL.
func NewWebSource(url string, logger ports.Logger) (*WebSource, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for CSV web source")
	}
	if url == "" {
		url = DefaultWebURL
	}
	return &WebSource{
		URL:    url,
		Client: &http.Client{Timeout: 30 * time.Second},
		Logger: logger,
	}, nil
}

func (s *WebSource) Name() string { return "web" }

// LoadBars fetches and parses the remote file.
func (s *WebSource) LoadBars(ctx context.Context) ([]domain.Bar, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for '%s': %w: %w", s.URL, ports.ErrInvalidRequest, err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetching '%s': %w: %w", s.URL, ports.ErrContextCanceled, err)
		}
		return nil, fmt.Errorf("fetching '%s': %w: %w", s.URL, ports.ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		var sentinel error
		switch {
		case resp.StatusCode == http.StatusNotFound:
			sentinel = ports.ErrNotFound
		case resp.StatusCode == http.StatusTooManyRequests:
			sentinel = ports.ErrRateLimited
		case resp.StatusCode >= 500:
			sentinel = ports.ErrExchangeUnavailable
		default:
			sentinel = ports.ErrInvalidRequest
		}
		return nil, fmt.Errorf("fetching '%s': HTTP %d: %s: %w", s.URL, resp.StatusCode, string(body), sentinel)
	}

	bars, err := utils.ReadBarsFromCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing '%s': %w", s.URL, err)
	}
	s.Logger.Info(ctx, "Downloaded bars", map[string]interface{}{"url": s.URL, "bars": len(bars)})
	return bars, nil
}

var (
	_ ports.BarSource = (*FileSource)(nil)
	_ ports.BarSource = (*WebSource)(nil)
)
