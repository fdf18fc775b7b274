package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/goccy/go-json"

	"orderBlocks/config"
	"orderBlocks/internal/domain"
	"orderBlocks/internal/ports"
	"orderBlocks/internal/series"
	"orderBlocks/internal/structure"
)

// Report is the outcome of one analysis.
type Report struct {
	Run     *domain.AnalysisRun
	Result  *structure.Result // nil when the indicator is disabled
	Payload *domain.RenderPayload
}

// AnalysisService loads bars, runs the structure scan, stores the run and
// hands the chart payload to the renderer.
type AnalysisService struct {
	cfg    *config.Config
	logger ports.Logger
	source ports.BarSource
	repo   ports.AnalysisRepository
	now    func() time.Time
}

// NewAnalysisService creates a new application service instance.
func NewAnalysisService(
	cfg *config.Config,
	logger ports.Logger,
	source ports.BarSource,
	repo ports.AnalysisRepository,
) (*AnalysisService, error) {
	if cfg == nil || logger == nil || source == nil || repo == nil {
		return nil, fmt.Errorf("missing required dependencies for AnalysisService")
	}
	if cfg.IndicatorEnabled {
		if err := structure.ConfigFromParams(cfg.AnalysisParams()).Validate(); err != nil {
			return nil, err
		}
	}
	return &AnalysisService{
		cfg:    cfg,
		logger: logger,
		source: source,
		repo:   repo,
		now:    time.Now,
	}, nil
}

// Start runs one analysis, canceling it on SIGINT or SIGTERM.
func (s *AnalysisService) Start(ctx context.Context) (*Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	return s.Analyze(ctx)
}

// Analyze performs a single load, scan, store and export cycle.
func (s *AnalysisService) Analyze(ctx context.Context) (*Report, error) {
	fields := map[string]interface{}{"source": s.source.Name(), "symbol": s.cfg.Symbol}

	bars, err := s.source.LoadBars(ctx)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to load bars", fields)
		return nil, fmt.Errorf("loading bars: %w", err)
	}
	ser, err := series.New(bars)
	if err != nil {
		s.logger.Error(ctx, err, "Loaded bars are not a valid series", fields)
		return nil, err
	}

	params := s.cfg.AnalysisParams()
	run := &domain.AnalysisRun{
		Symbol:    s.cfg.Symbol,
		Source:    s.source.Name(),
		Params:    params,
		BarCount:  ser.Len(),
		FirstBar:  ser.DateOf(0),
		LastBar:   ser.DateOf(ser.LastIndex()),
		Shapes:    []domain.Shape{},
		CreatedAt: s.now().UTC(),
	}

	var res *structure.Result
	if s.cfg.IndicatorEnabled {
		det, err := structure.New(structure.ConfigFromParams(params), s.logger)
		if err != nil {
			return nil, err
		}
		res, err = det.Run(ctx, ser)
		if err != nil {
			s.logger.Error(ctx, err, "Structure scan failed", fields)
			return nil, err
		}
		run.Shapes = res.Shapes(ser)
		run.FinalColor = res.FinalColor()
	} else {
		s.logger.Info(ctx, "Indicator disabled, exporting bars only", fields)
	}

	if _, err := s.repo.SaveRun(ctx, run); err != nil {
		s.logger.Error(ctx, err, "Failed to save analysis run", fields)
		return nil, fmt.Errorf("saving analysis run: %w", err)
	}

	payload := &domain.RenderPayload{
		Symbol:              s.cfg.Symbol,
		Bars:                ser.Bars(),
		Shapes:              run.Shapes,
		IncreasingFillColor: run.FinalColor,
	}
	if s.cfg.OutputPath != "" {
		if err := WritePayload(payload, s.cfg.OutputPath); err != nil {
			s.logger.Error(ctx, err, "Failed to write render payload", map[string]interface{}{"path": s.cfg.OutputPath})
			return nil, err
		}
	}

	s.logger.Info(ctx, "Analysis complete", map[string]interface{}{
		"runID":      run.ID,
		"symbol":     run.Symbol,
		"bars":       run.BarCount,
		"shapes":     len(run.Shapes),
		"finalColor": run.FinalColor,
		"output":     s.cfg.OutputPath,
	})
	return &Report{Run: run, Result: res, Payload: payload}, nil
}

// WritePayload writes payload as indented JSON, creating the parent directory.
func WritePayload(payload *domain.RenderPayload, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for '%s': %w", path, err)
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding render payload: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing render payload '%s': %w", path, err)
	}
	return nil
}

// ExportRun reloads the bars run was computed from and writes them with the
// stored shapes to path. Bars outside the run's date range are dropped.
func ExportRun(ctx context.Context, run *domain.AnalysisRun, source ports.BarSource, path string) (*domain.RenderPayload, error) {
	if run == nil {
		return nil, fmt.Errorf("nil analysis run: %w", ports.ErrInvalidRequest)
	}
	bars, err := source.LoadBars(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading bars for run %s: %w", run.ID, err)
	}

	inRange := make([]domain.Bar, 0, len(bars))
	for _, b := range bars {
		if b.Date.Before(run.FirstBar) || b.Date.After(run.LastBar) {
			continue
		}
		inRange = append(inRange, b)
	}
	if len(inRange) != run.BarCount {
		return nil, fmt.Errorf("run %s covers %d bars, source %s returned %d in range: %w",
			run.ID, run.BarCount, source.Name(), len(inRange), ports.ErrInvalidInput)
	}

	payload := &domain.RenderPayload{
		Symbol:              run.Symbol,
		Bars:                inRange,
		Shapes:              run.Shapes,
		IncreasingFillColor: run.FinalColor,
	}
	if err := WritePayload(payload, path); err != nil {
		return nil, err
	}
	return payload, nil
}
