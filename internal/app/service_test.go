package app

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderBlocks/config"
	"orderBlocks/internal/domain"
	"orderBlocks/internal/ports"
	"orderBlocks/internal/series"
	"orderBlocks/internal/structure"
)

// Mock implementations
type mockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

type mockSource struct {
	bars []domain.Bar
	err  error
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) LoadBars(ctx context.Context) ([]domain.Bar, error) {
	return m.bars, m.err
}

type mockRepo struct {
	runs    []*domain.AnalysisRun
	saveErr error
}

func (m *mockRepo) SaveRun(ctx context.Context, run *domain.AnalysisRun) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	run.ID = "run-1"
	m.runs = append(m.runs, run)
	return run.ID, nil
}

func (m *mockRepo) FindRun(ctx context.Context, id string) (*domain.AnalysisRun, error) {
	for _, r := range m.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) ListRuns(ctx context.Context, symbol string, limit int) ([]*domain.AnalysisRun, error) {
	return m.runs, nil
}

func (m *mockRepo) FindShapes(ctx context.Context, runID string) ([]domain.Shape, error) {
	return nil, nil
}

func testBars(n int) []domain.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, n)
	for i := range bars {
		mid := 100 + 15*math.Sin(float64(i)/5)
		open, cls := mid-1, mid+1
		if i%3 == 0 {
			open, cls = cls, open
		}
		bars[i] = domain.Bar{
			Date:  start.Add(time.Duration(i) * 4 * time.Hour),
			Open:  open,
			High:  mid + 2,
			Low:   mid - 2,
			Close: cls,
		}
	}
	return bars
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Symbol:           "AAPL",
		CandleRange:      15,
		IndicatorEnabled: true,
		ShowPreviousDay:  true,
		ShowBearishBOS:   true,
		ShowBullishBOS:   true,
		OutputPath:       filepath.Join(t.TempDir(), "out", "chart.json"),
	}
}

func readPayload(t *testing.T, path string) domain.RenderPayload {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var payload domain.RenderPayload
	require.NoError(t, json.Unmarshal(data, &payload))
	return payload
}

func TestNewAnalysisService(t *testing.T) {
	cfg := testConfig(t)
	logger := &mockLogger{}

	_, err := NewAnalysisService(nil, logger, &mockSource{}, &mockRepo{})
	assert.Error(t, err)
	_, err = NewAnalysisService(cfg, logger, nil, &mockRepo{})
	assert.Error(t, err)

	cfg.CandleRange = 2
	_, err = NewAnalysisService(cfg, logger, &mockSource{}, &mockRepo{})
	assert.ErrorIs(t, err, ports.ErrInvalidParameter)

	cfg.IndicatorEnabled = false
	_, err = NewAnalysisService(cfg, logger, &mockSource{}, &mockRepo{})
	assert.NoError(t, err, "range is irrelevant when the indicator is off")
}

func TestAnalyze_WithIndicator(t *testing.T) {
	cfg := testConfig(t)
	bars := testBars(120)
	repo := &mockRepo{}
	svc, err := NewAnalysisService(cfg, &mockLogger{}, &mockSource{bars: bars}, repo)
	require.NoError(t, err)
	fixed := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	report, err := svc.Analyze(context.Background())
	require.NoError(t, err)

	ser, err := series.New(bars)
	require.NoError(t, err)
	det, err := structure.New(structure.DefaultConfig(), ports.NopLogger{})
	require.NoError(t, err)
	want, err := det.Run(context.Background(), ser)
	require.NoError(t, err)

	require.Len(t, repo.runs, 1)
	run := repo.runs[0]
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, "mock", run.Source)
	assert.Equal(t, 120, run.BarCount)
	assert.Equal(t, bars[0].Date, run.FirstBar)
	assert.Equal(t, bars[119].Date, run.LastBar)
	assert.Equal(t, fixed, run.CreatedAt)
	assert.Equal(t, want.Shapes(ser), run.Shapes)
	assert.Equal(t, want.FinalColor(), run.FinalColor)
	assert.Equal(t, want, report.Result)

	payload := readPayload(t, cfg.OutputPath)
	assert.Equal(t, "AAPL", payload.Symbol)
	assert.Len(t, payload.Bars, 120)
	assert.Len(t, payload.Shapes, len(run.Shapes))
	assert.Equal(t, run.FinalColor, payload.IncreasingFillColor)
}

func TestAnalyze_IndicatorDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.IndicatorEnabled = false
	repo := &mockRepo{}
	logger := &mockLogger{}
	svc, err := NewAnalysisService(cfg, logger, &mockSource{bars: testBars(30)}, repo)
	require.NoError(t, err)

	report, err := svc.Analyze(context.Background())
	require.NoError(t, err)
	assert.Nil(t, report.Result)
	assert.Empty(t, report.Run.Shapes)
	assert.Empty(t, report.Run.FinalColor)
	assert.Contains(t, logger.infoMsgs, "Indicator disabled, exporting bars only")

	payload := readPayload(t, cfg.OutputPath)
	assert.Len(t, payload.Bars, 30)
	assert.Empty(t, payload.Shapes)
	assert.Empty(t, payload.IncreasingFillColor)
}

func TestAnalyze_NoOutputFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.OutputPath = ""
	svc, err := NewAnalysisService(cfg, &mockLogger{}, &mockSource{bars: testBars(20)}, &mockRepo{})
	require.NoError(t, err)

	report, err := svc.Analyze(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, report.Payload)
}

func TestAnalyze_Errors(t *testing.T) {
	sourceErr := errors.New("feed down")
	saveErr := errors.New("disk full")

	tests := []struct {
		name    string
		source  *mockSource
		repo    *mockRepo
		wantErr error
	}{
		{"source failure", &mockSource{err: sourceErr}, &mockRepo{}, sourceErr},
		{"empty series", &mockSource{bars: nil}, &mockRepo{}, ports.ErrInvalidInput},
		{"unordered bars", &mockSource{bars: []domain.Bar{testBars(2)[1], testBars(2)[0]}}, &mockRepo{}, ports.ErrInvalidInput},
		{"save failure", &mockSource{bars: testBars(20)}, &mockRepo{saveErr: saveErr}, saveErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			logger := &mockLogger{}
			svc, err := NewAnalysisService(cfg, logger, tt.source, tt.repo)
			require.NoError(t, err)

			_, err = svc.Analyze(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NotEmpty(t, logger.errorMsgs)
			assert.Empty(t, tt.repo.runs)
			_, statErr := os.Stat(cfg.OutputPath)
			assert.True(t, os.IsNotExist(statErr), "no partial output")
		})
	}
}

func TestStart_CanceledContext(t *testing.T) {
	cfg := testConfig(t)
	svc, err := NewAnalysisService(cfg, &mockLogger{}, &mockSource{bars: testBars(20)}, &mockRepo{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Start(ctx)
	assert.ErrorIs(t, err, ports.ErrContextCanceled)
}

func TestExportRun(t *testing.T) {
	bars := testBars(30)
	run := &domain.AnalysisRun{
		ID:         "run-1",
		Symbol:     "AAPL",
		BarCount:   20,
		FirstBar:   bars[5].Date,
		LastBar:    bars[24].Date,
		FinalColor: "lime",
		Shapes: []domain.Shape{
			{Type: domain.ShapeLine, Kind: string(domain.LineBearishBOS), X0: bars[6].Date, X1: bars[9].Date, Y0: 101, Y1: 101},
		},
	}
	path := filepath.Join(t.TempDir(), "export", "run.json")

	payload, err := ExportRun(context.Background(), run, &mockSource{bars: bars}, path)
	require.NoError(t, err)
	require.Len(t, payload.Bars, 20)
	assert.Equal(t, bars[5], payload.Bars[0])
	assert.Equal(t, bars[24], payload.Bars[19])

	written := readPayload(t, path)
	assert.NotNil(t, written.Bars)
	assert.Len(t, written.Bars, 20)
	assert.Len(t, written.Shapes, 1)
	assert.Equal(t, "lime", written.IncreasingFillColor)
}

func TestExportRun_Errors(t *testing.T) {
	bars := testBars(10)
	run := &domain.AnalysisRun{ID: "run-1", BarCount: 10, FirstBar: bars[0].Date, LastBar: bars[9].Date}
	sourceErr := errors.New("feed down")

	tests := []struct {
		name    string
		run     *domain.AnalysisRun
		source  *mockSource
		wantErr error
	}{
		{"nil run", nil, &mockSource{bars: bars}, ports.ErrInvalidRequest},
		{"source failure", run, &mockSource{err: sourceErr}, sourceErr},
		{"bars no longer match", run, &mockSource{bars: bars[2:]}, ports.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "run.json")
			_, err := ExportRun(context.Background(), tt.run, tt.source, path)
			assert.ErrorIs(t, err, tt.wantErr)
			_, statErr := os.Stat(path)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}
