package domain

import "time"

// AnalysisParams are the scalar parameters a structure scan was run with.
type AnalysisParams struct {
	CandleRange     int  `json:"candle_range" yaml:"candle_range"`
	ShowPreviousDay bool `json:"show_pd" yaml:"show_pd"`
	ShowBearishBOS  bool `json:"show_bearish_bos" yaml:"show_bearish_bos"`
	ShowBullishBOS  bool `json:"show_bullish_bos" yaml:"show_bullish_bos"`
}

// AnalysisRun is the persisted result of one scan over a bar series.
type AnalysisRun struct {
	ID         string         // UUID assigned when the run is stored
	Symbol     string         // Instrument the bars belong to
	Source     string         // Where the bars came from (csv, web, binance)
	Params     AnalysisParams // Parameters used for the scan
	BarCount   int            // Number of bars scanned
	FirstBar   time.Time      // Date of the first bar
	LastBar    time.Time      // Date of the last bar
	FinalColor string         // Increasing-candle fill color after the last bar
	Shapes     []Shape        // Emitted annotations in render order
	CreatedAt  time.Time
}

// RenderPayload is what the chart renderer consumes.
type RenderPayload struct {
	Symbol              string  `json:"symbol"`
	Bars                []Bar   `json:"bars"`
	Shapes              []Shape `json:"shapes"`
	IncreasingFillColor string  `json:"increasing_fill_color,omitempty"`
}
