package structure

import (
	"fmt"

	"orderBlocks/internal/domain"
	"orderBlocks/internal/ports"
)

const (
	// DefaultCandleRange is the structure-low window used when none is configured.
	DefaultCandleRange = 15
	MinCandleRange     = 5
	MaxCandleRange     = 100
)

// Palette holds the colors used for emitted annotations and candles.
type Palette struct {
	BearishZone  string
	BullishZone  string
	BOSCandle    string
	BullishTrend string
	BearishTrend string
	PreviousDay  string
	BearishBOS   string
	BullishBOS   string
}

// DefaultPalette returns the stock chart colors.
func DefaultPalette() Palette {
	return Palette{
		BearishZone:  "rgba(255,0,0,0.14)",
		BullishZone:  "rgba(0,255,0,0.14)",
		BOSCandle:    "yellow",
		BullishTrend: "lime",
		BearishTrend: "red",
		PreviousDay:  "LightBlue",
		BearishBOS:   "Red",
		BullishBOS:   "Green",
	}
}

// withDefaults fills empty colors from DefaultPalette.
func (p Palette) withDefaults() Palette {
	d := DefaultPalette()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&p.BearishZone, d.BearishZone)
	fill(&p.BullishZone, d.BullishZone)
	fill(&p.BOSCandle, d.BOSCandle)
	fill(&p.BullishTrend, d.BullishTrend)
	fill(&p.BearishTrend, d.BearishTrend)
	fill(&p.PreviousDay, d.PreviousDay)
	fill(&p.BearishBOS, d.BearishBOS)
	fill(&p.BullishBOS, d.BullishBOS)
	return p
}

// Config holds parameters for a structure scan.
type Config struct {
	CandleRange     int  // Structure-low window length, [MinCandleRange, MaxCandleRange]
	ShowPreviousDay bool // Emit previous day high/low lines
	ShowBearishBOS  bool // Emit bearish break-of-structure lines
	ShowBullishBOS  bool // Emit bullish break-of-structure lines
	Palette         Palette
}

// DefaultConfig returns the default window with every annotation enabled.
func DefaultConfig() Config {
	return Config{
		CandleRange:     DefaultCandleRange,
		ShowPreviousDay: true,
		ShowBearishBOS:  true,
		ShowBullishBOS:  true,
		Palette:         DefaultPalette(),
	}
}

// ConfigFromParams converts stored/user parameters into a Config with the default palette.
func ConfigFromParams(p domain.AnalysisParams) Config {
	return Config{
		CandleRange:     p.CandleRange,
		ShowPreviousDay: p.ShowPreviousDay,
		ShowBearishBOS:  p.ShowBearishBOS,
		ShowBullishBOS:  p.ShowBullishBOS,
		Palette:         DefaultPalette(),
	}
}

// Params returns the scalar parameters of the config.
func (c Config) Params() domain.AnalysisParams {
	return domain.AnalysisParams{
		CandleRange:     c.CandleRange,
		ShowPreviousDay: c.ShowPreviousDay,
		ShowBearishBOS:  c.ShowBearishBOS,
		ShowBullishBOS:  c.ShowBullishBOS,
	}
}

// Validate checks the window bound.
func (c Config) Validate() error {
	if c.CandleRange < MinCandleRange || c.CandleRange > MaxCandleRange {
		return fmt.Errorf("candle range %d outside [%d, %d]: %w",
			c.CandleRange, MinCandleRange, MaxCandleRange, ports.ErrInvalidParameter)
	}
	return nil
}
