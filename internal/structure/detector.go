// Package structure detects breaks of market structure over a bar series and
// derives order block zones, break lines and previous day levels from them.
package structure

import (
	"context"
	"fmt"
	"math"

	"orderBlocks/internal/domain"
	"orderBlocks/internal/ports"
	"orderBlocks/internal/series"
)

const (
	// maxSwingAge is how many bars a swing may be behind the break that uses it.
	maxSwingAge = 1000
	// previousDayBars limits previous day tracking to the tail of the series.
	previousDayBars = 20
	zoneBorderWidth = 0
	bosLineWidth    = 2
	levelLineWidth  = 1
)

// Detector runs the structure scan. It holds only configuration, so one
// Detector may be reused; every Run starts from fresh state.
type Detector struct {
	cfg    Config
	logger ports.Logger
}

// New creates a Detector after validating cfg.
func New(cfg Config, logger ports.Logger) (*Detector, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for structure detector")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Palette = cfg.Palette.withDefaults()
	return &Detector{cfg: cfg, logger: logger}, nil
}

// Config returns the detector configuration.
func (d *Detector) Config() Config {
	return d.cfg
}

// scan is the mutable state of a single pass.
type scan struct {
	cfg    Config
	logger ports.Logger
	cur    *series.Cursor

	// candle coloring
	mode      domain.TrendMode
	bosCandle bool

	// latest bearish swing
	lastDownIndex int
	lastDown      float64 // high of the swing bar
	lastLow       float64 // running low since the swing

	// latest bullish swing
	lastUpIndex int
	lastUpLow   float64
	lastHigh    float64 // running high since the swing

	structureLow      float64
	structureLowIndex int

	// duplicate suppression
	lastLongIndex int

	shortZones   []domain.Zone
	longZones    []domain.Zone
	bosLines     []domain.Line
	previousHigh *domain.Line
	previousLow  *domain.Line
	colors       []string
	stats        Stats
}

// Run scans s once from the first to the last bar.
func (d *Detector) Run(ctx context.Context, s *series.Series) (*Result, error) {
	if s == nil {
		return nil, fmt.Errorf("nil bar series: %w", ports.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("structure scan not started: %w: %w", ports.ErrContextCanceled, err)
	}

	d.logger.Debug(ctx, "Structure scan started", map[string]interface{}{
		"bars":        s.Len(),
		"candleRange": d.cfg.CandleRange,
	})

	sc := &scan{
		cfg:          d.cfg,
		logger:       d.logger,
		cur:          series.NewCursor(s),
		structureLow: math.Inf(1),
		colors:       make([]string, 0, s.Len()),
	}
	for {
		if err := sc.step(ctx); err != nil {
			return nil, err
		}
		if !sc.cur.Advance() {
			break
		}
	}

	res := sc.result()
	d.logger.Debug(ctx, "Structure scan finished", map[string]interface{}{
		"bearishZones": len(res.BearishZones),
		"bullishZones": len(res.BullishZones),
		"bosLines":     len(res.BOSLines),
		"finalColor":   res.FinalColor(),
		"trend":        sc.mode.String(),
	})
	return res, nil
}

func (sc *scan) step(ctx context.Context) error {
	c := sc.cur
	idx := c.Index()
	bar := c.Series().Bar(idx)
	low, high, closePrice := bar.Low, bar.High, bar.Close
	sc.stats.Bars++

	if sc.cfg.ShowPreviousDay && idx >= c.LastIndex()-previousDayBars {
		sc.updatePreviousDay(idx)
	}

	sc.structureLow = c.Lowest(low, sc.cfg.CandleRange, 1)
	sc.structureLowIndex = sc.lowestIndex(sc.cfg.CandleRange)

	if err := sc.checkBearishBreak(ctx, idx); err != nil {
		return err
	}
	sc.mitigateBearishZones(ctx, idx, closePrice)
	sc.invalidateBullishZones(ctx, closePrice)

	color := sc.cfg.Palette.BearishTrend
	if sc.mode == domain.TrendBullish {
		color = sc.cfg.Palette.BullishTrend
	}
	if sc.bosCandle {
		color = sc.cfg.Palette.BOSCandle
	}
	sc.colors = append(sc.colors, color)
	sc.bosCandle = false

	if bar.IsBearish() {
		sc.lastDown = high
		sc.lastDownIndex = idx
		sc.lastLow = low
		sc.stats.BearishSwings++
	}
	if bar.IsBullish() {
		sc.lastUpIndex = idx
		sc.lastUpLow = low
		sc.lastHigh = high
		sc.stats.BullishSwings++
	}

	// widen the tracked range so new zones cover the whole excursion
	if high > sc.lastHigh {
		sc.lastHigh = high
	}
	if low < sc.lastLow {
		sc.lastLow = low
	}
	return nil
}

// updatePreviousDay replaces the previous day lines on the first bar of a day.
func (sc *scan) updatePreviousDay(idx int) {
	c := sc.cur
	pdh, ok := c.OnPeriodChange(series.ResolutionDaily, c.High, 1)
	if !ok {
		return
	}
	pdl, _ := c.OnPeriodChange(series.ResolutionDaily, c.Low, 1)

	hi := c.NewLine(domain.LinePreviousHigh, 0, idx, pdh, pdh, sc.cfg.Palette.PreviousDay, levelLineWidth)
	lo := c.NewLine(domain.LinePreviousLow, 0, idx, pdl, pdl, sc.cfg.Palette.PreviousDay, levelLineWidth)
	sc.previousHigh, sc.previousLow = &hi, &lo
	sc.stats.PreviousDayUpdates++
}

// lowestIndex returns the index of the earliest bar holding the lowest low
// among the length bars before the current one.
func (sc *scan) lowestIndex(length int) int {
	c := sc.cur
	minValue := c.Highest(c.High(0), length, 1)
	minIndex := c.Index()
	// far end first so the earliest of equal lows wins
	for i := length; i >= 1; i-- {
		if c.Low(i) < minValue {
			minValue = c.Low(i)
			minIndex = c.Resolve(i)
		}
	}
	return minIndex
}

// checkBearishBreak opens a bearish order block when the low drops through
// the structure low.
func (sc *scan) checkBearishBreak(ctx context.Context, idx int) error {
	c := sc.cur
	crossed, err := c.CrossUnder(series.FieldOperand(series.FieldLow), series.ScalarOperand(sc.structureLow))
	if err != nil {
		return fmt.Errorf("bearish break check at bar %d: %w", idx, err)
	}
	if !crossed || idx-sc.lastUpIndex >= maxSwingAge {
		return nil
	}

	zone := c.NewBox(domain.ZoneBearish, sc.lastUpIndex, c.LastIndex(), sc.lastUpLow, sc.lastHigh,
		zoneBorderWidth, sc.cfg.Palette.BearishZone)
	sc.shortZones = append(sc.shortZones, zone)

	if sc.cfg.ShowBearishBOS {
		sc.bosLines = append(sc.bosLines, c.NewLine(domain.LineBearishBOS, sc.structureLowIndex, idx,
			sc.structureLow, sc.structureLow, sc.cfg.Palette.BearishBOS, bosLineWidth))
	}

	sc.bosCandle = true
	sc.mode = domain.TrendBearish
	sc.stats.BearishBreaks++

	sc.logger.Debug(ctx, "Bearish break of structure", map[string]interface{}{
		"bar":          idx,
		"structureLow": sc.structureLow,
		"zoneLeft":     zone.Left,
		"zoneTop":      zone.Top,
		"zoneBottom":   zone.Bottom,
	})
	return nil
}

// mitigateBearishZones removes bearish zones closed above and opens a bullish
// order block for the break. Index 0 is never inspected.
// TODO: make the first zone prunable once charts no longer need to match
// the published indicator output.
func (sc *scan) mitigateBearishZones(ctx context.Context, idx int, closePrice float64) {
	c := sc.cur
	for i := len(sc.shortZones) - 1; i > 0; i-- {
		zone := sc.shortZones[i]
		if closePrice <= zone.Top {
			continue
		}

		sc.shortZones = append(sc.shortZones[:i], sc.shortZones[i+1:]...)
		sc.stats.BearishMitigated++

		if idx-sc.lastDownIndex >= maxSwingAge || idx <= sc.lastLongIndex {
			continue
		}

		bull := c.NewBox(domain.ZoneBullish, sc.lastDownIndex, c.LastIndex(), sc.lastLow, sc.lastDown,
			zoneBorderWidth, sc.cfg.Palette.BullishZone)
		sc.longZones = append(sc.longZones, bull)

		if sc.cfg.ShowBullishBOS {
			sc.bosLines = append(sc.bosLines, c.NewLine(domain.LineBullishBOS, zone.Left, idx,
				zone.Top, zone.Top, sc.cfg.Palette.BullishBOS, bosLineWidth))
		}

		sc.bosCandle = true
		sc.mode = domain.TrendBullish
		sc.lastLongIndex = idx
		sc.stats.BullishBreaks++

		sc.logger.Debug(ctx, "Bullish break of structure", map[string]interface{}{
			"bar":        idx,
			"brokenTop":  zone.Top,
			"zoneLeft":   bull.Left,
			"zoneTop":    bull.Top,
			"zoneBottom": bull.Bottom,
		})
	}
}

// invalidateBullishZones drops bullish zones closed below. Index 0 is never
// inspected, matching mitigateBearishZones.
func (sc *scan) invalidateBullishZones(ctx context.Context, closePrice float64) {
	for i := len(sc.longZones) - 1; i > 0; i-- {
		if closePrice >= sc.longZones[i].Bottom {
			continue
		}
		sc.logger.Debug(ctx, "Bullish order block invalidated", map[string]interface{}{
			"bar":      sc.cur.Index(),
			"zoneLeft": sc.longZones[i].Left,
		})
		sc.longZones = append(sc.longZones[:i], sc.longZones[i+1:]...)
		sc.stats.BullishInvalidated++
	}
}

func (sc *scan) result() *Result {
	res := &Result{
		BearishZones: sc.shortZones,
		BullishZones: sc.longZones,
		BOSLines:     sc.bosLines,
		PreviousHigh: sc.previousHigh,
		PreviousLow:  sc.previousLow,
		Colors:       sc.colors,
		Stats:        sc.stats,
	}
	if res.BearishZones == nil {
		res.BearishZones = []domain.Zone{}
	}
	if res.BullishZones == nil {
		res.BullishZones = []domain.Zone{}
	}
	if res.BOSLines == nil {
		res.BOSLines = []domain.Line{}
	}
	return res
}
