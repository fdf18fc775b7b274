package domain

// ZoneKind represents the direction of an order block zone.
type ZoneKind string

const (
	ZoneBullish ZoneKind = "bullish"
	ZoneBearish ZoneKind = "bearish"
)

// LineKind identifies what a horizontal line annotation marks.
type LineKind string

const (
	LineBearishBOS   LineKind = "bearish_bos"
	LineBullishBOS   LineKind = "bullish_bos"
	LinePreviousHigh LineKind = "previous_day_high"
	LinePreviousLow  LineKind = "previous_day_low"
)

// ShapeType is the renderer-facing shape discriminator.
type ShapeType string

const (
	ShapeRect ShapeType = "rect"
	ShapeLine ShapeType = "line"
)

// TrendMode is the candle coloring mode driven by the last break of structure.
type TrendMode int

const (
	TrendBearish TrendMode = iota
	TrendBullish
)

// String returns the string representation of the TrendMode.
func (m TrendMode) String() string {
	if m == TrendBullish {
		return "bullish"
	}
	return "bearish"
}
