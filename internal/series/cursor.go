package series

import (
	"fmt"
	"time"

	"orderBlocks/internal/domain"
	"orderBlocks/internal/ports"
)

// Resolution is the period used when resampling on a period boundary.
type Resolution string

const (
	// ResolutionDaily fires on the first bar of each calendar day.
	ResolutionDaily Resolution = "D"
)

// Cursor walks a Series one bar at a time. Offsets passed to its accessors
// count bars into the past: 0 is the current bar, 1 the previous one.
type Cursor struct {
	s     *Series
	index int
}

// NewCursor returns a cursor positioned on the first bar of s.
func NewCursor(s *Series) *Cursor {
	return &Cursor{s: s}
}

// Series returns the series the cursor walks.
func (c *Cursor) Series() *Series {
	return c.s
}

// Index returns the current bar index.
func (c *Cursor) Index() int {
	return c.index
}

// LastIndex returns the index of the last bar of the series.
func (c *Cursor) LastIndex() int {
	return c.s.LastIndex()
}

// Resolve converts an offset into the past to an absolute, clamped index.
func (c *Cursor) Resolve(offset int) int {
	return c.s.Clamp(c.index - offset)
}

// Advance moves to the next bar. It returns false, without moving, when the
// cursor is already on the last bar.
func (c *Cursor) Advance() bool {
	if c.index < c.s.LastIndex() {
		c.index++
		return true
	}
	return false
}

// Field returns field f of the bar offset bars before the current one.
func (c *Cursor) Field(f Field, offset int) float64 {
	b := c.s.bars[c.Resolve(offset)]
	switch f {
	case FieldOpen:
		return b.Open
	case FieldHigh:
		return b.High
	case FieldLow:
		return b.Low
	default:
		return b.Close
	}
}

// Open, High, Low and Close are shorthands for Field.
func (c *Cursor) Open(offset int) float64  { return c.Field(FieldOpen, offset) }
func (c *Cursor) High(offset int) float64  { return c.Field(FieldHigh, offset) }
func (c *Cursor) Low(offset int) float64   { return c.Field(FieldLow, offset) }
func (c *Cursor) Close(offset int) float64 { return c.Field(FieldClose, offset) }

// DateOf returns the date of the bar at the absolute (clamped) index.
func (c *Cursor) DateOf(index int) time.Time {
	return c.s.DateOf(index)
}

// window returns the half-open absolute index range
// [Resolve(offset+length), Resolve(offset-1)).
func (c *Cursor) window(length, offset int) (int, int) {
	return c.Resolve(offset + length), c.Resolve(offset - 1)
}

// Lowest returns the lowest low in the window of length bars ending offset
// bars back. An empty window yields def.
func (c *Cursor) Lowest(def float64, length, offset int) float64 {
	start, end := c.window(length, offset)
	if start >= end {
		return def
	}
	v := c.s.bars[start].Low
	for i := start + 1; i < end; i++ {
		if c.s.bars[i].Low < v {
			v = c.s.bars[i].Low
		}
	}
	return v
}

// Highest returns the highest high in the window of length bars ending
// offset bars back. An empty window yields def.
func (c *Cursor) Highest(def float64, length, offset int) float64 {
	start, end := c.window(length, offset)
	if start >= end {
		return def
	}
	v := c.s.bars[start].High
	for i := start + 1; i < end; i++ {
		if c.s.bars[i].High > v {
			v = c.s.bars[i].High
		}
	}
	return v
}

// CrossUnder reports whether x moved below y on the current bar: x is below
// y now and was above it one bar ago. Comparing two scalars is a caller
// error.
func (c *Cursor) CrossUnder(x, y Operand) (bool, error) {
	switch {
	case x.isScalar && y.isScalar:
		return false, fmt.Errorf("crossunder(%s, %s) needs at least one bar field: %w", x, y, ports.ErrContractViolation)
	case y.isScalar:
		return x.at(c, 0) < y.value && y.value < x.at(c, 1), nil
	case x.isScalar:
		return y.at(c, 0) > x.value && x.value > y.at(c, 1), nil
	default:
		return x.at(c, 0) < y.at(c, 0) && x.at(c, 1) > y.at(c, 1), nil
	}
}

// OnPeriodChange evaluates compute(lookback) on the first bar of a new period and
// reports whether it fired. Only ResolutionDaily is supported; days are
// compared by day of month, so the previous bar is read by absolute index.
func (c *Cursor) OnPeriodChange(res Resolution, compute func(offset int) float64, lookback int) (float64, bool) {
	if res != ResolutionDaily {
		return 0, false
	}
	if c.s.DateOf(c.index-1).Day() == c.s.DateOf(c.index).Day() {
		return 0, false
	}
	return compute(lookback), true
}

// NewBox builds a zone spanning bars [left, right] between bottom and top.
func (c *Cursor) NewBox(kind domain.ZoneKind, left, right int, bottom, top float64, lineWidth int, fillColor string) domain.Zone {
	return domain.Zone{
		Kind:      kind,
		Left:      left,
		Right:     right,
		Top:       top,
		Bottom:    bottom,
		LineWidth: lineWidth,
		FillColor: fillColor,
	}
}

// NewLine builds a line spanning bars [left, right] from y0 to y1.
func (c *Cursor) NewLine(kind domain.LineKind, left, right int, y0, y1 float64, color string, width int) domain.Line {
	return domain.Line{
		Kind:  kind,
		Left:  left,
		Right: right,
		Y0:    y0,
		Y1:    y1,
		Color: color,
		Width: width,
	}
}
