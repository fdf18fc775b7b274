// Package series holds the immutable bar series and the cursor used to walk it.
//
// All index arithmetic saturates: asking for a bar before the first one or
// after the last one yields the first or last bar instead of an error.
package series

import (
	"fmt"
	"time"

	"orderBlocks/internal/domain"
	"orderBlocks/internal/ports"
)

// Series is an immutable, chronologically ordered, non-empty bar collection.
type Series struct {
	bars []domain.Bar
}

// New validates bars and copies them into a Series.
func New(bars []domain.Bar) (*Series, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("empty bar series: %w", ports.ErrInvalidInput)
	}
	for i := 1; i < len(bars); i++ {
		if bars[i].Date.Before(bars[i-1].Date) {
			return nil, fmt.Errorf("bar %d dated %s precedes bar %d dated %s: %w",
				i, bars[i].Date.Format(time.RFC3339), i-1, bars[i-1].Date.Format(time.RFC3339), ports.ErrInvalidInput)
		}
	}

	cp := make([]domain.Bar, len(bars))
	copy(cp, bars)
	return &Series{bars: cp}, nil
}

// Len returns the number of bars.
func (s *Series) Len() int {
	return len(s.bars)
}

// LastIndex returns the index of the last bar.
func (s *Series) LastIndex() int {
	return len(s.bars) - 1
}

// Clamp saturates idx into [0, LastIndex].
func (s *Series) Clamp(idx int) int {
	if idx > s.LastIndex() {
		return s.LastIndex()
	}
	if idx < 0 {
		return 0
	}
	return idx
}

// Bar returns the bar at the clamped index.
func (s *Series) Bar(idx int) domain.Bar {
	return s.bars[s.Clamp(idx)]
}

// Bars returns a copy of the underlying bars.
func (s *Series) Bars() []domain.Bar {
	cp := make([]domain.Bar, len(s.bars))
	copy(cp, s.bars)
	return cp
}

// DateOf returns the date of the bar at the clamped index.
func (s *Series) DateOf(idx int) time.Time {
	return s.bars[s.Clamp(idx)].Date
}

// ZoneShape resolves a zone's bar indices to dates.
func (s *Series) ZoneShape(z domain.Zone) domain.Shape {
	return domain.Shape{
		Type:      domain.ShapeRect,
		Kind:      string(z.Kind),
		X0:        s.DateOf(z.Left),
		X1:        s.DateOf(z.Right),
		Y0:        z.Bottom,
		Y1:        z.Top,
		XRef:      "x",
		YRef:      "y",
		LineWidth: z.LineWidth,
		FillColor: z.FillColor,
	}
}

// LineShape resolves a line's bar indices to dates.
func (s *Series) LineShape(l domain.Line) domain.Shape {
	return domain.Shape{
		Type:      domain.ShapeLine,
		Kind:      string(l.Kind),
		X0:        s.DateOf(l.Left),
		X1:        s.DateOf(l.Right),
		Y0:        l.Y0,
		Y1:        l.Y1,
		XRef:      "x",
		YRef:      "y",
		LineWidth: l.Width,
		LineColor: l.Color,
	}
}
