package structure

import (
	"orderBlocks/internal/domain"
	"orderBlocks/internal/series"
)

// Stats counts what happened during a scan.
type Stats struct {
	Bars               int
	BullishSwings      int // Bars recorded as the latest bullish swing
	BearishSwings      int // Bars recorded as the latest bearish swing
	BearishBreaks      int // Bearish order blocks created
	BullishBreaks      int // Bullish order blocks created
	BearishMitigated   int // Bearish order blocks removed by a close above their top
	BullishInvalidated int // Bullish order blocks removed by a close below their bottom
	PreviousDayUpdates int
}

// Result is the output of one scan.
type Result struct {
	BearishZones []domain.Zone // Surviving bearish order blocks, oldest first
	BullishZones []domain.Zone // Surviving bullish order blocks, oldest first
	BOSLines     []domain.Line // Break-of-structure lines in creation order
	PreviousHigh *domain.Line  // Active previous day high, if any
	PreviousLow  *domain.Line  // Active previous day low, if any
	Colors       []string      // Increasing-candle color per bar index
	Stats        Stats
}

// FinalColor returns the color resolved for the last bar, which is the value
// a renderer applies to the increasing-candle fill.
func (r *Result) FinalColor() string {
	if len(r.Colors) == 0 {
		return ""
	}
	return r.Colors[len(r.Colors)-1]
}

// Zones returns the surviving bearish zones followed by the bullish ones.
func (r *Result) Zones() []domain.Zone {
	zones := make([]domain.Zone, 0, len(r.BearishZones)+len(r.BullishZones))
	zones = append(zones, r.BearishZones...)
	return append(zones, r.BullishZones...)
}

// Annotations returns everything to draw in render order: bearish zones,
// bullish zones, break lines, then the previous day high/low pair.
func (r *Result) Annotations() []domain.Annotation {
	out := make([]domain.Annotation, 0, len(r.BearishZones)+len(r.BullishZones)+len(r.BOSLines)+2)
	for _, z := range r.Zones() {
		z := z
		out = append(out, domain.Annotation{Zone: &z})
	}
	for _, l := range r.BOSLines {
		l := l
		out = append(out, domain.Annotation{Line: &l})
	}
	if r.PreviousHigh != nil && r.PreviousLow != nil {
		hi, lo := *r.PreviousHigh, *r.PreviousLow
		out = append(out, domain.Annotation{Line: &hi}, domain.Annotation{Line: &lo})
	}
	return out
}

// Shapes resolves Annotations to date coordinates using s, the series the
// result was computed from.
func (r *Result) Shapes(s *series.Series) []domain.Shape {
	annotations := r.Annotations()
	shapes := make([]domain.Shape, 0, len(annotations))
	for _, a := range annotations {
		if a.Zone != nil {
			shapes = append(shapes, s.ZoneShape(*a.Zone))
			continue
		}
		shapes = append(shapes, s.LineShape(*a.Line))
	}
	return shapes
}
