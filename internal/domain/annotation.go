package domain

import "time"

// Zone is an order block: a price range anchored at the bar that started the
// swing which was later broken. Coordinates are raw bar indices.
type Zone struct {
	Kind      ZoneKind
	Left      int     // Bar index of the originating swing
	Right     int     // Last bar index of the series at creation time
	Top       float64 // Upper price boundary
	Bottom    float64 // Lower price boundary
	LineWidth int     // Border width
	FillColor string  // CSS color used to fill the zone
}

// Line is a horizontal marker (break of structure or previous day level).
// Coordinates are raw bar indices.
type Line struct {
	Kind  LineKind
	Left  int
	Right int
	Y0    float64
	Y1    float64
	Color string
	Width int
}

// Shape is a zone or line resolved to calendar coordinates for a renderer.
type Shape struct {
	Type      ShapeType `json:"type"`
	Kind      string    `json:"kind"`
	X0        time.Time `json:"x0"`
	X1        time.Time `json:"x1"`
	Y0        float64   `json:"y0"`
	Y1        float64   `json:"y1"`
	XRef      string    `json:"xref"`
	YRef      string    `json:"yref"`
	LineWidth int       `json:"line_width"`
	FillColor string    `json:"fillcolor,omitempty"`
	LineColor string    `json:"line_color,omitempty"`
}

// Annotation is either a Zone or a Line. Exactly one of the pointers is set.
type Annotation struct {
	Zone *Zone
	Line *Line
}
