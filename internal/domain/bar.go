package domain

import "time"

// Bar represents a single OHLC price record.
type Bar struct {
	Date  time.Time `json:"date"`  // Calendar date (or open time) of the bar
	Open  float64   `json:"open"`  // Opening price
	High  float64   `json:"high"`  // Highest price
	Low   float64   `json:"low"`   // Lowest price
	Close float64   `json:"close"` // Closing price
}

// IsBullish reports whether the bar closed above its open.
func (b Bar) IsBullish() bool {
	return b.Close > b.Open
}

// IsBearish reports whether the bar closed below its open.
func (b Bar) IsBearish() bool {
	return b.Close < b.Open
}
