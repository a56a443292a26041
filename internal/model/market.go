package model

import "time"

// Candle represents a single OHLC bar. Time is epoch seconds.
type Candle struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Direction of a volume bar, taken from its candle body.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// VolumeBar is co-indexed with the candle of the same Time.
type VolumeBar struct {
	Time      int64     `json:"time"`
	Value     float64   `json:"value"`
	Direction Direction `json:"direction"`
}

// DirectionOf returns up when the candle closed at or above its open.
func DirectionOf(c Candle) Direction {
	if c.Close >= c.Open {
		return DirectionUp
	}
	return DirectionDown
}

// Quote is a snapshot price for a symbol.
type Quote struct {
	Symbol string  `json:"symbol"`
	Last   float64 `json:"last"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Time   int64   `json:"time"`
	Source string  `json:"source"`
}

// Series holds the normalized chart data for one request.
type Series struct {
	Symbol    string
	Interval  string
	Range     string
	Candles   []Candle
	Volumes   []VolumeBar
	FetchedAt time.Time
}

// Closes extracts the close prices in order.
func Closes(candles []Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
