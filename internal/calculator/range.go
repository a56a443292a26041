package calculator

import (
	"math"

	"StockPulse/internal/model"
)

// HighLow scans the most recent window candles and returns the highest high and lowest low.
// ok is false when there are no candles.
func HighLow(candles []model.Candle, window int) (high, low float64, ok bool) {
	if len(candles) == 0 || window <= 0 {
		return 0, 0, false
	}
	start := len(candles) - window
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, c := range candles[start:] {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	return high, low, true
}

// Near reports whether price is within tolerance (as a fraction) of level.
func Near(price, level, tolerance float64) bool {
	if level == 0 {
		return false
	}
	return math.Abs(price-level)/level <= tolerance
}

// Tail returns at most the last n candles.
func Tail(candles []model.Candle, n int) []model.Candle {
	if len(candles) <= n {
		return candles
	}
	return candles[len(candles)-n:]
}
