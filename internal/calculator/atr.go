package calculator

import (
	"math"

	"StockPulse/internal/model"
)

// TrueRange of bar i against the previous close. i must be >= 1.
func TrueRange(candles []model.Candle, i int) float64 {
	c := candles[i]
	prevClose := candles[i-1].Close
	return math.Max(c.High-c.Low, math.Max(math.Abs(c.High-prevClose), math.Abs(c.Low-prevClose)))
}

// ATR averages the true range over the trailing min(period, available) bars.
// Fewer than period+1 candles is reported as unavailable rather than zero.
func ATR(candles []model.Candle, period int) model.ATRResult {
	if period <= 0 || len(candles) < period+1 {
		return model.ATRResult{}
	}
	available := len(candles) - 1
	n := period
	if available < n {
		n = available
	}
	sum := 0.0
	for i := len(candles) - n; i < len(candles); i++ {
		sum += TrueRange(candles, i)
	}
	return model.ATRResult{Value: sum / float64(n), Available: true}
}
