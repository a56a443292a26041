package calculator

import "StockPulse/internal/model"

// MinBars is the fewest candles the analyzer and scorer accept.
const MinBars = 5

// SMA computes the simple moving average of closes over a trailing window.
// The first point is emitted at index n-1; shorter input yields an empty series.
func SMA(candles []model.Candle, n int) model.IndicatorSeries {
	if n <= 0 || len(candles) < n {
		return model.IndicatorSeries{}
	}
	out := make(model.IndicatorSeries, 0, len(candles)-n+1)
	sum := 0.0
	for i, c := range candles {
		sum += c.Close
		if i >= n {
			sum -= candles[i-n].Close
		}
		if i >= n-1 {
			out = append(out, model.IndicatorPoint{Time: c.Time, Value: sum / float64(n)})
		}
	}
	return out
}
