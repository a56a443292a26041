package model

// IndicatorPoint is one value of an indicator series.
type IndicatorPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// IndicatorSeries is ordered by Time and starts once the warm-up window is satisfied.
type IndicatorSeries []IndicatorPoint

// Last returns the most recent value, false when the series is empty.
func (s IndicatorSeries) Last() (float64, bool) {
	if len(s) == 0 {
		return 0, false
	}
	return s[len(s)-1].Value, true
}

// ATRResult distinguishes "not computable" from a legitimate zero volatility.
type ATRResult struct {
	Value     float64 `json:"value"`
	Available bool    `json:"available"`
}

// MarketIndicators holds the latest indicator readings used by the scorer.
type MarketIndicators struct {
	Close      float64
	SMA5       float64
	SMA20      float64
	SMA60      float64
	RSI14      float64
	SpikeRatio float64

	HasSMA5   bool
	HasSMA20  bool
	HasSMA60  bool
	HasRSI    bool
	HasVolume bool
}
