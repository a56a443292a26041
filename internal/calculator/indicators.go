package calculator

import "StockPulse/internal/model"

// Indicator windows used throughout the analysis.
const (
	ShortWindow  = 5
	MediumWindow = 20
	LongWindow   = 60
	RSIPeriod    = 14
)

// IndicatorSet holds the full indicator series plus their latest readings.
type IndicatorSet struct {
	SMA5   model.IndicatorSeries
	SMA20  model.IndicatorSeries
	SMA60  model.IndicatorSeries
	RSI14  model.IndicatorSeries
	Latest model.MarketIndicators
}

// Compute derives every indicator from one candle and volume sequence.
// Readings whose warm-up window is not satisfied are flagged unavailable.
func Compute(candles []model.Candle, volumes []model.VolumeBar) IndicatorSet {
	set := IndicatorSet{
		SMA5:  SMA(candles, ShortWindow),
		SMA20: SMA(candles, MediumWindow),
		SMA60: SMA(candles, LongWindow),
		RSI14: RSI(candles, RSIPeriod),
	}
	ind := &set.Latest
	if n := len(candles); n > 0 {
		ind.Close = candles[n-1].Close
	}
	ind.SMA5, ind.HasSMA5 = set.SMA5.Last()
	ind.SMA20, ind.HasSMA20 = set.SMA20.Last()
	ind.SMA60, ind.HasSMA60 = set.SMA60.Last()
	ind.RSI14, ind.HasRSI = set.RSI14.Last()
	ind.SpikeRatio, _, ind.HasVolume = SpikeRatio(volumes, VolumeWindow)
	return set
}
