// Package analyzer derives structural classifications from a candle sequence:
// trend regime, support/resistance band and volume anomaly.
package analyzer

import (
	"StockPulse/internal/calculator"
	"StockPulse/internal/model"
)

const (
	// StructureWindow bounds the trend analysis to the most recent bars.
	StructureWindow = 60
	// LevelWindow bounds the support/resistance scan.
	LevelWindow = 20
	// NearTolerance is the fractional distance counted as "near" a level.
	NearTolerance = 0.01
	// ATRPeriod is the risk-margin period reported with the levels.
	ATRPeriod = 14
	// StreakLength is the number of consecutive comparisons that flags a streak.
	StreakLength = 3
)

// Analyze runs the three independent sub-analyses.
func Analyze(candles []model.Candle, volumes []model.VolumeBar) model.Structure {
	return model.Structure{
		Trend:  AnalyzeTrend(candles),
		Levels: AnalyzeLevels(candles),
		Volume: AnalyzeVolume(candles, volumes),
	}
}

// AnalyzeTrend counts higher/lower highs and lows over the structure window.
func AnalyzeTrend(candles []model.Candle) model.TrendStructure {
	window := calculator.Tail(candles, StructureWindow)
	ts := model.TrendStructure{Bars: len(window), Regime: model.RegimeRanging}

	for i := 1; i < len(window); i++ {
		prev, cur := window[i-1], window[i]
		switch {
		case cur.High > prev.High:
			ts.HigherHighs++
		case cur.High < prev.High:
			ts.LowerHighs++
		}
		switch {
		case cur.Low > prev.Low:
			ts.HigherLows++
		case cur.Low < prev.Low:
			ts.LowerLows++
		}
	}

	switch {
	case ts.HigherHighs > ts.LowerHighs && ts.HigherLows > ts.LowerLows:
		ts.Regime = model.RegimeAscending
	case ts.LowerHighs > ts.HigherHighs && ts.LowerLows > ts.HigherLows:
		ts.Regime = model.RegimeDescending
	}

	ts.RisingHighStreak = streak(window, func(prev, cur model.Candle) bool { return cur.High >= prev.High })
	ts.FallingLowStreak = streak(window, func(prev, cur model.Candle) bool { return cur.Low <= prev.Low })
	ts.OverextensionRisk = ts.RisingHighStreak >= StreakLength
	ts.OversoldRebound = ts.FallingLowStreak >= StreakLength
	return ts
}

// streak counts consecutive satisfied comparisons walking back from the latest bar.
func streak(candles []model.Candle, holds func(prev, cur model.Candle) bool) int {
	n := 0
	for i := len(candles) - 1; i > 0; i-- {
		if !holds(candles[i-1], candles[i]) {
			break
		}
		n++
	}
	return n
}

// AnalyzeLevels reports the recent support/resistance band with an ATR margin.
func AnalyzeLevels(candles []model.Candle) model.SupportResistance {
	window := calculator.Tail(candles, LevelWindow)
	sr := model.SupportResistance{
		Bars:       len(window),
		RiskMargin: calculator.ATR(candles, ATRPeriod),
	}
	high, low, ok := calculator.HighLow(window, LevelWindow)
	if !ok {
		return sr
	}
	sr.Resistance = high
	sr.Support = low
	sr.Close = window[len(window)-1].Close
	sr.NearResistance = calculator.Near(sr.Close, high, NearTolerance)
	sr.NearSupport = calculator.Near(sr.Close, low, NearTolerance)
	return sr
}

// AnalyzeVolume classifies the latest volume spike and candle body dominance.
func AnalyzeVolume(candles []model.Candle, volumes []model.VolumeBar) model.VolumeFinding {
	vf := model.VolumeFinding{Class: model.VolumeUnavailable, Body: model.BodyModerate}

	if len(volumes) > 0 {
		vf.Current = volumes[len(volumes)-1].Value
		vf.Direction = volumes[len(volumes)-1].Direction
	}
	ratio, mean, ok := calculator.SpikeRatio(volumes, calculator.VolumeWindow)
	vf.Mean = mean
	if ok {
		vf.Available = true
		vf.SpikeRatio = ratio
		vf.Class = classifySpike(ratio)
	}

	if len(candles) > 0 {
		vf.BodyRatio = BodyRatio(candles[len(candles)-1])
		vf.Body = classifyBody(vf.BodyRatio)
	}
	return vf
}

func classifySpike(ratio float64) model.VolumeClass {
	switch {
	case ratio >= 2.0:
		return model.VolumeExpansion
	case ratio <= 0.6:
		return model.VolumeContraction
	default:
		return model.VolumeNormal
	}
}

// BodyRatio is |close-open| / (high-low); a zero range uses a denominator of 1.
func BodyRatio(c model.Candle) float64 {
	rng := c.High - c.Low
	if rng == 0 {
		rng = 1
	}
	body := c.Close - c.Open
	if body < 0 {
		body = -body
	}
	return body / rng
}

func classifyBody(ratio float64) model.BodyClass {
	switch {
	case ratio >= 0.7:
		return model.BodyDecisive
	case ratio <= 0.3:
		return model.BodyIndecisive
	default:
		return model.BodyModerate
	}
}
