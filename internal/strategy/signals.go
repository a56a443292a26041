package strategy

import (
	"math"

	"StockPulse/internal/model"
)

// NearCrossTolerance is how close MA5 must sit to MA20 to count as a near cross.
const NearCrossTolerance = 0.01

// DetectCrossover compares SMA5 and SMA20 at their latest two points.
// Both series end at the latest candle, so their tails are time-aligned.
func DetectCrossover(sma5, sma20 model.IndicatorSeries) model.Crossover {
	if len(sma5) < 2 || len(sma20) < 2 {
		return model.CrossoverNone
	}
	prevFast, curFast := sma5[len(sma5)-2].Value, sma5[len(sma5)-1].Value
	prevSlow, curSlow := sma20[len(sma20)-2].Value, sma20[len(sma20)-1].Value

	switch {
	case prevFast < prevSlow && curFast > curSlow:
		return model.CrossoverBullish
	case prevFast > prevSlow && curFast < curSlow:
		return model.CrossoverBearish
	default:
		return model.CrossoverNone
	}
}

// Alignment classifies price against MA5, MA20 and MA60.
func Alignment(ind model.MarketIndicators) model.Alignment {
	if !ind.HasSMA5 || !ind.HasSMA20 || !ind.HasSMA60 {
		return model.AlignmentUnknown
	}
	switch {
	case ind.Close > ind.SMA5 && ind.SMA5 > ind.SMA20 && ind.SMA20 > ind.SMA60:
		return model.AlignmentBullish
	case ind.Close < ind.SMA5 && ind.SMA5 < ind.SMA20 && ind.SMA20 < ind.SMA60:
		return model.AlignmentBearish
	default:
		return model.AlignmentMixed
	}
}

// NearCross reports MA5 within NearCrossTolerance of MA20.
func NearCross(ind model.MarketIndicators) bool {
	if !ind.HasSMA5 || !ind.HasSMA20 || ind.SMA20 == 0 {
		return false
	}
	return math.Abs(ind.SMA5-ind.SMA20)/ind.SMA20 < NearCrossTolerance
}
