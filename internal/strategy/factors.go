package strategy

import (
	"fmt"

	"StockPulse/internal/model"
)

func skipped(name, why string) model.FactorScore {
	return model.FactorScore{Name: name, Skipped: true, Commentary: why}
}

// scoreShortTrend compares SMA5 with SMA20.
func scoreShortTrend(ind model.MarketIndicators) model.FactorScore {
	const name = "MA5 vs MA20"
	if !ind.HasSMA5 || !ind.HasSMA20 {
		return skipped(name, "MA unavailable")
	}
	if ind.SMA5 > ind.SMA20 {
		return model.FactorScore{Name: name, Score: 1, Commentary: fmt.Sprintf("MA5 %.2f above MA20 %.2f", ind.SMA5, ind.SMA20)}
	}
	return model.FactorScore{Name: name, Score: -1, Commentary: fmt.Sprintf("MA5 %.2f at or below MA20 %.2f", ind.SMA5, ind.SMA20)}
}

// scoreMediumTrend compares SMA20 with SMA60.
func scoreMediumTrend(ind model.MarketIndicators) model.FactorScore {
	const name = "MA20 vs MA60"
	if !ind.HasSMA20 || !ind.HasSMA60 {
		return skipped(name, "MA unavailable")
	}
	if ind.SMA20 > ind.SMA60 {
		return model.FactorScore{Name: name, Score: 1, Commentary: fmt.Sprintf("MA20 %.2f above MA60 %.2f", ind.SMA20, ind.SMA60)}
	}
	return model.FactorScore{Name: name, Score: -1, Commentary: fmt.Sprintf("MA20 %.2f at or below MA60 %.2f", ind.SMA20, ind.SMA60)}
}

// scoreMomentum scores RSI(14): >= 60 bullish, <= 40 bearish, otherwise flat.
func scoreMomentum(ind model.MarketIndicators) model.FactorScore {
	const name = "RSI(14)"
	if !ind.HasRSI {
		return skipped(name, "RSI unavailable")
	}
	var score int
	switch {
	case ind.RSI14 >= 60:
		score = 1
	case ind.RSI14 <= 40:
		score = -1
	}
	return model.FactorScore{Name: name, Score: score, Commentary: fmt.Sprintf("RSI=%.1f", ind.RSI14)}
}

// scorePricePosition compares the last close with SMA60.
func scorePricePosition(ind model.MarketIndicators) model.FactorScore {
	const name = "Close vs MA60"
	if !ind.HasSMA60 {
		return skipped(name, "MA60 unavailable")
	}
	if ind.Close > ind.SMA60 {
		return model.FactorScore{Name: name, Score: 1, Commentary: fmt.Sprintf("close %.2f above MA60", ind.Close)}
	}
	return model.FactorScore{Name: name, Score: -1, Commentary: fmt.Sprintf("close %.2f at or below MA60", ind.Close)}
}

// scoreVolume scores the spike ratio; skipped when the volume mean is zero.
func scoreVolume(ind model.MarketIndicators) model.FactorScore {
	const name = "Volume spike"
	if !ind.HasVolume {
		return skipped(name, "volume mean unavailable")
	}
	var score int
	switch {
	case ind.SpikeRatio >= 1.5:
		score = 1
	case ind.SpikeRatio <= 0.7:
		score = -1
	}
	return model.FactorScore{Name: name, Score: score, Commentary: fmt.Sprintf("spike=%.2fx", ind.SpikeRatio)}
}
