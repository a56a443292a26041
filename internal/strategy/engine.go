package strategy

import "StockPulse/internal/model"

// Tiers maps the integer score onto a sentiment label, checked top to bottom.
var Tiers = []struct {
	MinScore int
	Label    model.Sentiment
}{
	{3, model.StrongBullish},
	{2, model.MildBullish},
	{-1, model.Neutral},
	{-2, model.MildBearish},
}

// DefaultLabel is used for scores of -3 and below.
var DefaultLabel = model.StrongBearish

// ActionHints is the fixed action hint for each label.
var ActionHints = map[model.Sentiment]string{
	model.StrongBullish: "Momentum and trend agree to the upside; consider scaling in on pullbacks toward MA5/MA20 and trail a stop below support.",
	model.MildBullish:   "Bias is constructive but not confirmed; wait for a pullback or a volume-backed breakout before adding.",
	model.Neutral:       "Signals are mixed; stay on the sidelines or trade the range between support and resistance.",
	model.MildBearish:   "Bias is weakening; reduce exposure on rallies toward MA20/MA60 and avoid new long entries.",
	model.StrongBearish: "Trend and momentum agree to the downside; stay defensive and wait for the structure to stabilize.",
}

// mapLabel maps a total score to a sentiment label.
func mapLabel(score int) model.Sentiment {
	for _, t := range Tiers {
		if score >= t.MinScore {
			return t.Label
		}
	}
	return DefaultLabel
}

// Evaluate scores the latest indicator readings. It is a pure function:
// identical inputs always yield the identical label and action hint.
func Evaluate(ind model.MarketIndicators) model.SentimentResult {
	factors := []model.FactorScore{
		scoreShortTrend(ind),
		scoreMediumTrend(ind),
		scoreMomentum(ind),
		scorePricePosition(ind),
		scoreVolume(ind),
	}

	total := 0
	for _, f := range factors {
		total += f.Score
	}

	label := mapLabel(total)
	return model.SentimentResult{
		Factors:    factors,
		Score:      total,
		Label:      label,
		ActionHint: ActionHints[label],
	}
}
