package advisory

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"StockPulse/internal/model"
)

// Disclaimer closes every report.
const Disclaimer = "Disclaimer: for educational illustration only, not investment advice."

// Compose renders the authoritative rule-based report. Line order is fixed:
// trend structure, support/resistance, technical summary, volume, sentiment,
// disclaimer.
func Compose(r model.AnalysisReport) string {
	lines := []string{
		trendLine(r.Trend),
		levelsLine(r.Levels),
		technicalLine(r.Trend.Regime, r.Technical),
		volumeLine(r.Volume),
		sentimentLine(r.Sentiment),
		Disclaimer,
	}
	return strings.Join(lines, "\n")
}

func trendLine(t model.TrendStructure) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Trend structure: %s over %d bars (higher highs %d, lower highs %d, higher lows %d, lower lows %d)",
		t.Regime, t.Bars, t.HigherHighs, t.LowerHighs, t.HigherLows, t.LowerLows)
	if t.OverextensionRisk {
		fmt.Fprintf(&b, "; overextension risk after %d rising highs", t.RisingHighStreak)
	}
	if t.OversoldRebound {
		fmt.Fprintf(&b, "; oversold rebound watch after %d falling lows", t.FallingLowStreak)
	}
	b.WriteString(".")
	return b.String()
}

func levelsLine(l model.SupportResistance) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Support/resistance (last %d bars): support %.2f, resistance %.2f", l.Bars, l.Support, l.Resistance)
	switch {
	case l.NearSupport && l.NearResistance:
		b.WriteString("; price is pinned inside a narrow band")
	case l.NearSupport:
		b.WriteString("; price is testing support")
	case l.NearResistance:
		b.WriteString("; price is testing resistance")
	}
	if l.RiskMargin.Available {
		fmt.Fprintf(&b, "; ATR(14) risk margin %.2f", l.RiskMargin.Value)
	} else {
		b.WriteString("; ATR unavailable")
	}
	b.WriteString(".")
	return b.String()
}

func technicalLine(regime model.TrendRegime, t model.TechnicalSummary) string {
	parts := []string{string(regime)}
	if t.HasSMA20 {
		side := "above"
		if t.Close < t.SMA20 {
			side = "below"
		}
		parts = append(parts, fmt.Sprintf("close %.2f %s MA20 %.2f", t.Close, side, t.SMA20))
	}
	parts = append(parts, string(t.Alignment), string(t.Crossover))
	if t.NearCross {
		parts = append(parts, "MA5 within 1% of MA20")
	}
	if t.HasRSI {
		parts = append(parts, fmt.Sprintf("RSI(14) %.1f %s", t.RSI, rsiReading(t.RSI)))
	} else {
		parts = append(parts, "RSI unavailable")
	}
	return "Technical: " + strings.Join(parts, "; ") + "."
}

func rsiReading(rsi float64) string {
	switch {
	case rsi >= 70:
		return "(overbought)"
	case rsi >= 60:
		return "(strong momentum)"
	case rsi <= 30:
		return "(oversold)"
	case rsi <= 40:
		return "(weak momentum)"
	default:
		return "(neutral)"
	}
}

func volumeLine(v model.VolumeFinding) string {
	if !v.Available {
		return fmt.Sprintf("Volume: unavailable; latest bar is %s (body %.0f%%).", v.Body, v.BodyRatio*100)
	}
	return fmt.Sprintf("Volume: latest %s vs 20-bar mean %s (%.2fx, %s); latest bar is %s (body %.0f%%, %s).",
		humanize.Comma(int64(v.Current)), humanize.Comma(int64(v.Mean)), v.SpikeRatio, v.Class,
		v.Body, v.BodyRatio*100, v.Direction)
}

func sentimentLine(s model.SentimentResult) string {
	return fmt.Sprintf("Sentiment: %s (score %+d). %s", s.Label, s.Score, s.ActionHint)
}

// BuildPrompt builds the enrichment prompt from the structured report.
func BuildPrompt(r model.AnalysisReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a market commentator. Write at most five short sentences of plain-language commentary for %s (%s bars, interval %s).\n",
		r.Symbol, humanize.Comma(int64(r.Bars)), r.Interval)
	b.WriteString("Use only the facts below. Do not give price targets or recommend trades.\n\n")
	fmt.Fprintf(&b, "Last price: %.2f (source %s)\n", r.Quote.Last, r.Quote.Source)
	b.WriteString(Compose(r))
	b.WriteString("\n\nFactors:\n")
	for _, f := range r.Sentiment.Factors {
		if f.Skipped {
			fmt.Fprintf(&b, "- %s: skipped (%s)\n", f.Name, f.Commentary)
			continue
		}
		fmt.Fprintf(&b, "- %s: %+d (%s)\n", f.Name, f.Score, f.Commentary)
	}
	return b.String()
}
