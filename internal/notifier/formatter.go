package notifier

import (
	"fmt"
	"html"
	"maps"
	"slices"
	"strings"

	"StockPulse/internal/model"
	"StockPulse/internal/pipeline"
	"StockPulse/internal/recorder"
)

// FormatReport wraps a pipeline result into a Telegram HTML message.
func FormatReport(res *pipeline.Result) string {
	var b strings.Builder
	r := res.Report

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> (%s) | %s\n", html.EscapeString(r.Symbol), r.Interval, res.UpdatedAt))
	b.WriteString(fmt.Sprintf("Last: %.2f <i>(%s)</i>\n", r.Quote.Last, html.EscapeString(r.Quote.Source)))
	b.WriteString(fmt.Sprintf("Sentiment: <b>%s</b> (%+d)\n\n", r.Sentiment.Label, r.Sentiment.Score))

	b.WriteString("📈 <b>Factors:</b>\n")
	for _, f := range r.Sentiment.Factors {
		if f.Skipped {
			b.WriteString(fmt.Sprintf("  %s: skipped (%s)\n", f.Name, html.EscapeString(f.Commentary)))
			continue
		}
		b.WriteString(fmt.Sprintf("  %s: %+d (%s)\n", f.Name, f.Score, html.EscapeString(f.Commentary)))
	}
	b.WriteString("\n")
	b.WriteString(html.EscapeString(res.Text))
	return b.String()
}

// FormatError formats a failed analysis for the chat.
func FormatError(symbol string, err error) string {
	return fmt.Sprintf("⚠️ <b>%s</b>: %s", html.EscapeString(symbol), model.UserMessage(err))
}

// FormatHistory lists recent stored analyses.
func FormatHistory(symbol string, entries []recorder.HistoryEntry) string {
	if len(entries) == 0 {
		return fmt.Sprintf("No history for %s", html.EscapeString(symbol))
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>History %s</b>\n\n", html.EscapeString(symbol)))
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("%s %s %s close %.2f score %+d %s\n",
			pipeline.FormatLocal(e.Timestamp), html.EscapeString(e.Symbol), e.Interval, e.Close, e.Score, e.Label))
	}
	return b.String()
}

// FormatDigest summarizes a watchlist run in one message.
func FormatDigest(results []*pipeline.Result, failures map[string]error) string {
	var b strings.Builder
	b.WriteString("📅 <b>Watchlist</b>\n\n")
	for _, res := range results {
		r := res.Report
		b.WriteString(fmt.Sprintf("%s %.2f | %s (%+d) | %s\n",
			html.EscapeString(r.Symbol), r.Quote.Last, r.Sentiment.Label, r.Sentiment.Score, r.Trend.Regime))
	}
	for _, sym := range slices.Sorted(maps.Keys(failures)) {
		b.WriteString(fmt.Sprintf("⚠️ %s: %s\n", html.EscapeString(sym), model.UserMessage(failures[sym])))
	}
	return b.String()
}
