package recorder

import (
	"time"

	"StockPulse/internal/model"
)

// AnalysisRecord holds all data for one completed analysis.
type AnalysisRecord struct {
	Report     model.AnalysisReport
	Trigger    model.TriggerType
	Enrichment string // "skipped", "ok" or "failed"
}

// FailureEvent records an analysis that produced no report.
type FailureEvent struct {
	Symbol   string
	Interval string
	Trigger  model.TriggerType
	Kind     string // fetch_exhausted, malformed, insufficient, cancelled or error
	Err      string
}

// HistoryEntry is one stored analysis, newest first when listed.
type HistoryEntry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Symbol    string          `json:"symbol"`
	Interval  string          `json:"interval"`
	Trigger   string          `json:"trigger"`
	Close     float64         `json:"close"`
	RSI       float64         `json:"rsi"`
	Score     int             `json:"score"`
	Label     model.Sentiment `json:"label"`
	Regime    string          `json:"regime"`
}

// Recorder persists analysis history.
type Recorder interface {
	RecordAnalysis(rec *AnalysisRecord) error
	RecordFailure(evt *FailureEvent) error
	Recent(symbol string, limit int) ([]HistoryEntry, error)
	Close() error
}
