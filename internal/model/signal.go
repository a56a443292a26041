package model

// TriggerType indicates what started an analysis.
type TriggerType string

const (
	TriggerRequest   TriggerType = "REQUEST"
	TriggerCommand   TriggerType = "COMMAND"
	TriggerScheduled TriggerType = "SCHEDULED"
	TriggerManual    TriggerType = "MANUAL"
)

// FactorScore represents a single scoring contribution.
type FactorScore struct {
	Name       string `json:"name"`
	Score      int    `json:"score"`
	Skipped    bool   `json:"skipped,omitempty"`
	Commentary string `json:"commentary"`
}

// Sentiment is the ordinal verdict of the scorer.
type Sentiment string

const (
	StrongBullish Sentiment = "strong bullish"
	MildBullish   Sentiment = "mild bullish"
	Neutral       Sentiment = "neutral"
	MildBearish   Sentiment = "mild bearish"
	StrongBearish Sentiment = "strong bearish"
)

// Crossover of SMA5 against SMA20 between the latest two points.
type Crossover string

const (
	CrossoverBullish Crossover = "bullish crossover"
	CrossoverBearish Crossover = "bearish crossover"
	CrossoverNone    Crossover = "no notable crossover"
)

// Alignment of price and the three moving averages.
type Alignment string

const (
	AlignmentBullish Alignment = "bullish alignment"
	AlignmentBearish Alignment = "bearish alignment"
	AlignmentMixed   Alignment = "mixed alignment"
	AlignmentUnknown Alignment = "alignment unavailable"
)

// SentimentResult is the output of the sentiment scorer.
type SentimentResult struct {
	Factors    []FactorScore `json:"factors"`
	Score      int           `json:"score"`
	Label      Sentiment     `json:"label"`
	ActionHint string        `json:"action_hint"`
}
