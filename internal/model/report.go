package model

import "time"

// TrendRegime is the structural classification of recent highs and lows.
type TrendRegime string

const (
	RegimeAscending  TrendRegime = "ascending structure"
	RegimeDescending TrendRegime = "descending structure"
	RegimeRanging    TrendRegime = "ranging"
)

// TrendStructure summarizes higher/lower highs and lows over the analysis window.
type TrendStructure struct {
	Bars              int         `json:"bars"`
	HigherHighs       int         `json:"higher_highs"`
	LowerHighs        int         `json:"lower_highs"`
	HigherLows        int         `json:"higher_lows"`
	LowerLows         int         `json:"lower_lows"`
	Regime            TrendRegime `json:"regime"`
	OverextensionRisk bool        `json:"overextension_risk"`
	OversoldRebound   bool        `json:"oversold_rebound_watch"`
	RisingHighStreak  int         `json:"rising_high_streak"`
	FallingLowStreak  int         `json:"falling_low_streak"`
}

// SupportResistance holds the recent price band and its ATR risk margin.
type SupportResistance struct {
	Bars           int       `json:"bars"`
	Support        float64   `json:"support"`
	Resistance     float64   `json:"resistance"`
	Close          float64   `json:"close"`
	NearSupport    bool      `json:"near_support"`
	NearResistance bool      `json:"near_resistance"`
	RiskMargin     ATRResult `json:"risk_margin"`
}

// VolumeClass classifies the latest volume against its trailing mean.
type VolumeClass string

const (
	VolumeExpansion   VolumeClass = "abnormal expansion"
	VolumeContraction VolumeClass = "significant contraction"
	VolumeNormal      VolumeClass = "normal"
	VolumeUnavailable VolumeClass = "unavailable"
)

// BodyClass classifies the latest candle's body dominance.
type BodyClass string

const (
	BodyDecisive   BodyClass = "decisive bar"
	BodyIndecisive BodyClass = "indecisive/wick-dominated bar"
	BodyModerate   BodyClass = "moderate"
)

// VolumeFinding is the volume-anomaly sub-analysis.
type VolumeFinding struct {
	Current    float64     `json:"current"`
	Mean       float64     `json:"mean"`
	SpikeRatio float64     `json:"spike_ratio"`
	Available  bool        `json:"available"`
	Class      VolumeClass `json:"class"`
	BodyRatio  float64     `json:"body_ratio"`
	Body       BodyClass   `json:"body"`
	Direction  Direction   `json:"direction"`
}

// Structure bundles the three structural sub-analyses.
type Structure struct {
	Trend  TrendStructure    `json:"trend"`
	Levels SupportResistance `json:"levels"`
	Volume VolumeFinding     `json:"volume"`
}

// TechnicalSummary holds the indicator readings shown in the report.
type TechnicalSummary struct {
	Close     float64   `json:"close"`
	SMA5      float64   `json:"sma5"`
	SMA20     float64   `json:"sma20"`
	SMA60     float64   `json:"sma60"`
	HasSMA5   bool      `json:"has_sma5"`
	HasSMA20  bool      `json:"has_sma20"`
	HasSMA60  bool      `json:"has_sma60"`
	RSI       float64   `json:"rsi"`
	HasRSI    bool      `json:"has_rsi"`
	Crossover Crossover `json:"crossover"`
	Alignment Alignment `json:"alignment"`
	NearCross bool      `json:"near_cross"`
}

// AnalysisReport is built once per request and never mutated afterwards.
type AnalysisReport struct {
	ID          string            `json:"id"`
	Symbol      string            `json:"symbol"`
	Interval    string            `json:"interval"`
	Bars        int               `json:"bars"`
	Quote       Quote             `json:"quote"`
	Trend       TrendStructure    `json:"trend"`
	Levels      SupportResistance `json:"levels"`
	Technical   TechnicalSummary  `json:"technical"`
	Volume      VolumeFinding     `json:"volume"`
	Sentiment   SentimentResult   `json:"sentiment"`
	GeneratedAt time.Time         `json:"generated_at"`
}
