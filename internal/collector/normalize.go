package collector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"StockPulse/internal/calculator"
	"StockPulse/internal/model"
)

// yahooChart is the response structure from Yahoo Finance chart API.
// Pointer elements keep null distinguishable from zero.
type yahooChart struct {
	Chart *struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators *struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// yahooQuote is the response structure from Yahoo Finance quote API.
type yahooQuote struct {
	QuoteResponse *struct {
		Result []struct {
			Symbol               string   `json:"symbol"`
			RegularMarketPrice   *float64 `json:"regularMarketPrice"`
			PostMarketPrice      *float64 `json:"postMarketPrice"`
			Bid                  *float64 `json:"bid"`
			Ask                  *float64 `json:"ask"`
			RegularMarketOpen    *float64 `json:"regularMarketOpen"`
			RegularMarketDayHigh *float64 `json:"regularMarketDayHigh"`
			RegularMarketDayLow  *float64 `json:"regularMarketDayLow"`
			RegularMarketTime    *int64   `json:"regularMarketTime"`
			PostMarketTime       *int64   `json:"postMarketTime"`
		} `json:"result"`
	} `json:"quoteResponse"`
}

// twseInfo is the response structure from the TWSE MIS realtime API. All numbers arrive as strings.
type twseInfo struct {
	MsgArray []struct {
		Code  string `json:"c"`
		Last  string `json:"z"`
		Prev  string `json:"y"`
		Open  string `json:"o"`
		High  string `json:"h"`
		Low   string `json:"l"`
		TLong string `json:"tlong"`
	} `json:"msgArray"`
}

// decodeJSON unmarshals raw into v. Relays sometimes prepend junk (JSONP
// wrappers, guards); on a failed decode everything before the first '{' or
// '[' is dropped and the decode retried.
func decodeJSON(raw []byte, v any) error {
	err := json.Unmarshal(raw, v)
	if err == nil {
		return nil
	}
	if i := bytes.IndexAny(raw, "{["); i > 0 {
		if err2 := json.Unmarshal(raw[i:], v); err2 == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: decode: %v", model.ErrMalformedPayload, err)
}

// NormalizeChart parses a chart payload into candles and co-indexed volume bars.
// A bar is admitted only when open, high, low and close are all present and
// finite; a missing volume counts as zero. Bars that would break time ordering
// are dropped.
func NormalizeChart(raw []byte) ([]model.Candle, []model.VolumeBar, error) {
	var chart yahooChart
	if err := decodeJSON(raw, &chart); err != nil {
		return nil, nil, err
	}
	if chart.Chart == nil {
		return nil, nil, fmt.Errorf("%w: missing chart", model.ErrMalformedPayload)
	}
	if chart.Chart.Error != nil {
		return nil, nil, fmt.Errorf("%w: upstream error %s: %s", model.ErrMalformedPayload,
			chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, nil, fmt.Errorf("%w: missing chart.result", model.ErrMalformedPayload)
	}
	result := chart.Chart.Result[0]
	if result.Indicators == nil || len(result.Indicators.Quote) == 0 {
		return nil, nil, fmt.Errorf("%w: missing indicators.quote", model.ErrMalformedPayload)
	}
	q := result.Indicators.Quote[0]

	candles := make([]model.Candle, 0, len(result.Timestamp))
	volumes := make([]model.VolumeBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, okO := at(q.Open, i)
		h, okH := at(q.High, i)
		l, okL := at(q.Low, i)
		c, okC := at(q.Close, i)
		if !okO || !okH || !okL || !okC {
			continue // null bars (holidays, halted sessions)
		}
		if n := len(candles); n > 0 && ts <= candles[n-1].Time {
			continue
		}
		v, okV := at(q.Volume, i)
		if !okV || v < 0 {
			v = 0
		}
		bar := model.Candle{Time: ts, Open: o, High: h, Low: l, Close: c}
		candles = append(candles, bar)
		volumes = append(volumes, model.VolumeBar{Time: ts, Value: v, Direction: model.DirectionOf(bar)})
	}

	if len(candles) < calculator.MinBars {
		return nil, nil, fmt.Errorf("%w: %d usable bars, need %d", model.ErrInsufficientData, len(candles), calculator.MinBars)
	}
	return candles, volumes, nil
}

func at(values []*float64, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	v := *values[i]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// NormalizeQuote parses a quote payload. The price falls back from the
// regular session to post-market, bid and ask; the time falls back to now.
func NormalizeQuote(raw []byte, now time.Time) (model.Quote, error) {
	var yq yahooQuote
	if err := decodeJSON(raw, &yq); err != nil {
		return model.Quote{}, err
	}
	if yq.QuoteResponse == nil || len(yq.QuoteResponse.Result) == 0 {
		return model.Quote{}, fmt.Errorf("%w: missing quoteResponse.result", model.ErrMalformedPayload)
	}
	r := yq.QuoteResponse.Result[0]

	last, ok := firstOf(r.RegularMarketPrice, r.PostMarketPrice, r.Bid, r.Ask)
	if !ok {
		return model.Quote{}, fmt.Errorf("%w: quote has no price", model.ErrMalformedPayload)
	}
	ts := now.Unix()
	switch {
	case r.RegularMarketTime != nil:
		ts = *r.RegularMarketTime
	case r.PostMarketTime != nil:
		ts = *r.PostMarketTime
	}
	open, _ := firstOf(r.RegularMarketOpen)
	high, _ := firstOf(r.RegularMarketDayHigh)
	low, _ := firstOf(r.RegularMarketDayLow)
	return model.Quote{Symbol: r.Symbol, Last: last, Open: open, High: high, Low: low, Time: ts, Source: "yahoo"}, nil
}

func firstOf(values ...*float64) (float64, bool) {
	for _, v := range values {
		if v != nil {
			return *v, true
		}
	}
	return 0, false
}

// NormalizeTWSE parses a TWSE MIS realtime payload. The last trade falls back
// to the previous close when no trade has printed yet ("-").
func NormalizeTWSE(raw []byte) (model.Quote, error) {
	var info twseInfo
	if err := decodeJSON(raw, &info); err != nil {
		return model.Quote{}, err
	}
	if len(info.MsgArray) == 0 {
		return model.Quote{}, fmt.Errorf("%w: missing msgArray", model.ErrMalformedPayload)
	}
	row := info.MsgArray[0]

	last, ok := twseNumber(row.Last)
	if !ok {
		last, ok = twseNumber(row.Prev)
	}
	if !ok {
		return model.Quote{}, fmt.Errorf("%w: twse row has no price", model.ErrMalformedPayload)
	}
	open, _ := twseNumber(row.Open)
	high, _ := twseNumber(row.High)
	low, _ := twseNumber(row.Low)
	var ts int64
	if ms, err := strconv.ParseInt(strings.TrimSpace(row.TLong), 10, 64); err == nil {
		ts = ms / 1000
	}
	return model.Quote{Symbol: row.Code, Last: last, Open: open, High: high, Low: low, Time: ts, Source: "twse"}, nil
}

func twseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0, false
	}
	// Best bid/ask style fields may carry "_" separated lists; take the first.
	if i := strings.IndexByte(s, '_'); i >= 0 {
		s = s[:i]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return v, true
}
