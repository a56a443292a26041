package collector

import (
	"context"
	"fmt"

	"StockPulse/internal/model"
)

// DefaultTWSEURL is the TWSE MIS realtime quote endpoint.
const DefaultTWSEURL = "https://mis.twse.com.tw/stock/api/getStockInfo.jsp"

// TWSESource implements QuoteSource for domestic symbols using TWSE MIS.
type TWSESource struct {
	Getter  Getter
	BaseURL string
}

// NewTWSESource creates a TWSE realtime source fetching through g.
func NewTWSESource(g Getter) *TWSESource {
	return &TWSESource{Getter: g, BaseURL: DefaultTWSEURL}
}

func (s *TWSESource) Name() string { return "twse" }

// Quote fetches the realtime quote. Only domestic symbols are supported.
func (s *TWSESource) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	code := DomesticCode(symbol)
	if code == "" {
		return model.Quote{}, fmt.Errorf("twse: %q is not a domestic symbol", symbol)
	}
	raw, err := s.Getter.Fetch(ctx, fmt.Sprintf("%s?ex_ch=tse_%s.tw", s.BaseURL, code))
	if err != nil {
		return model.Quote{}, fmt.Errorf("twse quote: %w", err)
	}
	q, err := NormalizeTWSE(raw)
	if err != nil {
		return model.Quote{}, fmt.Errorf("twse quote: %w", err)
	}
	q.Symbol = symbol
	return q, nil
}
