package collector

import "strings"

// DomesticSuffix is appended to numeric-only symbols.
const DomesticSuffix = ".TW"

// NormalizeSymbol trims and upper-cases input; a numeric-only symbol gets the domestic market suffix.
func NormalizeSymbol(input string) string {
	s := strings.ToUpper(strings.TrimSpace(input))
	if isDigits(s) {
		return s + DomesticSuffix
	}
	return s
}

// IsDomestic reports whether sym is listed on the domestic exchange.
func IsDomestic(sym string) bool {
	s := strings.ToUpper(strings.TrimSpace(sym))
	return strings.HasSuffix(s, DomesticSuffix) || isDigits(s)
}

// DomesticCode strips the market suffix and anything non-numeric.
func DomesticCode(sym string) string {
	s := strings.TrimSuffix(strings.ToUpper(sym), DomesticSuffix)
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
