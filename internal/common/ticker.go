package common

import "strings"

// knownExchanges are the EODHD exchange suffixes recognised when splitting
// a qualified symbol such as "AAPL.US"
var knownExchanges = map[string]bool{
	"US":    true,
	"AU":    true,
	"LSE":   true,
	"TO":    true,
	"XETRA": true,
	"PA":    true,
	"HK":    true,
	"INDX":  true,
}

// Symbol is a ticker code qualified by a provider exchange suffix
type Symbol struct {
	Code     string
	Exchange string
}

// ParseSymbol splits "CODE.EXCHANGE" when the suffix is a known exchange;
// otherwise the whole input is the code and defaultExchange applies.
// "BRK.B" stays one code, "brk.b.us" becomes BRK.B on US.
func ParseSymbol(s, defaultExchange string) Symbol {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Symbol{}
	}
	if idx := strings.LastIndex(s, "."); idx > 0 && idx < len(s)-1 {
		if suffix := s[idx+1:]; knownExchanges[suffix] {
			return Symbol{Code: s[:idx], Exchange: suffix}
		}
	}
	return Symbol{Code: s, Exchange: strings.ToUpper(defaultExchange)}
}

// String returns the provider form, e.g. "AAPL.US"
func (s Symbol) String() string {
	if s.Exchange == "" {
		return s.Code
	}
	return s.Code + "." + s.Exchange
}
