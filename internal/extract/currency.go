package extract

import (
	"regexp"
	"strings"
)

// CurrencyDetector infers an ISO-like currency code from symbols, explicit
// codes, or language keywords. Detection compares symbols by Unicode code
// point, so "€" matches regardless of how the source text was encoded
// upstream.
type CurrencyDetector struct {
	symbols  []symbolCode
	codeRe   *regexp.Regexp
	pesoMap  []countryCode
	keywords []keywordCode
}

type symbolCode struct {
	symbol rune
	code   string
}

type countryCode struct {
	country string
	code    string
}

type keywordCode struct {
	keyword string
	code    string
}

// NewCurrencyDetector builds the immutable lookup tables once.
func NewCurrencyDetector() *CurrencyDetector {
	return &CurrencyDetector{
		symbols: []symbolCode{
			{'€', "EUR"},
			{'£', "GBP"},
			{'¥', "JPY"},
			{'$', "USD"},
		},
		codeRe: regexp.MustCompile(`\b(USD|EUR|GBP|COP|MXN|ARS|PEN|CLP|JPY)\b`),
		pesoMap: []countryCode{
			{"colombia", "COP"},
			{"méxico", "MXN"},
			{"mexico", "MXN"},
			{"argentina", "ARS"},
			{"chile", "CLP"},
		},
		keywords: []keywordCode{
			{"dólar", "USD"},
			{"dollar", "USD"},
			{"euro", "EUR"},
			{"libra", "GBP"},
		},
	}
}

// Detect returns the inferred currency code and whether anything in the text
// actually identified it; when nothing does, it returns the global default
// "USD" and false.
func (d *CurrencyDetector) Detect(text string) (string, bool) {
	if text == "" {
		return DefaultCurrency, false
	}

	for _, s := range d.symbols {
		if strings.ContainsRune(text, s.symbol) {
			return s.code, true
		}
	}

	if m := d.codeRe.FindString(strings.ToUpper(text)); m != "" {
		return m, true
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "peso") {
		for _, cc := range d.pesoMap {
			if strings.Contains(lower, cc.country) {
				return cc.code, true
			}
		}
		// Regional default when no country keyword accompanies "peso".
		return "COP", true
	}
	for _, kw := range d.keywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.code, true
		}
	}

	return DefaultCurrency, false
}
