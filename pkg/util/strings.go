package util

import "strings"

// CanonicalSymbol folds an instrument name for lookups: "eur-usd", "EURUSD"
// and "EUR/USD" all become "EURUSD".
func CanonicalSymbol(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '-', '_', ' ':
			return -1
		}
		return r
	}, strings.ToUpper(strings.TrimSpace(s)))
}
