package common

import (
	"strings"
)

// NormalizeTicker canonicalizes a ticker symbol for use as a storage key and
// chart-API symbol: trimmed, uppercased, with exchange prefixes ("NYSE:AAPL")
// stripped. Crypto pairs keep their dash suffix ("BTC-USD").
func NormalizeTicker(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return ""
	}
	if idx := strings.Index(symbol, ":"); idx > 0 {
		symbol = symbol[idx+1:]
	}
	return strings.ToUpper(symbol)
}

// DedupeTickers merges the configured universe with dynamically requested
// symbols, normalizing and dropping duplicates while preserving order.
func DedupeTickers(groups ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, group := range groups {
		for _, raw := range group {
			symbol := NormalizeTicker(raw)
			if symbol == "" {
				continue
			}
			if _, ok := seen[symbol]; ok {
				continue
			}
			seen[symbol] = struct{}{}
			out = append(out, symbol)
		}
	}
	return out
}
