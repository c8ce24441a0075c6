package fetcher

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/newthinker/folio/internal/core"
)

var placeholder = regexp.MustCompile(`\{([a-z]+)\}`)

// londonSuffixes are exchange suffixes stripped to obtain a bare ticker
var londonSuffixes = []string{".L", ".LN", ":LSE", ":LN"}

// Ticker returns the fund symbol without a London exchange suffix
func Ticker(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	for _, suf := range londonSuffixes {
		if strings.HasSuffix(s, suf) {
			return strings.TrimSuffix(s, suf)
		}
	}
	return s
}

// ExpandURL fills {base}, {isin}, {sedol}, {symbol}, {ticker} and {apikey}
// in tmpl. It reports false when a referenced value is empty, which is what
// makes a provider ineligible for a fund.
func ExpandURL(tmpl, base, apiKey string, fund core.FundMetadata) (string, bool) {
	values := map[string]string{
		"base":   strings.TrimSuffix(base, "/"),
		"isin":   strings.ToUpper(strings.TrimSpace(fund.ISIN)),
		"sedol":  strings.ToUpper(strings.TrimSpace(fund.SEDOL)),
		"symbol": strings.TrimSpace(fund.Symbol),
		"ticker": Ticker(fund.Symbol),
		"apikey": apiKey,
	}

	ok := true
	out := placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		key := m[1 : len(m)-1]
		v, known := values[key]
		if !known || v == "" {
			ok = false
			return m
		}
		if key == "base" {
			return v
		}
		return url.PathEscape(v)
	})
	return out, ok
}

// FirstURL expands the first template whose identifiers are all present
func FirstURL(tmpls []string, base, apiKey string, fund core.FundMetadata) (string, bool) {
	for _, tmpl := range tmpls {
		if u, ok := ExpandURL(tmpl, base, apiKey, fund); ok {
			return u, true
		}
	}
	return "", false
}
