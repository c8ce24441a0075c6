// Package detector ranks the providers most likely to hold data for a fund.
package detector

import (
	"regexp"
	"sort"
	"strings"

	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/provider"
)

// Universal fallback confidences. Both are appended for every fund.
const (
	primaryFallbackConfidence   = 60
	secondaryFallbackConfidence = 40
)

// nameRule maps an issuer keyword to a provider
type nameRule struct {
	keyword    string
	exclude    string // rule is skipped when the name also contains this
	provider   string
	confidence int
}

var nameRules = []nameRule{
	{keyword: "ishares", provider: provider.IShares, confidence: 95},
	{keyword: "vanguard", provider: provider.Vanguard, confidence: 95},
	{keyword: "spdr", provider: provider.SPDR, confidence: 95},
	{keyword: "invesco", provider: provider.Invesco, confidence: 95},
	{keyword: "xtrackers", provider: provider.JustETF, confidence: 90},
	{keyword: "amundi", provider: provider.JustETF, confidence: 90},
	{keyword: "lyxor", provider: provider.JustETF, confidence: 90},
	{keyword: "blackrock", exclude: "ishares", provider: provider.HL, confidence: 85},
	{keyword: "trust", exclude: "unit trust", provider: provider.HL, confidence: 80},
}

type weighted struct {
	provider   string
	confidence int
}

var isinRules = map[string][]weighted{
	"GB": {{provider.HL, 70}},
	"IE": {{provider.JustETF, 75}, {provider.IShares, 70}},
	"US": {{provider.FMP, 75}},
	"LU": {{provider.Morningstar, 70}, {provider.JustETF, 65}},
}

// Symbol shapes
var (
	londonSuffix = regexp.MustCompile(`(?i)(\.L|\.LN|:LSE)$`)
	shortTicker  = regexp.MustCompile(`^[A-Z]{2,4}$`)
	longTicker   = regexp.MustCompile(`^[A-Z]{5,}$`)
)

// regionKeywords are checked in order; the first hit wins
var regionKeywords = []struct {
	region   core.Region
	keywords []string
}{
	{core.RegionEmerging, []string{"emerging", "frontier"}},
	{core.RegionAsia, []string{"asia", "pacific", "japan", "china", "india"}},
	{core.RegionEurope, []string{"europe", "european", "continental", "euro stoxx", "germany", "dax"}},
	{core.RegionUS, []string{"s&p", "nasdaq", "america", "u.s.", " us "}},
	{core.RegionUK, []string{"ftse", "uk ", "united kingdom", "british"}},
	{core.RegionGlobal, []string{"world", "global", "international", "acwi", "all country"}},
}

// Detect maps fund metadata to a deduplicated candidate list sorted by
// descending confidence. The universal fallbacks are always present.
func Detect(fund core.FundMetadata) core.DetectionResult {
	name := strings.ToLower(fund.Name)
	isin := strings.ToUpper(strings.TrimSpace(fund.ISIN))
	symbol := strings.TrimSpace(fund.Symbol)

	var signals core.Signals
	var found []weighted

	for _, r := range nameRules {
		if !strings.Contains(name, r.keyword) {
			continue
		}
		if r.exclude != "" && strings.Contains(name, r.exclude) {
			continue
		}
		if signals.NamePattern == "" {
			signals.NamePattern = r.keyword
		}
		found = append(found, weighted{r.provider, r.confidence})
	}

	if len(isin) >= 2 {
		prefix := isin[:2]
		if rules, ok := isinRules[prefix]; ok {
			signals.ISINPrefix = prefix
			found = append(found, rules...)
		}
	}

	switch {
	case londonSuffix.MatchString(symbol):
		signals.SymbolPattern = "london"
		found = append(found, weighted{provider.Yahoo, 70})
	case shortTicker.MatchString(symbol):
		signals.SymbolPattern = "short"
		found = append(found, weighted{provider.AIC, 65})
	case longTicker.MatchString(symbol):
		signals.SymbolPattern = "long"
		found = append(found, weighted{provider.FMP, 75})
	}

	found = append(found,
		weighted{provider.FT, primaryFallbackConfidence},
		weighted{provider.Yahoo, secondaryFallbackConfidence},
	)

	signals.FundType = fundType(name, isin, fund.SEDOL)
	region := region(name)

	return core.DetectionResult{
		Providers: rank(found, region, signals.FundType),
		Signals:   signals,
	}
}

// rank keeps the highest confidence per provider and sorts descending.
// Ties keep first-seen order.
func rank(found []weighted, region core.Region, ft core.FundType) []core.ProviderInfo {
	index := make(map[string]int, len(found))
	out := make([]core.ProviderInfo, 0, len(found))
	for _, w := range found {
		if i, ok := index[w.provider]; ok {
			if w.confidence > out[i].Confidence {
				out[i].Confidence = w.confidence
			}
			continue
		}
		index[w.provider] = len(out)
		out = append(out, core.ProviderInfo{
			Name:       w.provider,
			Region:     region,
			FundType:   ft,
			Confidence: clamp(w.confidence),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

func fundType(name, isin, sedol string) core.FundType {
	switch {
	case strings.Contains(name, "etf"):
		return core.FundETF
	case strings.Contains(name, "trust") && !strings.Contains(name, "unit trust"):
		return core.FundTrust
	case strings.HasPrefix(isin, "GB") && strings.TrimSpace(sedol) != "":
		return core.FundOEIC
	}
	return core.FundUnknown
}

func region(name string) core.Region {
	padded := " " + name + " "
	for _, r := range regionKeywords {
		for _, kw := range r.keywords {
			if strings.Contains(padded, kw) {
				return r.region
			}
		}
	}
	return core.RegionUnknown
}

func clamp(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
