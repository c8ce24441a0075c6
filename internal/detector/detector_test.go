package detector

import (
	"testing"

	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func confidenceOf(t *testing.T, res core.DetectionResult, name string) int {
	t.Helper()
	for _, p := range res.Providers {
		if p.Name == name {
			return p.Confidence
		}
	}
	t.Fatalf("provider %s not detected in %v", name, res.Names())
	return 0
}

func assertWellFormed(t *testing.T, res core.DetectionResult) {
	t.Helper()
	seen := map[string]bool{}
	for i, p := range res.Providers {
		assert.False(t, seen[p.Name], "duplicate %s", p.Name)
		seen[p.Name] = true
		assert.GreaterOrEqual(t, p.Confidence, 0)
		assert.LessOrEqual(t, p.Confidence, 100)
		if i > 0 {
			assert.LessOrEqual(t, p.Confidence, res.Providers[i-1].Confidence)
		}
	}
	assert.True(t, seen[provider.FT], "primary fallback missing")
	assert.True(t, seen[provider.Yahoo], "secondary fallback missing")
}

func TestDetect_ISharesETF(t *testing.T) {
	res := Detect(core.FundMetadata{Symbol: "IWRD", Name: "iShares MSCI World UCITS ETF", ISIN: "IE00B4L5Y983"})
	assertWellFormed(t, res)

	require.NotEmpty(t, res.Providers)
	assert.Equal(t, provider.IShares, res.Providers[0].Name)
	assert.Equal(t, 95, res.Providers[0].Confidence)
	assert.Equal(t, 75, confidenceOf(t, res, provider.JustETF))
	assert.Equal(t, 60, confidenceOf(t, res, provider.FT))
	assert.Equal(t, 40, confidenceOf(t, res, provider.Yahoo))

	assert.Equal(t, "ishares", res.Signals.NamePattern)
	assert.Equal(t, "IE", res.Signals.ISINPrefix)
	assert.Equal(t, core.FundETF, res.Signals.FundType)
	assert.Equal(t, core.RegionGlobal, res.Providers[0].Region)
}

func TestDetect_BlackRockKeepsMaxConfidence(t *testing.T) {
	res := Detect(core.FundMetadata{Symbol: "B4VY989", Name: "BlackRock Continental European Income Fund", ISIN: "GB00B4VY9894"})
	assertWellFormed(t, res)

	assert.Equal(t, provider.HL, res.Providers[0].Name)
	assert.Equal(t, 85, confidenceOf(t, res, provider.HL))
	assert.Equal(t, "blackrock", res.Signals.NamePattern)
	assert.Empty(t, res.Signals.SymbolPattern)
	assert.Equal(t, core.RegionEurope, res.Providers[0].Region)
}

func TestDetect_NoSignalsStillHasFallbacks(t *testing.T) {
	res := Detect(core.FundMetadata{Symbol: "x1", Name: "Something"})
	assertWellFormed(t, res)

	assert.Equal(t, []string{provider.FT, provider.Yahoo}, res.Names())
	assert.Equal(t, core.FundUnknown, res.Signals.FundType)
	assert.Equal(t, core.RegionUnknown, res.Providers[0].Region)
}

func TestDetect_EmptyMetadata(t *testing.T) {
	res := Detect(core.FundMetadata{})
	assertWellFormed(t, res)
	assert.Len(t, res.Providers, 2)
}

func TestDetect_SymbolShapes(t *testing.T) {
	tests := []struct {
		symbol   string
		provider string
		conf     int
		pattern  string
	}{
		{"VUSA.L", provider.Yahoo, 70, "london"},
		{"VUSA:LSE", provider.Yahoo, 70, "london"},
		{"SMT", provider.AIC, 65, "short"},
		{"VTSAX", provider.FMP, 75, "long"},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			res := Detect(core.FundMetadata{Symbol: tt.symbol})
			assertWellFormed(t, res)
			assert.Equal(t, tt.conf, confidenceOf(t, res, tt.provider))
			assert.Equal(t, tt.pattern, res.Signals.SymbolPattern)
		})
	}
}

func TestDetect_LondonSuffixRaisesYahooOnce(t *testing.T) {
	res := Detect(core.FundMetadata{Symbol: "VUSA.L"})
	count := 0
	for _, p := range res.Providers {
		if p.Name == provider.Yahoo {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, provider.Yahoo, res.Providers[0].Name)
}

func TestDetect_ISINPrefixes(t *testing.T) {
	res := Detect(core.FundMetadata{Symbol: "x", ISIN: "LU0274208692"})
	assert.Equal(t, 70, confidenceOf(t, res, provider.Morningstar))
	assert.Equal(t, 65, confidenceOf(t, res, provider.JustETF))

	res = Detect(core.FundMetadata{Symbol: "x", ISIN: "us9229083632"})
	assert.Equal(t, 75, confidenceOf(t, res, provider.FMP))
	assert.Equal(t, "US", res.Signals.ISINPrefix)

	res = Detect(core.FundMetadata{Symbol: "x", ISIN: "FR0010315770"})
	assert.Empty(t, res.Signals.ISINPrefix)
	assert.Len(t, res.Providers, 2)
}

func TestDetect_TrustRules(t *testing.T) {
	res := Detect(core.FundMetadata{Symbol: "x", Name: "Scottish Mortgage Investment Trust"})
	assert.Equal(t, 80, confidenceOf(t, res, provider.HL))
	assert.Equal(t, core.FundTrust, res.Signals.FundType)

	res = Detect(core.FundMetadata{Symbol: "x", Name: "Legal & General UK Index Unit Trust"})
	assert.NotContains(t, res.Names(), provider.HL)
	assert.Equal(t, core.FundUnknown, res.Signals.FundType)
	assert.Equal(t, core.RegionUK, res.Providers[0].Region)
}

func TestDetect_BlackRockWithISharesIsNotHL(t *testing.T) {
	res := Detect(core.FundMetadata{Symbol: "x", Name: "BlackRock iShares Core S&P 500"})
	assert.NotContains(t, res.Names(), provider.HL)
	assert.Equal(t, 95, confidenceOf(t, res, provider.IShares))
	assert.Equal(t, core.RegionUS, res.Providers[0].Region)
}

func TestDetect_OEIC(t *testing.T) {
	res := Detect(core.FundMetadata{Symbol: "x", Name: "Fundsmith Equity", ISIN: "GB00B41YBW71", SEDOL: "B41YBW7"})
	assert.Equal(t, core.FundOEIC, res.Signals.FundType)
}

func TestDetect_Deterministic(t *testing.T) {
	fund := core.FundMetadata{Symbol: "IWRD", Name: "iShares MSCI World UCITS ETF", ISIN: "IE00B4L5Y983"}
	first := Detect(fund)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Detect(fund))
	}
}
