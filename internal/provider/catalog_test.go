package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/folio/internal/config"
	"github.com/newthinker/folio/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_NamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, e := range catalog() {
		assert.False(t, seen[e.name], "duplicate provider %s", e.name)
		seen[e.name] = true
		assert.True(t, (e.json == nil) != (e.page == nil), "%s must have exactly one variant", e.name)
	}
}

func TestNewRegistry_Defaults(t *testing.T) {
	reg := NewRegistry(Deps{})

	for _, name := range []string{IShares, Vanguard, SPDR, Invesco, JustETF, HL, AIC, Morningstar, FT, Yahoo} {
		_, ok := reg.Resolve(name)
		assert.True(t, ok, "expected %s registered", name)
	}
	_, ok := reg.Resolve(FMP)
	assert.False(t, ok, "fmp needs an api key")
}

func TestNewRegistry_ConfigOverrides(t *testing.T) {
	disabled := false
	cfg := config.Defaults()
	cfg.Providers = map[string]config.ProviderConfig{
		FMP: {APIKey: "k"},
		AIC: {Enabled: &disabled},
	}

	reg := NewRegistry(Deps{Config: cfg})

	_, ok := reg.Resolve(FMP)
	assert.True(t, ok)
	_, ok = reg.Resolve(AIC)
	assert.False(t, ok)
}

func TestNewRegistry_BaseURLOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v10/finance/quoteSummary/VUSA.L", r.URL.Path)
		_, _ = w.Write([]byte(`{"quoteSummary":{"result":[{"topHoldings":{"holdings":[
			{"holdingName":"Apple Inc","symbol":"AAPL","holdingPercent":{"raw":0.07}},
			{"holdingName":"Microsoft Corp","symbol":"MSFT","holdingPercent":{"raw":0.065}}
		]}}]}}`))
	}))
	defer srv.Close()

	cfg := config.Defaults()
	cfg.Providers = map[string]config.ProviderConfig{Yahoo: {BaseURL: srv.URL}}

	f, ok := NewRegistry(Deps{Config: cfg}).Resolve(Yahoo)
	require.True(t, ok)
	assert.False(t, f.SupportsFullHoldings())

	res, err := f.FetchHoldings(context.Background(), core.FundMetadata{Symbol: "VUSA.L"})
	require.NoError(t, err)
	require.Len(t, res.Holdings, 2)
	assert.InDelta(t, 7.0, res.Holdings[0].Weight, 1e-9)
	assert.Equal(t, Yahoo, res.Provider)
	assert.Equal(t, core.QualityPartial, res.Quality)
}

func TestNewRegistry_Eligibility(t *testing.T) {
	reg := NewRegistry(Deps{})
	trust := core.FundMetadata{Symbol: "B4VY989", Name: "BlackRock Continental European Income Fund", SEDOL: "B4VY989"}

	hl, _ := reg.Resolve(HL)
	assert.True(t, hl.CanHandle(trust), "hl accepts a SEDOL")

	ishares, _ := reg.Resolve(IShares)
	assert.False(t, ishares.CanHandle(trust), "ishares needs an ISIN")
}

func TestNewRegistry_DefaultUserAgent(t *testing.T) {
	var agent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.UserAgent()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cfg := config.Defaults()
	cfg.Fetch.UserAgent = ""
	cfg.Providers = map[string]config.ProviderConfig{Yahoo: {BaseURL: srv.URL}}

	f, ok := NewRegistry(Deps{Config: cfg}).Resolve(Yahoo)
	require.True(t, ok)
	_, err := f.FetchHoldings(context.Background(), core.FundMetadata{Symbol: "VUSA.L"})
	require.NoError(t, err)
	assert.Contains(t, agent, "folio/1.0")
}
