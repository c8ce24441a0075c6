package fetcher

import (
	"testing"

	"github.com/newthinker/folio/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestTicker(t *testing.T) {
	assert.Equal(t, "VUSA", Ticker("VUSA.L"))
	assert.Equal(t, "VUSA", Ticker("vusa:lse"))
	assert.Equal(t, "SPY", Ticker(" SPY "))
}

func TestExpandURL(t *testing.T) {
	fund := core.FundMetadata{Symbol: "VUSA.L", ISIN: "ie00b3xxrp09"}

	u, ok := ExpandURL("{base}/fund/{isin}/holdings?t={ticker}", "https://example.com/", "", fund)
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/fund/IE00B3XXRP09/holdings?t=VUSA", u)

	_, ok = ExpandURL("{base}/sedol/{sedol}", "https://example.com", "", fund)
	assert.False(t, ok, "missing SEDOL makes the template unusable")

	_, ok = ExpandURL("{base}/etf/{symbol}?apikey={apikey}", "https://example.com", "", fund)
	assert.False(t, ok, "missing api key makes the template unusable")

	u, ok = ExpandURL("{base}/etf/{symbol}?apikey={apikey}", "https://example.com", "k", fund)
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/etf/VUSA.L?apikey=k", u)
}

func TestFirstURL(t *testing.T) {
	tmpls := []string{"{base}/isin/{isin}", "{base}/sedol/{sedol}"}

	u, ok := FirstURL(tmpls, "https://x", "", core.FundMetadata{SEDOL: "b4vy989"})
	assert.True(t, ok)
	assert.Equal(t, "https://x/sedol/B4VY989", u)

	u, ok = FirstURL(tmpls, "https://x", "", core.FundMetadata{ISIN: "GB00B4VY9894", SEDOL: "B4VY989"})
	assert.True(t, ok)
	assert.Equal(t, "https://x/isin/GB00B4VY9894", u)

	_, ok = FirstURL(tmpls, "https://x", "", core.FundMetadata{Symbol: "BRGE"})
	assert.False(t, ok)
}
