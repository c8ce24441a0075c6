package htmltable

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/extract"
	"github.com/newthinker/folio/internal/fetcher"
	"github.com/newthinker/folio/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const holdingsPage = `<html><body>
<p>Portfolio data as at 30/09/2026. Number of holdings: 42</p>
<table><tr><th>Date</th><th>Price</th></tr><tr><td>1</td><td>2</td></tr></table>
<table>
  <thead><tr><th>Security</th><th>Ticker</th><th>Weight (%)</th><th>Market value</th></tr></thead>
  <tbody>
    <tr><td>Shell plc</td><td>SHEL</td><td>8.12%</td><td>£1,200,000</td></tr>
    <tr><td>AstraZeneca</td><td>AZN</td><td>7,50</td><td>-</td></tr>
    <tr><td></td><td>X</td><td>1.0</td><td></td></tr>
    <tr><td>Cash</td><td></td><td>n/a</td><td></td></tr>
  </tbody>
</table>
<script>var weight = "should be ignored";</script>
</body></html>`

func testSpec() Spec {
	return Spec{
		Name: "scraper",
		URLs: []string{"{base}/factsheet/{isin}"},
		Columns: Columns{
			Name:        []string{"security", "holding", "name"},
			Symbol:      []string{"ticker"},
			Weight:      []string{"weight", "% of"},
			MarketValue: []string{"market value"},
		},
		AsOfPattern:  regexp.MustCompile(`(?i)as at (\d{2}/\d{2}/\d{4})`),
		TotalPattern: regexp.MustCompile(`(?i)number of holdings:?\s*([\d,]+)`),
	}
}

func serve(t *testing.T, page string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func newProvider(base string, ex *extract.Extractor) *Provider {
	spec := testSpec()
	spec.BaseURL = base
	client := fetcher.NewClient(fetcher.ClientConfig{BackoffBase: time.Millisecond}, nil)
	return New(spec, client, ex, nil)
}

var fund = core.FundMetadata{Symbol: "CTY", Name: "City of London Investment Trust", ISIN: "GB0001990497"}

func TestProvider_ImplementsFetcher(t *testing.T) {
	var _ fetcher.Fetcher = (*Provider)(nil)
}

func TestProvider_FetchHoldings_Table(t *testing.T) {
	p := newProvider(serve(t, holdingsPage), nil)

	res, err := p.FetchHoldings(context.Background(), fund)
	require.NoError(t, err)

	require.Len(t, res.Holdings, 2)
	assert.Equal(t, "Shell plc", res.Holdings[0].Name)
	assert.Equal(t, "SHEL", res.Holdings[0].Symbol)
	assert.InDelta(t, 8.12, res.Holdings[0].Weight, 1e-9)
	assert.InDelta(t, 1200000, res.Holdings[0].MarketValue, 1e-6)
	assert.InDelta(t, 7.5, res.Holdings[1].Weight, 1e-9)

	assert.Equal(t, "2026-09-30", res.AsOfDate)
	assert.Equal(t, 42, res.TotalKnownHoldings)
	assert.Equal(t, core.QualityPartial, res.Quality)
	assert.Equal(t, "scraper", res.Provider)
}

type cannedLLM struct {
	calls int
}

func (c *cannedLLM) Name() string { return "canned" }

func (c *cannedLLM) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	c.calls++
	return &llm.Response{Text: `{"as_of_date":"2026-08-31","total_holdings":2,
		"holdings":[{"name":"Unilever","weight":5.5},{"name":"HSBC","weight":4.4}]}`}, nil
}

func TestProvider_FetchHoldings_ExtractionFallback(t *testing.T) {
	page := `<html><body><div>Top holdings: Unilever 5.5%, HSBC 4.4%</div></body></html>`
	model := &cannedLLM{}
	p := newProvider(serve(t, page), extract.New(model))

	res, err := p.FetchHoldings(context.Background(), fund)
	require.NoError(t, err)

	assert.Equal(t, 1, model.calls)
	require.Len(t, res.Holdings, 2)
	assert.Equal(t, "2026-08-31", res.AsOfDate)
	assert.Equal(t, core.QualityComplete, res.Quality, "2 of 2 known holdings")
}

func TestProvider_FetchHoldings_TableSkipsExtraction(t *testing.T) {
	model := &cannedLLM{}
	p := newProvider(serve(t, holdingsPage), extract.New(model))

	_, err := p.FetchHoldings(context.Background(), fund)
	require.NoError(t, err)
	assert.Zero(t, model.calls)
}

func TestProvider_FetchHoldings_NoTableNoExtractor(t *testing.T) {
	p := newProvider(serve(t, `<html><body>Coming soon</body></html>`), nil)

	res, err := p.FetchHoldings(context.Background(), fund)
	require.NoError(t, err)
	assert.Empty(t, res.Holdings)
	assert.Equal(t, core.QualityUnavailable, res.Quality)
}

func TestProvider_CanHandle(t *testing.T) {
	p := newProvider("https://example.com", nil)
	assert.True(t, p.CanHandle(fund))
	assert.False(t, p.CanHandle(core.FundMetadata{Symbol: "CTY"}))
}

func TestProvider_FetchHoldings_ThousandsSeparators(t *testing.T) {
	page := `<html><body>
<p>Number of holdings: 1,234</p>
<table>
  <tr><th>Holding</th><th>Weight</th><th>Market value</th></tr>
  <tr><td>Apple Inc</td><td>6.1%</td><td>£12,345</td></tr>
  <tr><td>Microsoft Corp</td><td>5.9%</td><td>£9,876.50</td></tr>
</table>
</body></html>`
	p := newProvider(serve(t, page), nil)

	res, err := p.FetchHoldings(context.Background(), fund)
	require.NoError(t, err)

	require.Len(t, res.Holdings, 2)
	assert.Equal(t, 1234, res.TotalKnownHoldings)
	assert.Equal(t, core.QualityPartial, res.Quality, "2 of 1234 holdings")
	assert.InDelta(t, 12345, res.Holdings[0].MarketValue, 1e-9)
	assert.InDelta(t, 9876.5, res.Holdings[1].MarketValue, 1e-9)
}
