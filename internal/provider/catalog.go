package provider

import (
	"regexp"

	"go.uber.org/zap"

	"github.com/newthinker/folio/internal/config"
	"github.com/newthinker/folio/internal/extract"
	"github.com/newthinker/folio/internal/fetcher"
	"github.com/newthinker/folio/internal/fetcher/htmltable"
	"github.com/newthinker/folio/internal/fetcher/jsonapi"
	"github.com/newthinker/folio/internal/ratelimit"
)

// Deps are the collaborators shared by every catalog entry
type Deps struct {
	Config    *config.Config
	Limiter   *ratelimit.Limiter
	Extractor *extract.Extractor // nil disables the extraction fallback
	Logger    *zap.Logger
}

// entry is one catalog row. Exactly one of json or page is set.
type entry struct {
	name        string
	baseURL     string
	needsAPIKey bool
	rate        float64 // default requests per second, 0 = unlimited
	json        *jsonapi.Spec
	page        *htmltable.Spec
}

var (
	asAtPattern     = regexp.MustCompile(`(?i)(?:as at|as of|data as at)\s*:?\s*(\d{1,2}[/.]\d{1,2}[/.]\d{4}|\d{1,2} [A-Za-z]+ \d{4}|\d{4}-\d{2}-\d{2})`)
	holdingsPattern = regexp.MustCompile(`(?i)(?:number of holdings|total holdings|no\. of holdings)\s*:?\s*([\d,]+)`)
)

// catalog lists every provider the application knows about
func catalog() []entry {
	return []entry{
		{name: IShares, baseURL: "https://www.ishares.com", json: &jsonapi.Spec{
			Priority: 1, FullHoldings: true,
			URL:          "{base}/uk/individual/en/products/holdings/{isin}.ajax?fileType=json&tab=all",
			HoldingsPath: "$.aaData[*]",
			AsOfPath:     "$.asOfDate",
			TotalPath:    "$.totalHoldings",
			Fields: jsonapi.Fields{
				Name: "$.name", Symbol: "$.ticker", ISIN: "$.isin",
				Weight: "$.weight", Shares: "$.shares", MarketValue: "$.marketValue", AssetClass: "$.assetClass",
			},
		}},
		{name: Vanguard, baseURL: "https://eds.ecs.gisp.c1.vanguard.com", json: &jsonapi.Spec{
			Priority: 1, FullHoldings: true,
			URL:          "{base}/eds-eip-distributions-service/holdings/{ticker}",
			HoldingsPath: "$.fund.entity[*]",
			AsOfPath:     "$.fund.asOfDate",
			TotalPath:    "$.size",
			Fields: jsonapi.Fields{
				Name: "$.longName", Symbol: "$.ticker", ISIN: "$.isin", CUSIP: "$.cusip",
				Weight: "$.percentWeight", Shares: "$.sharesHeld", MarketValue: "$.marketValue",
			},
		}},
		{name: SPDR, baseURL: "https://www.ssga.com", json: &jsonapi.Spec{
			Priority: 1, FullHoldings: true,
			URL:          "{base}/bin/v1/ssmp/fund/fundfinder/holdings?ticker={ticker}",
			HoldingsPath: "$.holdings[*]",
			AsOfPath:     "$.asOfDate",
			Fields: jsonapi.Fields{
				Name: "$.name", Symbol: "$.ticker", ISIN: "$.isin",
				Weight: "$.weight", Shares: "$.sharesHeld", AssetClass: "$.sector",
			},
		}},
		{name: Invesco, baseURL: "https://dng-api.invesco.com", json: &jsonapi.Spec{
			Priority: 1, FullHoldings: true,
			URL:          "{base}/cache/v1/accounts/en_US/shareclasses/{ticker}/holdings/fund?idType=ticker",
			HoldingsPath: "$.holdings[*]",
			AsOfPath:     "$.effectiveDate",
			TotalPath:    "$.totalNumberOfHoldings",
			Fields: jsonapi.Fields{
				Name: "$.issuerName", Symbol: "$.ticker", CUSIP: "$.cusip",
				Weight: "$.percentageOfTotalNetAssets", Shares: "$.units", MarketValue: "$.marketValueBase",
			},
		}},
		{name: FMP, baseURL: "https://financialmodelingprep.com", needsAPIKey: true, rate: 4, json: &jsonapi.Spec{
			Priority: 2, FullHoldings: true,
			URL:          "{base}/api/v3/etf-holder/{ticker}?apikey={apikey}",
			HoldingsPath: "$[*]",
			AsOfPath:     "$[0].updated",
			Fields: jsonapi.Fields{
				Name: "$.name", Symbol: "$.asset", ISIN: "$.isin", CUSIP: "$.cusip",
				Weight: "$.weightPercentage", Shares: "$.sharesNumber", MarketValue: "$.marketValue",
			},
		}},
		{name: Morningstar, baseURL: "https://api-global.morningstar.com", rate: 2, json: &jsonapi.Spec{
			Priority:     3,
			URL:          "{base}/sal-service/v1/fund/portfolio/holding/v2/{isin}/data",
			HoldingsPath: "$.equityHoldingPage.holdingList[*]",
			AsOfPath:     "$.holdingSummary.portfolioDate",
			TotalPath:    "$.numberOfHolding",
			Fields: jsonapi.Fields{
				Name: "$.securityName", Symbol: "$.ticker", ISIN: "$.isin",
				Weight: "$.weighting", Shares: "$.numberOfShare", MarketValue: "$.marketValue", AssetClass: "$.sector",
			},
		}},
		{name: Yahoo, baseURL: "https://query2.finance.yahoo.com", rate: 2, json: &jsonapi.Spec{
			Priority:     5,
			URL:          "{base}/v10/finance/quoteSummary/{symbol}?modules=topHoldings",
			HoldingsPath: "$.quoteSummary.result[0].topHoldings.holdings[*]",
			Fields: jsonapi.Fields{
				Name: "$.holdingName", Symbol: "$.symbol", Weight: "$.holdingPercent.raw",
			},
			WeightScale: 100,
		}},
		{name: JustETF, baseURL: "https://www.justetf.com", rate: 1, page: &htmltable.Spec{
			Priority: 2,
			URLs:     []string{"{base}/en/etf-profile.html?isin={isin}"},
			Columns: htmltable.Columns{
				Name:   []string{"holding", "name"},
				Weight: []string{"weight"},
			},
			AsOfPattern:  asAtPattern,
			TotalPattern: holdingsPattern,
		}},
		{name: HL, baseURL: "https://www.hl.co.uk", rate: 1, page: &htmltable.Spec{
			Priority: 3,
			URLs: []string{
				"{base}/funds/fund-discounts,-prices--and-factsheets/search-results/isin/{isin}",
				"{base}/funds/fund-discounts,-prices--and-factsheets/search-results/sedol/{sedol}",
			},
			Columns: htmltable.Columns{
				Name:   []string{"security", "holding"},
				Weight: []string{"weight", "% of"},
			},
			AsOfPattern:  asAtPattern,
			TotalPattern: holdingsPattern,
		}},
		{name: AIC, baseURL: "https://www.theaic.co.uk", rate: 1, page: &htmltable.Spec{
			Priority: 3,
			URLs:     []string{"{base}/companydata/{ticker}/portfolio"},
			Columns: htmltable.Columns{
				Name:        []string{"company", "holding"},
				Weight:      []string{"% of total", "weight"},
				MarketValue: []string{"value"},
				AssetClass:  []string{"sector"},
			},
			AsOfPattern:  asAtPattern,
			TotalPattern: holdingsPattern,
		}},
		{name: FT, baseURL: "https://markets.ft.com", rate: 1, page: &htmltable.Spec{
			Priority: 4,
			URLs: []string{
				"{base}/data/funds/tearsheet/holdings?s={isin}",
				"{base}/data/etfs/tearsheet/holdings?s={ticker}:LSE",
			},
			Columns: htmltable.Columns{
				Name:   []string{"company", "holding", "name"},
				Weight: []string{"portfolio weight", "% net assets", "weight"},
			},
			AsOfPattern:  asAtPattern,
			TotalPattern: holdingsPattern,
		}},
	}
}

// NewRegistry builds the registry from the catalog. Providers disabled in
// configuration, or missing a required API key, are left out.
func NewRegistry(d Deps) *fetcher.Registry {
	cfg := d.Config
	if cfg == nil {
		cfg = config.Defaults()
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limiter := d.Limiter
	if limiter == nil {
		limiter = ratelimit.New()
	}

	reg := fetcher.NewRegistry()
	for _, e := range catalog() {
		pc := cfg.Provider(e.name)
		if !pc.IsEnabled() {
			logger.Debug("provider disabled", zap.String("provider", e.name))
			continue
		}
		if e.needsAPIKey && pc.APIKey == "" {
			logger.Debug("provider missing api key", zap.String("provider", e.name))
			continue
		}

		base := e.baseURL
		if pc.BaseURL != "" {
			base = pc.BaseURL
		}
		rate := e.rate
		if pc.RatePerSecond > 0 {
			rate = pc.RatePerSecond
		}
		limiter.Set(e.name, rate)

		cc := fetcher.DefaultClientConfig()
		cc.MaxRetries = cfg.Fetch.MaxRetries
		if cfg.Fetch.BackoffBase > 0 {
			cc.BackoffBase = cfg.Fetch.BackoffBase
		}
		if cfg.Fetch.UserAgent != "" {
			cc.UserAgent = cfg.Fetch.UserAgent
		}
		cc.Timeout = cfg.Fetch.AttemptTimeout
		cc.Limiter = limiter.For(e.name)
		client := fetcher.NewClient(cc, logger)

		switch {
		case e.json != nil:
			spec := *e.json
			spec.Name, spec.BaseURL, spec.APIKey = e.name, base, pc.APIKey
			reg.Register(jsonapi.New(spec, client, logger))
		case e.page != nil:
			spec := *e.page
			spec.Name, spec.BaseURL = e.name, base
			reg.Register(htmltable.New(spec, client, d.Extractor, logger))
		}
	}
	return reg
}
