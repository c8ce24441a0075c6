// Package jsonapi implements holdings providers backed by JSON endpoints.
// Each provider is described by a Spec: a URL template and JSONPath
// expressions locating the holdings and their fields.
package jsonapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"go.uber.org/zap"

	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/fetcher"
)

// Fields holds JSONPath expressions evaluated against each holding element
type Fields struct {
	Name        string
	Symbol      string
	ISIN        string
	CUSIP       string
	Weight      string
	Shares      string
	MarketValue string
	AssetClass  string
}

// Spec describes one JSON provider
type Spec struct {
	Name         string
	Priority     int
	FullHoldings bool

	BaseURL string
	// URL is a template, see fetcher.ExpandURL.
	URL     string
	APIKey  string
	Headers map[string]string

	// HoldingsPath selects the list of holding elements.
	HoldingsPath string
	AsOfPath     string
	TotalPath    string
	Fields       Fields
	// WeightScale converts source weights to percentages (100 for fractions).
	WeightScale float64
}

// Provider is a fetcher.Fetcher for a JSON endpoint
type Provider struct {
	spec   Spec
	client *fetcher.Client
	logger *zap.Logger
}

// New creates a JSON provider
func New(spec Spec, client *fetcher.Client, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if spec.WeightScale == 0 {
		spec.WeightScale = 1
	}
	return &Provider{
		spec:   spec,
		client: client,
		logger: logger.With(zap.String("provider", spec.Name)),
	}
}

func (p *Provider) Name() string {
	return p.spec.Name
}

func (p *Provider) Priority() int {
	return p.spec.Priority
}

func (p *Provider) SupportsFullHoldings() bool {
	return p.spec.FullHoldings
}

// CanHandle reports whether every identifier the URL needs is present
func (p *Provider) CanHandle(fund core.FundMetadata) bool {
	_, ok := fetcher.ExpandURL(p.spec.URL, p.spec.BaseURL, p.spec.APIKey, fund)
	return ok
}

// FetchHoldings queries the endpoint and maps the selected elements
func (p *Provider) FetchHoldings(ctx context.Context, fund core.FundMetadata) (core.HoldingsResult, error) {
	url, ok := fetcher.ExpandURL(p.spec.URL, p.spec.BaseURL, p.spec.APIKey, fund)
	if !ok {
		return fetcher.EmptyResult(p.spec.Name), fmt.Errorf("%s: missing identifiers for %s", p.spec.Name, fund.Symbol)
	}

	body, err := p.client.Get(ctx, url, p.spec.Headers)
	if err != nil {
		return fetcher.EmptyResult(p.spec.Name), fmt.Errorf("fetching holdings: %w", err)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fetcher.EmptyResult(p.spec.Name), fmt.Errorf("decoding response: %w", err)
	}

	return p.parse(doc), nil
}

func (p *Provider) parse(doc any) core.HoldingsResult {
	raw, err := jsonpath.Get(p.spec.HoldingsPath, doc)
	if err != nil {
		p.logger.Debug("holdings path not found", zap.String("path", p.spec.HoldingsPath), zap.Error(err))
		return fetcher.EmptyResult(p.spec.Name)
	}
	elements, _ := raw.([]any)

	holdings := make([]core.Holding, 0, len(elements))
	for _, el := range elements {
		h, ok := p.holding(el)
		if ok {
			holdings = append(holdings, h)
		}
	}

	asOf, _ := lookupString(p.spec.AsOfPath, doc)
	total, _ := lookupFloat(p.spec.TotalPath, doc)
	return fetcher.NewResult(p.spec.Name, holdings, asOf, int(total))
}

func (p *Provider) holding(el any) (core.Holding, bool) {
	f := p.spec.Fields
	name, _ := lookupString(f.Name, el)
	if name == "" {
		return core.Holding{}, false
	}

	h := core.Holding{Name: name}
	h.Symbol, _ = lookupString(f.Symbol, el)
	h.ISIN, _ = lookupString(f.ISIN, el)
	h.CUSIP, _ = lookupString(f.CUSIP, el)
	h.AssetClass, _ = lookupString(f.AssetClass, el)
	h.Shares, _ = lookupFloat(f.Shares, el)
	h.MarketValue, _ = lookupFloat(f.MarketValue, el)

	if v, ok := lookup(f.Weight, el); ok {
		switch w := v.(type) {
		case float64:
			h.Weight = w * p.spec.WeightScale
		case string:
			if parsed, err := fetcher.ParseWeight(w, p.spec.WeightScale); err == nil {
				h.Weight = parsed
			}
		}
	}
	return h, true
}

// lookup evaluates path and unwraps single-element lists
func lookup(path string, v any) (any, bool) {
	if path == "" {
		return nil, false
	}
	val, err := jsonpath.Get(path, v)
	if err != nil {
		return nil, false
	}
	if list, ok := val.([]any); ok {
		if len(list) == 0 {
			return nil, false
		}
		val = list[0]
	}
	return val, val != nil
}

func lookupString(path string, v any) (string, bool) {
	val, ok := lookup(path, v)
	if !ok {
		return "", false
	}
	switch s := val.(type) {
	case string:
		return strings.TrimSpace(s), true
	case float64:
		return fmt.Sprintf("%.0f", s), true
	default:
		return "", false
	}
}

func lookupFloat(path string, v any) (float64, bool) {
	val, ok := lookup(path, v)
	if !ok {
		return 0, false
	}
	switch n := val.(type) {
	case float64:
		return n, true
	case string:
		f, err := fetcher.ParseNumber(n)
		return f, err == nil
	default:
		return 0, false
	}
}
