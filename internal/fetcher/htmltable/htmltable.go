// Package htmltable implements holdings providers that scrape the holdings
// table of a fund page. When a page carries no recognizable table and an
// extractor is configured, the page text is handed to the LLM instead.
package htmltable

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/extract"
	"github.com/newthinker/folio/internal/fetcher"
)

// Columns lists lowercase header fragments identifying each column
type Columns struct {
	Name        []string
	Symbol      []string
	ISIN        []string
	Weight      []string
	Shares      []string
	MarketValue []string
	AssetClass  []string
}

// Spec describes one scraped provider
type Spec struct {
	Name         string
	Priority     int
	FullHoldings bool

	BaseURL string
	// URLs are templates tried in order, see fetcher.FirstURL.
	URLs    []string
	Headers map[string]string

	Columns Columns
	// AsOfPattern and TotalPattern are matched against the page text; the
	// first submatch is used.
	AsOfPattern  *regexp.Regexp
	TotalPattern *regexp.Regexp
}

// Provider is a fetcher.Fetcher for an HTML page
type Provider struct {
	spec      Spec
	client    *fetcher.Client
	extractor *extract.Extractor
	logger    *zap.Logger
}

// New creates a scraping provider; extractor may be nil
func New(spec Spec, client *fetcher.Client, extractor *extract.Extractor, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		spec:      spec,
		client:    client,
		extractor: extractor,
		logger:    logger.With(zap.String("provider", spec.Name)),
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

func (p *Provider) CanHandle(fund core.FundMetadata) bool {
	_, ok := fetcher.FirstURL(p.spec.URLs, p.spec.BaseURL, "", fund)
	return ok
}

func (p *Provider) FetchHoldings(ctx context.Context, fund core.FundMetadata) (core.HoldingsResult, error) {
	url, ok := fetcher.FirstURL(p.spec.URLs, p.spec.BaseURL, "", fund)
	if !ok {
		return fetcher.EmptyResult(p.spec.Name), fmt.Errorf("%s: missing identifiers for %s", p.spec.Name, fund.Symbol)
	}

	body, err := p.client.Get(ctx, url, p.spec.Headers)
	if err != nil {
		return fetcher.EmptyResult(p.spec.Name), fmt.Errorf("fetching page: %w", err)
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return fetcher.EmptyResult(p.spec.Name), fmt.Errorf("parsing page: %w", err)
	}

	text := nodeText(doc)
	asOf := submatch(p.spec.AsOfPattern, text)
	total := 0
	if s := submatch(p.spec.TotalPattern, text); s != "" {
		if f, err := fetcher.ParseNumber(s); err == nil {
			total = int(f)
		}
	}

	holdings, found := p.tableHoldings(doc)
	if !found && p.extractor != nil {
		p.logger.Debug("no holdings table, falling back to extraction", zap.String("fund", fund.Symbol))
		r, err := p.extractor.Holdings(ctx, fund, text)
		if err != nil {
			return fetcher.EmptyResult(p.spec.Name), err
		}
		holdings = r.Holdings
		if asOf == "" {
			asOf = r.AsOfDate
		}
		if total == 0 {
			total = r.TotalHoldings
		}
	}

	return fetcher.NewResult(p.spec.Name, holdings, asOf, total), nil
}

// tableHoldings reads the first table whose header has name and weight
// columns. found is false when no such table exists.
func (p *Provider) tableHoldings(doc *html.Node) (holdings []core.Holding, found bool) {
	for _, table := range findAll(doc, atom.Table) {
		rows := tableRows(table)
		if len(rows) < 2 {
			continue
		}
		idx := p.columnIndex(rows[0])
		if idx.name < 0 || idx.weight < 0 {
			continue
		}

		holdings = make([]core.Holding, 0, len(rows)-1)
		for _, row := range rows[1:] {
			if h, ok := idx.holding(row); ok {
				holdings = append(holdings, h)
			}
		}
		return holdings, true
	}
	return nil, false
}

type columnIndex struct {
	name, symbol, isin, weight, shares, marketValue, assetClass int
}

func (p *Provider) columnIndex(header []string) columnIndex {
	c := p.spec.Columns
	return columnIndex{
		name:        match(header, c.Name),
		symbol:      match(header, c.Symbol),
		isin:        match(header, c.ISIN),
		weight:      match(header, c.Weight),
		shares:      match(header, c.Shares),
		marketValue: match(header, c.MarketValue),
		assetClass:  match(header, c.AssetClass),
	}
}

func (idx columnIndex) holding(row []string) (core.Holding, bool) {
	name := cell(row, idx.name)
	if name == "" {
		return core.Holding{}, false
	}
	weight, err := fetcher.ParseWeight(cell(row, idx.weight), 1)
	if err != nil {
		return core.Holding{}, false
	}

	h := core.Holding{
		Name:       name,
		Symbol:     cell(row, idx.symbol),
		ISIN:       cell(row, idx.isin),
		Weight:     weight,
		AssetClass: cell(row, idx.assetClass),
	}
	if v, err := fetcher.ParseNumber(cell(row, idx.shares)); err == nil {
		h.Shares = v
	}
	if v, err := fetcher.ParseNumber(cell(row, idx.marketValue)); err == nil {
		h.MarketValue = v
	}
	return h, true
}

// match returns the first header index containing any alias, or -1
func match(header []string, aliases []string) int {
	for i, h := range header {
		h = strings.ToLower(h)
		for _, a := range aliases {
			if strings.Contains(h, a) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func submatch(re *regexp.Regexp, text string) string {
	if re == nil {
		return ""
	}
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func findAll(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == a {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// tableRows returns the text of each th/td cell, row by row. Nested tables
// are not descended into.
func tableRows(table *html.Node) [][]string {
	var rows [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Table && n != table {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
					cells = append(cells, nodeText(c))
				}
			}
			rows = append(rows, cells)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return rows
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
