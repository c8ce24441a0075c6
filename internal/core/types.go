package core

import "time"

// DateLayout is the canonical calendar-date format used for as-of dates.
const DateLayout = "2006-01-02"

// NoProvider names the winner of a waterfall in which every candidate failed.
const NoProvider = "none"

// FundType is the inferred legal wrapper of a fund
type FundType string

const (
	FundETF     FundType = "etf"
	FundTrust   FundType = "trust"
	FundOEIC    FundType = "oeic"
	FundUnknown FundType = "unknown"
)

// Region is a coarse geographic tag attached to detection candidates
type Region string

const (
	RegionUK       Region = "uk"
	RegionUS       Region = "us"
	RegionEurope   Region = "europe"
	RegionAsia     Region = "asia"
	RegionEmerging Region = "emerging"
	RegionGlobal   Region = "global"
	RegionUnknown  Region = "unknown"
)

// DataQuality describes how much of a fund's holdings set was returned
type DataQuality string

const (
	QualityComplete    DataQuality = "complete"
	QualityPartial     DataQuality = "partial"
	QualityUnavailable DataQuality = "unavailable"
)

// FundMetadata identifies a fund. It is never mutated once built.
type FundMetadata struct {
	Symbol      string  `json:"symbol" mapstructure:"symbol"`
	Name        string  `json:"name" mapstructure:"name"`
	ISIN        string  `json:"isin,omitempty" mapstructure:"isin"`
	SEDOL       string  `json:"sedol,omitempty" mapstructure:"sedol"`
	MarketValue float64 `json:"market_value,omitempty" mapstructure:"market_value"`
	Quantity    float64 `json:"quantity,omitempty" mapstructure:"quantity"`
}

// Holding is a single constituent of a fund
type Holding struct {
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol,omitempty"`
	CUSIP       string  `json:"cusip,omitempty"`
	ISIN        string  `json:"isin,omitempty"`
	Weight      float64 `json:"weight"` // percentage, 0-100
	Shares      float64 `json:"shares,omitempty"`
	MarketValue float64 `json:"market_value,omitempty"`
	AssetClass  string  `json:"asset_class,omitempty"`
}

// HoldingsResult is the outcome of one provider attempt.
// An empty Holdings slice always carries QualityUnavailable.
type HoldingsResult struct {
	Holdings           []Holding   `json:"holdings"`
	AsOfDate           string      `json:"as_of_date"`
	Quality            DataQuality `json:"quality"`
	Provider           string      `json:"provider"`
	TotalKnownHoldings int         `json:"total_known_holdings,omitempty"`
}

// IsEmpty reports whether the result carries no holdings
func (r HoldingsResult) IsEmpty() bool {
	return len(r.Holdings) == 0
}

// ProviderInfo is a ranked detection candidate
type ProviderInfo struct {
	Name       string   `json:"name"`
	Region     Region   `json:"region"`
	FundType   FundType `json:"fund_type"`
	Confidence int      `json:"confidence"` // 0-100
}

// Signals records which detection heuristics fired. Diagnostic only.
type Signals struct {
	NamePattern   string   `json:"name_pattern,omitempty"`
	ISINPrefix    string   `json:"isin_prefix,omitempty"`
	SymbolPattern string   `json:"symbol_pattern,omitempty"`
	FundType      FundType `json:"fund_type"`
}

// DetectionResult holds candidates in descending confidence order
type DetectionResult struct {
	Providers []ProviderInfo `json:"providers"`
	Signals   Signals        `json:"signals"`
}

// Names returns the candidate provider names in rank order
func (d DetectionResult) Names() []string {
	names := make([]string, len(d.Providers))
	for i, p := range d.Providers {
		names[i] = p.Name
	}
	return names
}

// FetchStatus is the state carried by a progress event or a batch record
type FetchStatus string

const (
	StatusTrying  FetchStatus = "trying"
	StatusSuccess FetchStatus = "success"
	StatusFailed  FetchStatus = "failed"
)

// ProgressUpdate is an observational event emitted by the orchestrator
type ProgressUpdate struct {
	Status       FetchStatus `json:"status"`
	Provider     string      `json:"provider"`
	Fund         string      `json:"fund"`
	HoldingCount int         `json:"holding_count,omitempty"`
	Quality      DataQuality `json:"quality,omitempty"`
	Error        string      `json:"error,omitempty"`
	Time         time.Time   `json:"time"`
}

// FundFetchResult summarizes one fund of a batch
type FundFetchResult struct {
	Fund               string      `json:"fund"`
	Status             FetchStatus `json:"status"`
	Provider           string      `json:"provider"`
	HoldingCount       int         `json:"holding_count"`
	Quality            DataQuality `json:"quality"`
	AttemptedProviders []string    `json:"attempted_providers"`
	Error              string      `json:"error,omitempty"`
}
