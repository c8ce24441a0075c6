package fetcher

import (
	"time"

	"github.com/newthinker/folio/internal/core"
)

const (
	// completeHoldingCount is the holdings count at which a list is assumed
	// complete regardless of what the provider reports as its total.
	completeHoldingCount = 100

	// completeCoverage is the fraction of the known total that must be
	// returned for a capped list to count as complete.
	completeCoverage = 0.9
)

// now is replaced in tests
var now = time.Now

// Today returns the current calendar date in canonical form
func Today() string {
	return now().Format(core.DateLayout)
}

// ClassifyQuality grades a holdings list of count entries. total is the
// number of holdings the provider says the fund has, or 0 when unknown.
func ClassifyQuality(count, total int) core.DataQuality {
	switch {
	case count <= 0:
		return core.QualityUnavailable
	case count >= completeHoldingCount:
		return core.QualityComplete
	case total > 0 && float64(count) >= completeCoverage*float64(total):
		return core.QualityComplete
	default:
		return core.QualityPartial
	}
}

// EmptyResult is the canonical failure value for a provider
func EmptyResult(provider string) core.HoldingsResult {
	return core.HoldingsResult{
		Holdings: []core.Holding{},
		AsOfDate: Today(),
		Quality:  core.QualityUnavailable,
		Provider: provider,
	}
}

// NewResult builds a result whose quality is derived from the holdings count
func NewResult(provider string, holdings []core.Holding, asOf string, total int) core.HoldingsResult {
	if holdings == nil {
		holdings = []core.Holding{}
	}
	return core.HoldingsResult{
		Holdings:           holdings,
		AsOfDate:           NormalizeDate(asOf),
		Quality:            ClassifyQuality(len(holdings), total),
		Provider:           provider,
		TotalKnownHoldings: total,
	}
}
