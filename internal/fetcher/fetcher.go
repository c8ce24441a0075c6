// Package fetcher defines the contract every holdings provider satisfies and
// the helpers shared by all provider implementations.
package fetcher

import (
	"context"

	"github.com/newthinker/folio/internal/core"
)

// Fetcher retrieves the holdings of a fund from one external source.
type Fetcher interface {
	// Name is the stable provider identifier used by detection.
	Name() string

	// Priority is a tie-break hint. The waterfall orders by detection
	// confidence and never consults it.
	Priority() int

	// SupportsFullHoldings reports whether the source returns the complete
	// holdings list rather than a capped top-N subset.
	SupportsFullHoldings() bool

	// CanHandle is a cheap eligibility check with no I/O.
	CanHandle(fund core.FundMetadata) bool

	// FetchHoldings performs the network operation. On failure it returns
	// EmptyResult(Name()) together with the error.
	FetchHoldings(ctx context.Context, fund core.FundMetadata) (core.HoldingsResult, error)
}
