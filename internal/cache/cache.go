// Package cache persists fetched holdings snapshots.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/newthinker/folio/internal/core"
)

// Row is one persisted holding of a fund snapshot
type Row struct {
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol,omitempty"`
	CUSIP       string  `json:"cusip,omitempty"`
	ISIN        string  `json:"isin,omitempty"`
	Weight      float64 `json:"weight"`
	Shares      float64 `json:"shares,omitempty"`
	MarketValue float64 `json:"market_value,omitempty"`
	AssetClass  string  `json:"asset_class,omitempty"`
}

// Key identifies the holding within a fund. The strongest identifier wins.
func (r Row) Key() string {
	switch {
	case r.ISIN != "":
		return "isin:" + strings.ToUpper(r.ISIN)
	case r.CUSIP != "":
		return "cusip:" + strings.ToUpper(r.CUSIP)
	case r.Symbol != "":
		return "symbol:" + strings.ToUpper(r.Symbol)
	}
	return "name:" + strings.ToLower(strings.TrimSpace(r.Name))
}

// Snapshot is the latest persisted holdings set for a fund
type Snapshot struct {
	Fund      string
	Provider  string
	AsOfDate  string
	Quality   core.DataQuality
	FetchedAt time.Time
	Rows      []Row
}

// Cache stores holdings keyed by (fund, holding, as-of date).
// Writes are idempotent upserts.
type Cache interface {
	Write(ctx context.Context, fund string, rows []Row, asOf, provider string, quality core.DataQuality) error
	// HasRecent reports whether the fund was written within maxAgeDays.
	HasRecent(ctx context.Context, fund string, maxAgeDays int) (bool, error)
	// ReadLatest returns the newest snapshot, or nil when the fund is unknown.
	ReadLatest(ctx context.Context, fund string) (*Snapshot, error)
}

var now = time.Now

func cutoff(maxAgeDays int) time.Time {
	return now().Add(-time.Duration(maxAgeDays) * 24 * time.Hour)
}
