package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"github.com/newthinker/folio/internal/cache"
	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/fetcher"
)

// CacheProvider is the provider name of results served from the cache
const CacheProvider = "cache"

// HoldingsFor returns cached holdings written within maxAgeDays, otherwise
// runs the waterfall and caches a non-empty result.
func (o *Orchestrator) HoldingsFor(ctx context.Context, fund core.FundMetadata, maxAgeDays int, onProgress ProgressFunc) core.HoldingsResult {
	if res, ok := o.fromCache(ctx, fund, maxAgeDays); ok {
		return res
	}

	res := o.FetchHoldingsWithProviders(ctx, fund, onProgress)
	if !res.IsEmpty() {
		o.persist(ctx, fund, res)
	}
	return res
}

func (o *Orchestrator) fromCache(ctx context.Context, fund core.FundMetadata, maxAgeDays int) (core.HoldingsResult, bool) {
	if o.cache == nil || maxAgeDays <= 0 {
		return core.HoldingsResult{}, false
	}
	log := o.logger.With(zap.String("fund", fund.Symbol))

	recent, err := o.cache.HasRecent(ctx, fund.Symbol, maxAgeDays)
	if err != nil {
		log.Warn("cache lookup failed", zap.Error(err))
		return core.HoldingsResult{}, false
	}
	if !recent {
		return core.HoldingsResult{}, false
	}

	snap, err := o.cache.ReadLatest(ctx, fund.Symbol)
	if err != nil {
		log.Warn("cache read failed", zap.Error(err))
		return core.HoldingsResult{}, false
	}
	if snap == nil || len(snap.Rows) == 0 {
		return core.HoldingsResult{}, false
	}

	o.metrics.RecordCacheHit()
	log.Debug("holdings served from cache", zap.String("as_of", snap.AsOfDate))
	return fromSnapshot(snap), true
}

func fromSnapshot(snap *cache.Snapshot) core.HoldingsResult {
	holdings := make([]core.Holding, len(snap.Rows))
	for i, r := range snap.Rows {
		holdings[i] = core.Holding{
			Name:        r.Name,
			Symbol:      r.Symbol,
			CUSIP:       r.CUSIP,
			ISIN:        r.ISIN,
			Weight:      r.Weight,
			Shares:      r.Shares,
			MarketValue: r.MarketValue,
			AssetClass:  r.AssetClass,
		}
	}
	quality := snap.Quality
	if quality == "" {
		quality = fetcher.ClassifyQuality(len(holdings), 0)
	}
	return core.HoldingsResult{
		Holdings: holdings,
		AsOfDate: snap.AsOfDate,
		Quality:  quality,
		Provider: CacheProvider,
	}
}
