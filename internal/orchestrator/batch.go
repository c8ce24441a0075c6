package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/newthinker/folio/internal/cache"
	"github.com/newthinker/folio/internal/core"
)

// FetchAllHoldingsWithProgress runs the waterfall for every fund and returns
// one record per fund in input order. Successful results are written to the
// cache. With Concurrency > 1 funds run in parallel and onProgress calls are
// serialized.
func (o *Orchestrator) FetchAllHoldingsWithProgress(ctx context.Context, funds []core.FundMetadata, onProgress ProgressFunc) []core.FundFetchResult {
	results := make([]core.FundFetchResult, len(funds))

	if o.cfg.Concurrency <= 1 {
		for i, fund := range funds {
			if i > 0 {
				_ = sleep(ctx, o.cfg.InterFundDelay)
			}
			results[i] = o.fetchFund(ctx, fund, onProgress)
		}
		return results
	}

	if onProgress != nil {
		var mu sync.Mutex
		inner := onProgress
		onProgress = func(u core.ProgressUpdate) {
			mu.Lock()
			defer mu.Unlock()
			inner(u)
		}
	}

	var g errgroup.Group
	g.SetLimit(o.cfg.Concurrency)
	for i, fund := range funds {
		if i > 0 {
			_ = sleep(ctx, o.cfg.InterFundDelay)
		}
		i, fund := i, fund
		g.Go(func() error {
			results[i] = o.fetchFund(ctx, fund, onProgress)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (o *Orchestrator) fetchFund(ctx context.Context, fund core.FundMetadata, onProgress ProgressFunc) core.FundFetchResult {
	o.metrics.FundStarted()
	defer o.metrics.FundDone()

	out := o.waterfall(ctx, fund, onProgress)
	res := out.result

	r := core.FundFetchResult{
		Fund:               fund.Symbol,
		Provider:           res.Provider,
		HoldingCount:       len(res.Holdings),
		Quality:            res.Quality,
		AttemptedProviders: out.attempted,
	}
	if res.IsEmpty() {
		r.Status = core.StatusFailed
		r.Error = exhaustionMessage(out)
	} else {
		r.Status = core.StatusSuccess
		o.persist(ctx, fund, res)
	}

	o.metrics.RecordFund(string(r.Status), r.Provider)
	return r
}

func exhaustionMessage(out outcome) string {
	switch {
	case len(out.attempted) == 0 && out.lastErr != nil:
		return out.lastErr.Error()
	case len(out.attempted) == 0:
		return "no registered provider can handle this fund"
	case out.lastErr != nil:
		return fmt.Sprintf("no provider returned holdings (last error: %v)", out.lastErr)
	}
	return "no provider returned holdings"
}

// persist writes a result to the cache. Failures are logged only.
func (o *Orchestrator) persist(ctx context.Context, fund core.FundMetadata, res core.HoldingsResult) {
	if o.cache == nil {
		return
	}
	err := o.cache.Write(ctx, fund.Symbol, toRows(res.Holdings), res.AsOfDate, res.Provider, res.Quality)
	o.metrics.RecordCacheWrite(err)
	if err != nil {
		o.logger.Error("failed to persist holdings",
			zap.String("fund", fund.Symbol),
			zap.String("provider", res.Provider),
			zap.Error(core.WrapError(core.ErrCacheWrite, err)),
		)
	}
}

func toRows(holdings []core.Holding) []cache.Row {
	rows := make([]cache.Row, len(holdings))
	for i, h := range holdings {
		rows[i] = cache.Row{
			Name:        h.Name,
			Symbol:      h.Symbol,
			CUSIP:       h.CUSIP,
			ISIN:        h.ISIN,
			Weight:      h.Weight,
			Shares:      h.Shares,
			MarketValue: h.MarketValue,
			AssetClass:  h.AssetClass,
		}
	}
	return rows
}

// Summary aggregates a batch
type Summary struct {
	Total       int            `json:"total"`
	Succeeded   int            `json:"succeeded"`
	Failed      int            `json:"failed"`
	Winners     map[string]int `json:"winners"`  // provider -> funds won
	Attempts    map[string]int `json:"attempts"` // provider -> funds attempted
	FailedFunds []string       `json:"failed_funds,omitempty"`
}

// Summarize counts batch outcomes per provider
func Summarize(results []core.FundFetchResult) Summary {
	s := Summary{
		Total:    len(results),
		Winners:  make(map[string]int),
		Attempts: make(map[string]int),
	}
	for _, r := range results {
		for _, p := range r.AttemptedProviders {
			s.Attempts[p]++
		}
		if r.Status == core.StatusSuccess {
			s.Succeeded++
			s.Winners[r.Provider]++
			continue
		}
		s.Failed++
		s.FailedFunds = append(s.FailedFunds, r.Fund)
	}
	sort.Strings(s.FailedFunds)
	return s
}
