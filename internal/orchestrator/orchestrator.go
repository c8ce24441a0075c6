// Package orchestrator walks ranked provider candidates until one returns
// holdings for a fund.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/folio/internal/cache"
	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/detector"
	"github.com/newthinker/folio/internal/fetcher"
	"github.com/newthinker/folio/internal/metrics"
)

// Config holds waterfall timing. Zero delays disable the pauses.
type Config struct {
	AttemptTimeout    time.Duration
	InterAttemptDelay time.Duration
	InterFundDelay    time.Duration
	Concurrency       int
}

// Resolver looks up a fetcher by provider name
type Resolver interface {
	Resolve(name string) (fetcher.Fetcher, bool)
}

// DetectFunc ranks candidate providers for a fund
type DetectFunc func(core.FundMetadata) core.DetectionResult

// Orchestrator runs the first-success-wins waterfall
type Orchestrator struct {
	cfg      Config
	registry Resolver
	detect   DetectFunc
	cache    cache.Cache
	metrics  *metrics.Registry
	logger   *zap.Logger
}

// New creates an orchestrator using the standard detector
func New(cfg Config, registry Resolver, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Orchestrator{
		cfg:      cfg,
		registry: registry,
		detect:   detector.Detect,
		logger:   logger,
	}
}

// SetCache sets the holdings cache. Without one nothing is persisted.
func (o *Orchestrator) SetCache(c cache.Cache) {
	o.cache = c
}

// SetMetrics sets the metrics registry
func (o *Orchestrator) SetMetrics(m *metrics.Registry) {
	o.metrics = m
}

// SetDetector replaces the candidate ranking function
func (o *Orchestrator) SetDetector(fn DetectFunc) {
	o.detect = fn
}

// Detect ranks candidate providers for a fund
func (o *Orchestrator) Detect(fund core.FundMetadata) core.DetectionResult {
	return o.detect(fund)
}

// FetchHoldingsWithProviders tries each candidate in confidence order and
// returns the first non-empty result. When every candidate fails it returns
// the unavailable result attributed to core.NoProvider. It never fails.
func (o *Orchestrator) FetchHoldingsWithProviders(ctx context.Context, fund core.FundMetadata, onProgress ProgressFunc) core.HoldingsResult {
	return o.waterfall(ctx, fund, onProgress).result
}

type outcome struct {
	result    core.HoldingsResult
	attempted []string
	lastErr   error
}

func (o *Orchestrator) waterfall(ctx context.Context, fund core.FundMetadata, onProgress ProgressFunc) outcome {
	candidates := o.detect(fund).Providers
	out := outcome{attempted: []string{}}
	log := o.logger.With(zap.String("fund", fund.Symbol))

	for i, cand := range candidates {
		if err := ctx.Err(); err != nil {
			out.lastErr = err
			break
		}

		f, ok := o.registry.Resolve(cand.Name)
		if !ok {
			log.Debug("skipping candidate", zap.String("provider", cand.Name), zap.Error(core.ErrProviderNotFound))
			continue
		}
		if !f.CanHandle(fund) {
			log.Debug("provider cannot handle fund", zap.String("provider", cand.Name))
			continue
		}

		out.attempted = append(out.attempted, cand.Name)
		onProgress.emit(core.ProgressUpdate{Status: core.StatusTrying, Provider: cand.Name, Fund: fund.Symbol})

		start := time.Now()
		res, err := o.attempt(ctx, f, fund)
		elapsed := time.Since(start)

		switch {
		case err != nil:
			out.lastErr = err
			label := metrics.OutcomeFailed
			if errors.Is(err, core.ErrProviderTimeout) {
				label = metrics.OutcomeTimeout
			}
			o.metrics.RecordAttempt(cand.Name, label, elapsed)
			log.Warn("provider failed",
				zap.String("provider", cand.Name),
				zap.Duration("elapsed", elapsed),
				zap.Error(err),
			)
			onProgress.emit(core.ProgressUpdate{
				Status:   core.StatusFailed,
				Provider: cand.Name,
				Fund:     fund.Symbol,
				Error:    err.Error(),
			})
			if i < len(candidates)-1 {
				_ = sleep(ctx, o.cfg.InterAttemptDelay)
			}

		case res.IsEmpty():
			o.metrics.RecordAttempt(cand.Name, metrics.OutcomeEmpty, elapsed)
			log.Info("provider returned no holdings", zap.String("provider", cand.Name))

		default:
			if res.Provider == "" {
				res.Provider = cand.Name
			}
			o.metrics.RecordAttempt(cand.Name, metrics.OutcomeSuccess, elapsed)
			log.Info("holdings fetched",
				zap.String("provider", res.Provider),
				zap.Int("holdings", len(res.Holdings)),
				zap.String("quality", string(res.Quality)),
			)
			onProgress.emit(core.ProgressUpdate{
				Status:       core.StatusSuccess,
				Provider:     res.Provider,
				Fund:         fund.Symbol,
				HoldingCount: len(res.Holdings),
				Quality:      res.Quality,
			})
			out.result = res
			return out
		}
	}

	out.result = fetcher.EmptyResult(core.NoProvider)
	return out
}

type attemptResult struct {
	res core.HoldingsResult
	err error
}

// attempt runs one fetch bounded by the attempt timeout. The fetcher's
// context is cancelled on timeout; a fetcher that ignores it is abandoned.
func (o *Orchestrator) attempt(ctx context.Context, f fetcher.Fetcher, fund core.FundMetadata) (core.HoldingsResult, error) {
	actx, cancel := ctx, context.CancelFunc(func() {})
	if o.cfg.AttemptTimeout > 0 {
		actx, cancel = context.WithTimeout(ctx, o.cfg.AttemptTimeout)
	}
	defer cancel()

	done := make(chan attemptResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- attemptResult{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		res, err := f.FetchHoldings(actx, fund)
		done <- attemptResult{res: res, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil {
			return r.res, nil
		}
		if ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
			return r.res, core.WrapError(core.ErrProviderTimeout, r.err)
		}
		return r.res, core.WrapError(core.ErrProviderFailed, r.err)
	case <-actx.Done():
		if err := ctx.Err(); err != nil {
			return fetcher.EmptyResult(f.Name()), core.WrapError(core.ErrProviderFailed, err)
		}
		return fetcher.EmptyResult(f.Name()), core.WrapError(core.ErrProviderTimeout,
			fmt.Errorf("no response after %s", o.cfg.AttemptTimeout))
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
