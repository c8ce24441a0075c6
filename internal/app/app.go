package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/newthinker/folio/internal/archive"
	"github.com/newthinker/folio/internal/cache"
	"github.com/newthinker/folio/internal/config"
	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/extract"
	"github.com/newthinker/folio/internal/fetcher"
	"github.com/newthinker/folio/internal/llm/factory"
	"github.com/newthinker/folio/internal/metrics"
	"github.com/newthinker/folio/internal/orchestrator"
	"github.com/newthinker/folio/internal/provider"
	"github.com/newthinker/folio/internal/ratelimit"
)

// App wires the provider catalog, orchestrator and persistence from config
type App struct {
	cfg          *config.Config
	logger       *zap.Logger
	registry     *fetcher.Registry
	orchestrator *orchestrator.Orchestrator
	metrics      *metrics.Registry
	reports      *archive.Reports
	store        *cache.SQLiteStore
}

// New builds an App. The holdings cache is opened separately with OpenCache.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	model, err := factory.New(cfg.LLM)
	if err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}
	var extractor *extract.Extractor
	if model != nil {
		extractor = extract.New(model)
		logger.Info("LLM extraction enabled", zap.String("llm", model.Name()))
	}

	registry := provider.NewRegistry(provider.Deps{
		Config:    cfg,
		Limiter:   ratelimit.New(),
		Extractor: extractor,
		Logger:    logger,
	})

	reg := metrics.NewRegistry()
	orch := orchestrator.New(orchestrator.Config{
		AttemptTimeout:    cfg.Fetch.AttemptTimeout,
		InterAttemptDelay: cfg.Fetch.InterAttemptDelay,
		InterFundDelay:    cfg.Fetch.InterFundDelay,
		Concurrency:       cfg.Fetch.Concurrency,
	}, registry, logger)
	orch.SetMetrics(reg)

	a := &App{
		cfg:          cfg,
		logger:       logger,
		registry:     registry,
		orchestrator: orch,
		metrics:      reg,
	}

	storage, err := archive.NewStorage(cfg.Archive)
	if err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}
	if storage != nil {
		a.reports = archive.NewReports(storage)
	}

	logger.Debug("providers registered", zap.Strings("providers", registry.Names()))
	return a, nil
}

// OpenCache opens and migrates the SQLite holdings cache. An empty dsn or
// ":memory:" keeps snapshots in process memory for the lifetime of the App.
func (a *App) OpenCache(ctx context.Context) error {
	if dsn := a.cfg.Cache.DSN; dsn == "" || dsn == ":memory:" {
		a.orchestrator.SetCache(cache.NewMemoryStore())
		return nil
	}

	store, err := cache.NewSQLite(a.cfg.Cache.DSN)
	if err != nil {
		return err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return err
	}
	a.store = store
	a.orchestrator.SetCache(store)
	return nil
}

// Close releases the cache
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// Orchestrator returns the configured orchestrator
func (a *App) Orchestrator() *orchestrator.Orchestrator {
	return a.orchestrator
}

// Providers returns the registered provider names
func (a *App) Providers() []string {
	return a.registry.Names()
}

// Reports returns the report archive, nil when archiving is disabled
func (a *App) Reports() *archive.Reports {
	return a.reports
}

// Metrics returns the metrics registry
func (a *App) Metrics() *metrics.Registry {
	return a.metrics
}

// RunBatch fetches every fund, then archives the report when an archive is
// configured. An archive failure is logged and leaves the report intact.
func (a *App) RunBatch(ctx context.Context, funds []core.FundMetadata, onProgress orchestrator.ProgressFunc) (archive.Report, string) {
	runID := uuid.NewString()
	log := a.logger.With(zap.String("run_id", runID))
	log.Info("batch starting", zap.Int("funds", len(funds)), zap.Int("concurrency", a.cfg.Fetch.Concurrency))

	started := time.Now()
	results := a.orchestrator.FetchAllHoldingsWithProgress(ctx, funds, onProgress)
	finished := time.Now()
	a.metrics.RecordBatch(finished.Sub(started))

	report := archive.Report{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: finished,
		Summary:    orchestrator.Summarize(results),
		Results:    results,
	}
	log.Info("batch finished",
		zap.Int("succeeded", report.Summary.Succeeded),
		zap.Int("failed", report.Summary.Failed),
		zap.Duration("elapsed", finished.Sub(started)),
	)

	if a.reports == nil {
		return report, ""
	}
	path, err := a.reports.Save(ctx, report)
	if err != nil {
		log.Error("failed to archive report", zap.Error(err))
		return report, ""
	}
	log.Info("report archived", zap.String("path", path))
	return report, path
}

// ServeMetrics exposes the metrics registry until ctx is done. It returns
// the bound address.
func (a *App) ServeMetrics(ctx context.Context) (string, error) {
	mux := http.NewServeMux()
	mux.Handle(a.cfg.Metrics.Path, a.metrics.Handler())

	ln, err := net.Listen("tcp", a.cfg.Metrics.Addr)
	if err != nil {
		return "", fmt.Errorf("listening on %s: %w", a.cfg.Metrics.Addr, err)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info("serving metrics", zap.String("addr", ln.Addr().String()), zap.String("path", a.cfg.Metrics.Path))
	return ln.Addr().String(), nil
}
