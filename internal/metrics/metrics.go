package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Attempt outcomes
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeFailed  = "failed"
	OutcomeTimeout = "timeout"
)

// Registry holds all Prometheus metrics. A nil *Registry is valid and
// records nothing.
type Registry struct {
	*prometheus.Registry

	attemptsTotal   *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	fundsTotal      *prometheus.CounterVec
	fundsInFlight   prometheus.Gauge
	cacheWrites     *prometheus.CounterVec
	cacheHits       prometheus.Counter
	batchDuration   prometheus.Histogram
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		attemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_provider_attempts_total",
				Help: "Total number of provider attempts",
			},
			[]string{"provider", "outcome"},
		),

		attemptDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "folio_provider_attempt_duration_seconds",
				Help:    "Provider attempt duration in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"provider"},
		),

		fundsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_funds_total",
				Help: "Total number of funds processed",
			},
			[]string{"status", "provider"},
		),

		fundsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "folio_funds_in_flight",
				Help: "Number of funds currently being fetched",
			},
		),

		cacheWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_cache_writes_total",
				Help: "Total number of holdings cache writes",
			},
			[]string{"status"},
		),

		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "folio_cache_hits_total",
				Help: "Lookups answered from the holdings cache",
			},
		),

		batchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "folio_batch_duration_seconds",
				Help:    "Batch run duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),
	}

	reg.MustRegister(r.attemptsTotal)
	reg.MustRegister(r.attemptDuration)
	reg.MustRegister(r.fundsTotal)
	reg.MustRegister(r.fundsInFlight)
	reg.MustRegister(r.cacheWrites)
	reg.MustRegister(r.cacheHits)
	reg.MustRegister(r.batchDuration)

	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}

// RecordAttempt records one provider attempt.
func (r *Registry) RecordAttempt(provider, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.attemptsTotal.WithLabelValues(provider, outcome).Inc()
	r.attemptDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// RecordFund records the final status of a fund.
func (r *Registry) RecordFund(status, provider string) {
	if r == nil {
		return
	}
	r.fundsTotal.WithLabelValues(status, provider).Inc()
}

// FundStarted increments in-flight funds.
func (r *Registry) FundStarted() {
	if r == nil {
		return
	}
	r.fundsInFlight.Inc()
}

// FundDone decrements in-flight funds.
func (r *Registry) FundDone() {
	if r == nil {
		return
	}
	r.fundsInFlight.Dec()
}

// RecordCacheWrite records a cache write and whether it failed.
func (r *Registry) RecordCacheWrite(err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.cacheWrites.WithLabelValues(status).Inc()
}

// RecordCacheHit records a lookup served from cache.
func (r *Registry) RecordCacheHit() {
	if r == nil {
		return
	}
	r.cacheHits.Inc()
}

// RecordBatch records a completed batch run.
func (r *Registry) RecordBatch(d time.Duration) {
	if r == nil {
		return
	}
	r.batchDuration.Observe(d.Seconds())
}
