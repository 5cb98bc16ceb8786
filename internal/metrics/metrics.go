// Package metrics exposes quote counters on a dedicated Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loanquote/internal/engine"
)

const namespace = "loanquote"

// Recorder implements engine.Observer and repository.FailureObserver.
type Recorder struct {
	registry *prometheus.Registry

	quotes       prometheus.Counter
	cacheHits    prometheus.Counter
	outcomes     *prometheus.CounterVec
	loadFailures prometheus.Counter
	evaluateAll  prometheus.Histogram
}

// New creates a recorder with its own registry, including Go runtime collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		quotes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Quote requests served.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_cache_hits_total",
			Help:      "Quote requests answered from the cache.",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lender_outcomes_total",
			Help:      "Lender evaluations by outcome.",
		}, []string{"outcome"}),
		loadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_load_failures_total",
			Help:      "Lender documents skipped because they failed to load.",
		}),
		evaluateAll: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluate_all_seconds",
			Help:      "Time spent evaluating a record against all lenders.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}

	r.registry.MustRegister(
		r.quotes,
		r.cacheHits,
		r.outcomes,
		r.loadFailures,
		r.evaluateAll,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// QuoteServed counts one quote request.
func (r *Recorder) QuoteServed(cached bool) {
	r.quotes.Inc()
	if cached {
		r.cacheHits.Inc()
	}
}

func (r *Recorder) ObserveOutcome(kind engine.Kind) {
	r.outcomes.WithLabelValues(kind.String()).Inc()
}

func (r *Recorder) ObserveEvaluateAll(elapsed time.Duration) {
	r.evaluateAll.Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveConfigLoadFailure() {
	r.loadFailures.Inc()
}
