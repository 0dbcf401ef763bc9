// Package metrics exposes the posting engine's Prometheus instrumentation:
// posting throughput, reconciliation auto-match rate, and store sizes. The
// capacity linearity figures of /v1/ops/capacity are not exported here.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry bundles every collector the posting engine records against. A
// single instance is constructed at boot and handed to the HTTP handlers.
type Registry struct {
	PostsTotal           *prometheus.CounterVec
	PostLatencySeconds    prometheus.Histogram
	JournalsPosted        prometheus.Counter
	JournalsReversed       prometheus.Counter
	ReconAutoMatchRateBps prometheus.Gauge
	ReconExceptionsRouted prometheus.Counter
	StoreSize             *prometheus.GaugeVec
}

// New registers every collector against reg and returns the bundle.
func New(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		PostsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_posts_total",
			Help: "Total posting attempts by outcome (posted, replayed, rejected).",
		}, []string{"outcome"}),
		PostLatencySeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_post_latency_seconds",
			Help:    "Latency of posting orchestrator admission, end to end.",
			Buckets: prometheus.DefBuckets,
		}),
		JournalsPosted: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_journals_posted_total",
			Help: "Total journals successfully inserted.",
		}),
		JournalsReversed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_journals_reversed_total",
			Help: "Total journals reversed (including via adjustment).",
		}),
		ReconAutoMatchRateBps: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_recon_auto_match_rate_bps",
			Help: "Auto-match rate in basis points from the most recent reconciliation run.",
		}),
		ReconExceptionsRouted: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_recon_exceptions_routed_total",
			Help: "Total reconciliation exceptions routed to an owner queue.",
		}),
		StoreSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ledger_store_size",
			Help: "Entry count per in-memory store.",
		}, []string{"store"}),
	}
}

// ObservePost records the outcome of one posting attempt.
func (r *Registry) ObservePost(outcome string, seconds float64) {
	r.PostsTotal.WithLabelValues(outcome).Inc()
	r.PostLatencySeconds.Observe(seconds)
}

// ObserveReconRun records the auto-match rate and routed-exception count
// from a completed reconciliation run.
func (r *Registry) ObserveReconRun(autoMatchRateBps uint32, routedExceptions int) {
	r.ReconAutoMatchRateBps.Set(float64(autoMatchRateBps))
	r.ReconExceptionsRouted.Add(float64(routedExceptions))
}

// SetStoreSize records the current entry count for a named store.
func (r *Registry) SetStoreSize(store string, size int) {
	r.StoreSize.WithLabelValues(store).Set(float64(size))
}
