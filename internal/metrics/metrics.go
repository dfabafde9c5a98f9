// Package metrics defines the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mcstatus"

// Metrics groups the collectors updated by the HTTP layer.
type Metrics struct {
	handler http.Handler

	queriesTotal   *prometheus.CounterVec
	queryDuration  prometheus.Histogram
	historyDropped prometheus.Counter
	rateLimited    prometheus.Counter
}

// New registers the collectors on reg and serves them from the same registry.
// A nil reg uses the default registry.
func New(reg *prometheus.Registry) *Metrics {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		handler                          = promhttp.Handler()
	)
	if reg != nil {
		registerer = reg
		handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}
	factory := promauto.With(registerer)

	return &Metrics{
		handler: handler,

		queriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Status queries by outcome (ok, no_information or error kind)",
		}, []string{"outcome"}),

		queryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of status queries, connection setup included",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),

		historyDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_dropped_total",
			Help:      "History records dropped because the writer queue was full",
		}),

		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-IP rate limit",
		}),
	}
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// ObserveQuery records the outcome and duration of one query.
func (m *Metrics) ObserveQuery(outcome string, d time.Duration) {
	m.queriesTotal.WithLabelValues(outcome).Inc()
	m.queryDuration.Observe(d.Seconds())
}

// HistoryDropped counts a history record lost to a full queue.
func (m *Metrics) HistoryDropped() {
	m.historyDropped.Inc()
}

// RateLimited counts a request rejected with 429.
func (m *Metrics) RateLimited() {
	m.rateLimited.Inc()
}
