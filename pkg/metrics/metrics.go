// Package metrics defines the Prometheus collectors for index builds and
// query execution and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the perlin tools.
type Metrics struct {
	DocsIndexedTotal  prometheus.Counter
	TermsIndexed      prometheus.Gauge
	IndexBuildSeconds prometheus.Histogram

	QueriesTotal      *prometheus.CounterVec
	QueryLatency      *prometheus.HistogramVec
	QueryResultsCount prometheus.Histogram
	CacheHitsTotal    prometheus.Counter
	CacheMissesTotal  prometheus.Counter
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "perlin_docs_indexed_total",
				Help: "Total documents fed into the index builder.",
			},
		),
		TermsIndexed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "perlin_terms_indexed",
				Help: "Vocabulary size of the most recent build.",
			},
		),
		IndexBuildSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "perlin_index_build_seconds",
				Help:    "Wall time of full index builds.",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
			},
		),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perlin_queries_total",
				Help: "Total queries by outcome (hit, zero_result, error).",
			},
			[]string{"outcome"},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "perlin_query_latency_seconds",
				Help:    "Query execution latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"cache_status"},
		),
		QueryResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "perlin_query_results_count",
				Help:    "Number of documents returned per query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 500, 1000},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "perlin_cache_hits_total",
				Help: "Total query-cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "perlin_cache_misses_total",
				Help: "Total query-cache misses.",
			},
		),
	}

	prometheus.MustRegister(
		m.DocsIndexedTotal,
		m.TermsIndexed,
		m.IndexBuildSeconds,
		m.QueriesTotal,
		m.QueryLatency,
		m.QueryResultsCount,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
