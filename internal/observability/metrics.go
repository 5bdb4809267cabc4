// Package observability registers prometheus metrics for the indexing
// pipeline, cache, and search.
package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	indexDuration  *prometheus.HistogramVec
	searchDuration prometheus.Histogram
	flushDuration  prometheus.Histogram

	chunksIndexedTotal *prometheus.CounterVec
	chunksStoredTotal  prometheus.Gauge
	documentsTotal     *prometheus.CounterVec

	cacheLookupsTotal *prometheus.CounterVec
	embedCallsTotal   prometheus.Counter
	embedTextsTotal   prometheus.Counter

	watcherEventsTotal *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			indexDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "memsearch_index_duration_seconds",
					Help:    "Document indexing duration in seconds by doc type.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"doc_type"},
			),
			searchDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "memsearch_search_duration_seconds",
					Help:    "Search duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			flushDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "memsearch_flush_duration_seconds",
					Help:    "Flush (compaction) duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			chunksIndexedTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "memsearch_chunks_indexed_total",
					Help: "Total chunks written to the store by doc type.",
				},
				[]string{"doc_type"},
			),
			chunksStoredTotal: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "memsearch_chunks_stored",
					Help: "Current number of chunks in the vector store.",
				},
			),
			documentsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "memsearch_documents_total",
					Help: "Total documents processed by status.",
				},
				[]string{"status"},
			),
			cacheLookupsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "memsearch_cache_lookups_total",
					Help: "Embedding cache lookups by outcome (hit/miss).",
				},
				[]string{"outcome"},
			),
			embedCallsTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "memsearch_embed_calls_total",
					Help: "Total embedding backend invocations.",
				},
			),
			embedTextsTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "memsearch_embed_texts_total",
					Help: "Total texts sent to the embedding backend.",
				},
			),
			watcherEventsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "memsearch_watcher_events_total",
					Help: "Filesystem events dispatched by kind.",
				},
				[]string{"kind"},
			),
		}

		prometheus.MustRegister(
			m.indexDuration,
			m.searchDuration,
			m.flushDuration,
			m.chunksIndexedTotal,
			m.chunksStoredTotal,
			m.documentsTotal,
			m.cacheLookupsTotal,
			m.embedCallsTotal,
			m.embedTextsTotal,
			m.watcherEventsTotal,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

// MetricsHandler exposes the prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

func RecordIndex(docType string, duration time.Duration, chunks int) {
	m := getMetrics()
	m.indexDuration.WithLabelValues(docType).Observe(duration.Seconds())
	m.chunksIndexedTotal.WithLabelValues(docType).Add(float64(chunks))
}

func RecordDocument(success bool) {
	status := "error"
	if success {
		status = "success"
	}
	getMetrics().documentsTotal.WithLabelValues(status).Inc()
}

func RecordSearch(duration time.Duration) {
	getMetrics().searchDuration.Observe(duration.Seconds())
}

func RecordFlush(duration time.Duration) {
	getMetrics().flushDuration.Observe(duration.Seconds())
}

func RecordCacheLookups(hits, misses int) {
	m := getMetrics()
	m.cacheLookupsTotal.WithLabelValues("hit").Add(float64(hits))
	m.cacheLookupsTotal.WithLabelValues("miss").Add(float64(misses))
}

func RecordEmbedCall(texts int) {
	m := getMetrics()
	m.embedCallsTotal.Inc()
	m.embedTextsTotal.Add(float64(texts))
}

func RecordWatcherEvent(kind string) {
	getMetrics().watcherEventsTotal.WithLabelValues(kind).Inc()
}

func SetChunksStored(total int) {
	getMetrics().chunksStoredTotal.Set(float64(total))
}
