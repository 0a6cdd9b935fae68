package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 业务指标集合
var (
	QueriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatdoc_queries_total",
		Help: "Total number of questions processed across all sessions",
	})

	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatdoc_cache_hits_total",
		Help: "Number of queries answered from the response cache",
	})

	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatdoc_cache_misses_total",
		Help: "Number of queries that went through the full retrieval path",
	})

	DocumentsIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatdoc_documents_ingested_total",
		Help: "Number of documents successfully indexed",
	})

	ChunksIndexed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatdoc_chunks_indexed_total",
		Help: "Number of chunks written to the vector index",
	})

	GenerationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatdoc_generation_failures_total",
		Help: "Number of language model calls that returned an error",
	})
)

// Register 注册所有业务指标
func Register() {
	prometheus.MustRegister(
		QueriesTotal,
		CacheHits,
		CacheMisses,
		DocumentsIngested,
		ChunksIndexed,
		GenerationFailures,
	)
}
