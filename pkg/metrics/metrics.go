// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// DocumentsIngested tracks documents accepted for indexing.
	DocumentsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_documents_total",
			Help: "Total documents ingested",
		},
	)

	// ChunksIndexed tracks chunks written by ingestion.
	ChunksIndexed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_chunks_total",
			Help: "Total chunks written by ingestion",
		},
	)

	// EmbedJobsTotal tracks embedding job outcomes.
	EmbedJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embed_jobs_total",
			Help: "Embedding job outcomes",
		},
		[]string{"status"},
	)

	// EmbedBatchDuration tracks embedding batch duration against the backend.
	EmbedBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "embed_batch_duration_seconds",
			Help:    "Embedding backend batch duration",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// RetrievalDuration tracks per-method retrieval query duration.
	RetrievalDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retrieval_duration_seconds",
			Help:    "Retrieval query duration per method",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method"},
	)

	// RetrievalPartialTotal counts fused retrievals that lost one method.
	RetrievalPartialTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retrieval_partial_total",
			Help: "Hybrid retrievals degraded to a single method",
		},
	)

	// ChatTurnsTotal tracks chat turns by route and outcome.
	ChatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Chat turns by route and outcome",
		},
		[]string{"route", "status"},
	)

	// GenerationDuration tracks answer-model call duration.
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_duration_seconds",
			Help:    "Answer model call duration",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"model", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordGeneration records metrics for an answer-model call.
func RecordGeneration(model, status string, duration float64, tokensIn, tokensOut int) {
	GenerationDuration.WithLabelValues(model, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordIngest records metrics for an accepted document.
func RecordIngest(chunks int) {
	DocumentsIngested.Inc()
	ChunksIndexed.Add(float64(chunks))
}
