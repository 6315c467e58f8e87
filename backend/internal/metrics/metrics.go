package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Extraction metrics
	TablesExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shipgraph_tables_extracted_total",
		Help: "Number of raw tables read from PDFs",
	})

	DocumentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipgraph_documents_processed_total",
			Help: "Number of PDFs processed by outcome",
		},
		[]string{"status"},
	)

	// Oracle metrics
	OracleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shipgraph_oracle_duration_seconds",
			Help:    "Time spent structuring one table",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
		[]string{"status"},
	)

	OraclePromptTokens = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shipgraph_oracle_prompt_tokens",
		Help:    "Prompt size in tokens per structuring call",
		Buckets: prometheus.ExponentialBuckets(64, 2, 10),
	})

	// Graph metrics
	FragmentsPopulated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipgraph_fragments_populated_total",
			Help: "Number of fragments handed to the populator by outcome",
		},
		[]string{"status"},
	)

	QuestionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shipgraph_questions_created_total",
		Help: "Number of Question nodes created",
	})

	// Query metrics
	QueriesResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipgraph_queries_total",
			Help: "Number of natural-language queries by strategy and outcome",
		},
		[]string{"strategy", "status"},
	)

	EmbeddingsBackfilled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shipgraph_embeddings_backfilled_total",
		Help: "Number of Question embeddings written",
	})
)

// Outcome labels
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusRejected = "rejected"
	StatusNoMatch  = "no_match"
)
