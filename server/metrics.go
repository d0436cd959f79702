package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warranty_agent_queries_total",
		Help: "Processed warranty queries by outcome.",
	}, []string{"outcome"})

	queryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "warranty_agent_query_duration_seconds",
		Help:    "End-to-end warranty query duration.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	analysisRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warranty_agent_analysis_runs_total",
		Help: "Analysis step executions by agent and outcome.",
	}, []string{"agent", "outcome"})
)

func outcomeLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
