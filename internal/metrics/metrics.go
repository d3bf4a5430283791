package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SourceLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suntrack_source_loads_total",
			Help: "Total source loads by scheme and outcome",
		},
		[]string{"scheme", "status"},
	)

	SourceCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "suntrack_source_cache_hits_total",
			Help: "Source loads served from the TTL cache",
		},
	)

	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suntrack_pipeline_runs_total",
			Help: "Pipeline runs by outcome (ok, empty, error)",
		},
		[]string{"status"},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "suntrack_pipeline_duration_seconds",
			Help:    "End-to-end pipeline run latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RowsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "suntrack_rows_dropped_total",
			Help: "Rows dropped for unparseable timestamps",
		},
	)

	ChartRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suntrack_chart_renders_total",
			Help: "Chart images rendered by field",
		},
		[]string{"field"},
	)
)
