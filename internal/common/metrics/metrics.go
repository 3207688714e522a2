// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	UtterancesHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopping_utterances_total",
			Help: "Utterances handled, by resolved intent",
		},
		[]string{"intent"},
	)

	UtteranceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopping_utterance_duration_seconds",
			Help:    "End-to-end utterance handling time",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"intent"},
	)

	CollaboratorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopping_collaborator_failures_total",
			Help: "Collaborator calls that fell back to a degraded value",
		},
		[]string{"collaborator", "operation"},
	)

	FilterGuards = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopping_filter_guards_total",
			Help: "Post-filter criteria reverted or skipped to avoid an empty result",
		},
		[]string{"criterion", "action"},
	)

	ResearchCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopping_research_cache_total",
			Help: "Research cache lookups by result (hit or miss)",
		},
		[]string{"result"},
	)

	RankingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shopping_ranking_duration_seconds",
			Help:    "Time spent scoring and sorting products",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shopping_active_sessions",
			Help: "Sessions currently held by the session store",
		},
	)
)
