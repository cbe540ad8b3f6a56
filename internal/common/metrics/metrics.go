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

	ScoringPasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_passes_total",
			Help: "Total number of score calculation passes by outcome",
		},
		[]string{"path", "outcome"},
	)

	ScoringFactorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_factor_failures_total",
			Help: "Factors that degraded to zero points during a pass",
		},
		[]string{"factor", "reason"},
	)

	ScoringDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "scoring_pass_duration_seconds",
			Help: "Duration of a full score calculation pass",
		},
		[]string{"path"},
	)

	ConfigCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_config_cache_requests_total",
			Help: "Configuration snapshot cache lookups by result",
		},
		[]string{"result"},
	)
)
