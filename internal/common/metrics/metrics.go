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

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	GatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total upstream gateway requests by gateway, operation and outcome",
		},
		[]string{"gateway", "operation", "outcome"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "gateway_request_duration_seconds",
			Help: "Duration of upstream gateway requests in seconds",
		},
		[]string{"gateway", "operation"},
	)

	StatusResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siba_status_resolved_total",
			Help: "Compliance statuses resolved, by status and data source",
		},
		[]string{"status", "data_source"},
	)

	SubmissionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siba_submission_outcomes_total",
			Help: "Registration submission outcomes, by result",
		},
		[]string{"result"}, // submitted, local_fallback, invalid
	)

	DashboardBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "siba_dashboard_build_duration_seconds",
			Help: "Duration of full fleet dashboard builds in seconds",
		},
	)

	DashboardProperties = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "siba_dashboard_properties",
			Help: "Properties in the last dashboard build, by primary flag",
		},
		[]string{"flag"},
	)
)
