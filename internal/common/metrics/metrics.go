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
)

// Qualification engine metrics.
var (
	QualificationResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qualification_results_total",
			Help: "Qualifications completed, by tier and request source",
		},
		[]string{"tier", "source"},
	)

	QualificationScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qualification_score",
			Help:    "Distribution of qualification scores",
			Buckets: []float64{10, 20, 30, 45, 55, 65, 80, 90, 100},
		},
	)

	NurtureSequencesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nurture_sequences_created_total",
			Help: "Nurture sequences instantiated from built-in templates",
		},
		[]string{"sequence_type"},
	)

	BulkItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulk_qualification_items_total",
			Help: "Bulk qualification items processed, by item type and outcome",
		},
		[]string{"type", "outcome"},
	)
)

// RecordQualification counts one finished qualification.
func RecordQualification(tier, source string, score int) {
	if source == "" {
		source = "manual"
	}
	QualificationResults.WithLabelValues(tier, source).Inc()
	QualificationScore.Observe(float64(score))
}
