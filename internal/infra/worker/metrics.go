package worker

import (
	"catchup-feed/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics provides Prometheus metrics for the session-cleanup cron
// job. It embeds ConfigMetrics for configuration-fallback monitoring and
// adds job-execution metrics:
//
//   - worker_cron_job_runs_total: runs by status (success/failure)
//   - worker_cron_job_duration_seconds: execution duration histogram
//   - worker_cron_job_sessions_evicted_total: sessions evicted across all runs
//   - worker_cron_job_last_success_timestamp: unix timestamp of last success
type WorkerMetrics struct {
	*config.ConfigMetrics

	CronJobRunsTotal            *prometheus.CounterVec
	CronJobDurationSeconds      prometheus.Histogram
	CronJobSessionsEvictedTotal prometheus.Counter
	CronJobLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics creates a WorkerMetrics instance. Metrics are registered
// automatically via promauto when created.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		CronJobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cron_job_runs_total",
			Help: "Total number of cron job runs by status (success/failure)",
		}, []string{"status"}),

		CronJobDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_cron_job_duration_seconds",
			Help:    "Duration of cron job execution in seconds",
			Buckets: []float64{0.01, 0.1, 1, 5, 30, 60, 300},
		}),

		CronJobSessionsEvictedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_cron_job_sessions_evicted_total",
			Help: "Total number of expired sessions evicted across all cron job runs",
		}),

		CronJobLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_cron_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful cron job run",
		}),
	}
}

// MustRegister is a no-op kept for call-site symmetry with construction;
// promauto registers metrics at creation time.
func (m *WorkerMetrics) MustRegister() {}

// RecordJobRun increments the run counter for status ("success" or "failure").
func (m *WorkerMetrics) RecordJobRun(status string) {
	m.CronJobRunsTotal.WithLabelValues(status).Inc()
}

// RecordJobDuration observes a job's execution duration in seconds.
func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	m.CronJobDurationSeconds.Observe(seconds)
}

// RecordSessionsEvicted adds count to the total evicted-session counter.
func (m *WorkerMetrics) RecordSessionsEvicted(count int) {
	m.CronJobSessionsEvictedTotal.Add(float64(count))
}

// RecordLastSuccess sets the last-success gauge to the current time.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.CronJobLastSuccessTimestamp.SetToCurrentTime()
}
