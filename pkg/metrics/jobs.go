package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics records maintenance job runs.
type JobMetrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "module_swap_job_runs_total",
		Help: "Maintenance job runs by job and outcome.",
	}, []string{"job", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "module_swap_job_duration_seconds",
		Help:    "Maintenance job duration by job and outcome.",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"job", "outcome"})
	reg.MustRegister(runs, duration)
	return &JobMetrics{runs: runs, duration: duration}
}

// ObserveJob records a single job run.
func (m *JobMetrics) ObserveJob(job, outcome string, duration time.Duration) {
	if m == nil || m.runs == nil {
		return
	}
	job = normalizeLabel(job)
	outcome = normalizeLabel(outcome)
	m.runs.WithLabelValues(job, outcome).Inc()
	m.duration.WithLabelValues(job, outcome).Observe(duration.Seconds())
}
