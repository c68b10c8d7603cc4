package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics are the collectors of the jobs module.
type JobMetrics struct {
	StatusTransitions *prometheus.CounterVec
	StoreCalls        *prometheus.HistogramVec
	StoreErrors       *prometheus.CounterVec
	ImportedRecords   prometheus.Counter
}

func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	m := &JobMetrics{
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crewboard",
			Name:      "job_status_transitions_total",
			Help:      "Job status changes written to the store.",
		}, []string{"from", "to"}),
		StoreCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "crewboard",
			Name:      "job_store_call_duration_seconds",
			Help:      "Latency of job store calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "operation"}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crewboard",
			Name:      "job_store_errors_total",
			Help:      "Failed job store calls.",
		}, []string{"backend", "operation"}),
		ImportedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crewboard",
			Name:      "job_imported_records_total",
			Help:      "Records written by batch imports.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.StatusTransitions, m.StoreCalls, m.StoreErrors, m.ImportedRecords)
	}
	return m
}

// ObserveStoreCall records one store call that started at start.
func (m *JobMetrics) ObserveStoreCall(backend, operation string, start time.Time, err error) {
	m.StoreCalls.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
	if err != nil {
		m.StoreErrors.WithLabelValues(backend, operation).Inc()
	}
}
