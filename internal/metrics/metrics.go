// Package metrics holds the prometheus collectors and the batch progress
// counters.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	RowsProcessed = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "perseo_rows_processed_total",
		Help: "Spreadsheet rows and receipts read by batch jobs.",
	}, []string{"job"})

	RowsInserted = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "perseo_rows_inserted_total",
		Help: "Rows written to the database or to an export file.",
	}, []string{"job"})

	FilesProcessed = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "perseo_files_processed_total",
		Help: "Work units finished by status.",
	}, []string{"job", "status"})

	JobDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "perseo_job_duration_seconds",
		Help:    "Wall time of batch jobs.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	}, []string{"job"})

	HTTPRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "perseo_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// ObserveJob records the duration of a job that started at start.
func ObserveJob(job string, start time.Time) {
	JobDuration.WithLabelValues(job).Observe(time.Since(start).Seconds())
}
