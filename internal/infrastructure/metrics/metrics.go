package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upload-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "upload_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "upload_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	// Plan counters, mode is single or multipart
	PlansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "upload_api",
			Name:      "plans_total",
			Help:      "Total upload plans issued",
		},
		[]string{"mode", "status"},
	)

	// Planned bytes counter
	PlannedBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "upload_api",
			Name:      "planned_bytes_total",
			Help:      "Total bytes covered by issued upload plans",
		},
		[]string{"mode"},
	)

	// Finalize counters
	FinalizesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "upload_api",
			Name:      "finalizes_total",
			Help:      "Total multipart finalize attempts",
		},
		[]string{"status"},
	)

	// Abort counters
	AbortsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "upload_api",
			Name:      "aborts_total",
			Help:      "Total multipart abort attempts",
		},
		[]string{"status"},
	)

	// S3 operations counter
	S3OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "upload_api",
			Name:      "s3_operations_total",
			Help:      "Total S3 operations",
		},
		[]string{"operation", "status"},
	)

	// S3 operation duration
	S3Duration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "upload_api",
			Name:      "s3_duration_seconds",
			Help:      "S3 operation duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"operation"},
	)

	// Presign URL duration
	PresignDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "upload_api",
			Name:      "presign_duration_seconds",
			Help:      "Presigned URL generation duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1},
		},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordPlan records an upload plan attempt
func RecordPlan(mode, status string, bytes int64) {
	PlansTotal.WithLabelValues(mode, status).Inc()
	if status == "success" && bytes > 0 {
		PlannedBytesTotal.WithLabelValues(mode).Add(float64(bytes))
	}
}

// RecordFinalize records a finalize attempt
func RecordFinalize(status string) {
	FinalizesTotal.WithLabelValues(status).Inc()
}

// RecordAbort records an abort attempt
func RecordAbort(status string) {
	AbortsTotal.WithLabelValues(status).Inc()
}

// RecordS3Operation records an S3 operation
func RecordS3Operation(operation, status string, durationSec float64) {
	S3OperationsTotal.WithLabelValues(operation, status).Inc()
	S3Duration.WithLabelValues(operation).Observe(durationSec)
}

// RecordPresign records presigned URL generation
func RecordPresign(durationSec float64) {
	PresignDuration.Observe(durationSec)
}
