package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "club"
	subsystem = "media"

	StatusSuccess  = "success"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

var (
	BlobOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "blob_operations_total",
			Help:      "Blob store operations by kind and outcome",
		},
		[]string{"operation", "status"},
	)

	BlobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "blob_duration_seconds",
			Help:      "Blob store operation duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"operation"},
	)

	CleanupIntentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cleanup_intents_total",
			Help:      "Cleanup intent transitions (tracked, completed, retried, failed, requeued)",
		},
		[]string{"aggregate", "outcome"},
	)

	SlotTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "slot_transitions_total",
			Help:      "Registration slot transitions by kind and outcome",
		},
		[]string{"transition", "status"},
	)

	ThumbnailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "thumbnails_total",
			Help:      "Video thumbnail extractions by outcome",
		},
		[]string{"status"},
	)
)

func RecordBlob(operation, status string, durationSec float64) {
	BlobOperationsTotal.WithLabelValues(operation, status).Inc()
	BlobDuration.WithLabelValues(operation).Observe(durationSec)
}

func RecordIntent(aggregate, outcome string, n int) {
	if n <= 0 {
		return
	}
	CleanupIntentsTotal.WithLabelValues(aggregate, outcome).Add(float64(n))
}

func RecordSlotTransition(transition, status string) {
	SlotTransitionsTotal.WithLabelValues(transition, status).Inc()
}

func RecordThumbnail(status string) {
	ThumbnailsTotal.WithLabelValues(status).Inc()
}
