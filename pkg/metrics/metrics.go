// Package metrics provides Prometheus metrics for the Sorrel service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BatchRunsTotal tracks auto-resolution batch runs by status
	BatchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sorrel",
			Subsystem: "resolution",
			Name:      "batch_runs_total",
			Help:      "Total number of auto-resolution batch runs by status",
		},
		[]string{"status"},
	)

	// BatchRunDuration tracks batch run duration in seconds
	BatchRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sorrel",
			Subsystem: "resolution",
			Name:      "batch_run_duration_seconds",
			Help:      "Duration of auto-resolution batch runs in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
	)

	// RecordOutcomesTotal tracks resolved import records by outcome
	RecordOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sorrel",
			Subsystem: "resolution",
			Name:      "record_outcomes_total",
			Help:      "Total number of import records processed by outcome",
		},
		[]string{"outcome"},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sorrel",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)

	// KafkaPublishDuration tracks Kafka publish duration
	KafkaPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sorrel",
			Subsystem: "kafka",
			Name:      "publish_duration_seconds",
			Help:      "Duration of Kafka publish operations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
	)

	// TriggersProcessed tracks batch triggers consumed from Kafka
	TriggersProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sorrel",
			Subsystem: "consumer",
			Name:      "triggers_processed_total",
			Help:      "Total number of batch triggers processed from Kafka",
		},
		[]string{"status"},
	)
)

// RecordBatchRun records one batch run
func RecordBatchRun(status string, durationSeconds float64) {
	BatchRunsTotal.WithLabelValues(status).Inc()
	BatchRunDuration.Observe(durationSeconds)
}

// RecordRecordOutcome records one resolved import record
func RecordRecordOutcome(outcome string) {
	RecordOutcomesTotal.WithLabelValues(outcome).Inc()
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic, status string, durationSeconds float64) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
	KafkaPublishDuration.Observe(durationSeconds)
}

// RecordTriggerProcessed records a consumed batch trigger
func RecordTriggerProcessed(status string) {
	TriggersProcessed.WithLabelValues(status).Inc()
}
