package aiqueue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for monitoring task processing.
var (
	// tasksProcessed tracks processed attempts by outcome and task type.
	// Labels:
	//   - status: "success" or "error"
	//   - type: task type (e.g., "translation", "auto_reply")
	tasksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aiqueue_processed_total",
		Help: "The total number of processed task attempts",
	}, []string{"status", "type"})

	// taskDuration tracks processing latency per task type.
	taskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aiqueue_task_duration_seconds",
		Help:    "Duration of task processing",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})

	// queueDepth tracks how many tasks sit in each queue container.
	// Labels:
	//   - container: "pending", "processing", or "retry"
	queueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "aiqueue_queue_depth",
		Help: "Number of tasks in each queue container",
	}, []string{"container"})

	// queueUtilization tracks in-flight tasks against the concurrency ceiling.
	queueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "aiqueue_utilization_rate",
		Help: "In-flight tasks divided by the concurrency ceiling",
	})
)

// ObserveQueueDepth publishes container sizes from a statistics snapshot
func ObserveQueueDepth(stats Statistics) {
	queueDepth.WithLabelValues("pending").Set(float64(stats.PendingTasks))
	queueDepth.WithLabelValues("processing").Set(float64(stats.ProcessingTasks))
	queueDepth.WithLabelValues("retry").Set(float64(stats.RetryQueueSize))
	queueUtilization.Set(stats.QueueHealth.UtilizationRate)
}
