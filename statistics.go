package aiqueue

// Statistics is a point-in-time snapshot of queue counters. Pending,
// processing, and retry sizes are current; completed and failed counts are
// cumulative since the queue was created.
type Statistics struct {
	TotalTasks      int64              `json:"total_tasks"`
	PendingTasks    int                `json:"pending_tasks"`
	ProcessingTasks int                `json:"processing_tasks"`
	CompletedTasks  int64              `json:"completed_tasks"`
	FailedTasks     int64              `json:"failed_tasks"`
	RetryQueueSize  int                `json:"retry_queue_size"`
	AvgProcessingMs float64            `json:"average_processing_time_ms"`
	TasksPerType    map[TaskType]int64 `json:"tasks_per_type"`
	QueueHealth     QueueHealth        `json:"queue_health"`
}

// QueueHealth describes how close the queue is to its concurrency ceiling
type QueueHealth struct {
	MaxConcurrentTasks     int     `json:"max_concurrent_tasks"`
	CurrentConcurrentTasks int     `json:"current_concurrent_tasks"`
	UtilizationRate        float64 `json:"utilization_rate"`
}
