package aiqueue

import (
	"container/heap"
	"encoding/json"
	"sync"
	"time"
)

// placeholderConfidence is attached to every result until a real model
// reports its own score.
const placeholderConfidence = 0.95

// QueueConfig configures a TaskQueue
type QueueConfig struct {
	// MaxConcurrent caps the number of in-flight tasks; Dequeue returns nil
	// once the cap is reached.
	MaxConcurrent int

	// MaxCompletedHistory bounds the completed-result cache; the oldest
	// inserted entries are evicted first.
	MaxCompletedHistory int

	// MaxFailedHistory bounds the failed/cancelled archive the same way.
	MaxFailedHistory int
}

func (c QueueConfig) withDefaults() QueueConfig {
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 10
	}
	if c.MaxCompletedHistory == 0 {
		c.MaxCompletedHistory = 1000
	}
	if c.MaxFailedHistory == 0 {
		c.MaxFailedHistory = 1000
	}
	return c
}

// TaskQueue is the authoritative store of task state. It enforces ordering,
// the concurrency ceiling, retry policy, and metric bookkeeping.
//
// Every method takes the queue lock for its full duration, so no two
// mutating operations ever interleave.
type TaskQueue struct {
	mu  sync.RWMutex
	cfg QueueConfig

	pending  pendingHeap
	inFlight map[string]*Task
	retry    []*Task // FIFO backlog, drained before the heap

	completed      map[string]*Result
	completedOrder []string
	failed         map[string]*Task
	failedOrder    []string

	nextSeq uint64

	// Running metrics. Counts of live containers are derived from the
	// containers themselves so they cannot drift.
	totalTasks     int64
	completedTotal int64
	failedTotal    int64
	avgProcessing  float64
	perType        map[TaskType]int64

	now func() time.Time
}

// NewTaskQueue creates an empty queue with defaults applied
func NewTaskQueue(cfg QueueConfig) *TaskQueue {
	return &TaskQueue{
		cfg:       cfg.withDefaults(),
		inFlight:  make(map[string]*Task),
		completed: make(map[string]*Result),
		failed:    make(map[string]*Task),
		perType:   make(map[TaskType]int64),
		now:       time.Now,
	}
}

// Enqueue inserts a task into the pending set. Smaller priority numbers
// dequeue first; within a priority band earlier submissions win.
func (q *TaskQueue) Enqueue(task *Task) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task.Status = StatusPending
	task.seq = q.nextSeq
	q.nextSeq++

	heap.Push(&q.pending, task)

	q.totalTasks++
	q.perType[task.Type]++
}

// Dequeue claims the next task for processing. It returns nil, not an error,
// when the concurrency ceiling has been reached or nothing is eligible.
// The retry backlog is drained before fresh submissions so retried work is
// never starved by a stream of high-priority arrivals.
func (q *TaskQueue) Dequeue() *Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.inFlight) >= q.cfg.MaxConcurrent {
		return nil
	}

	var task *Task
	switch {
	case len(q.retry) > 0:
		task = q.retry[0]
		q.retry = q.retry[1:]
	case q.pending.Len() > 0:
		task = heap.Pop(&q.pending).(*Task)
	default:
		return nil
	}

	started := q.now()
	task.StartedAt = &started
	task.Status = StatusProcessing
	q.inFlight[task.ID] = task

	return task
}

// CompleteTask records a successful outcome for an in-flight task. A stale
// id (already completed, failed, or cancelled) is a tolerated no-op, which
// guards against duplicate or late reports from a racing worker.
func (q *TaskQueue) CompleteTask(id string, output json.RawMessage) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.inFlight[id]
	if !ok {
		return
	}
	delete(q.inFlight, id)

	completed := q.now()
	task.Status = StatusCompleted
	task.OutputData = output
	task.CompletedAt = &completed

	started := completed
	if task.StartedAt != nil {
		started = *task.StartedAt
	}

	result := &Result{
		TaskID:           task.ID,
		Type:             task.Type,
		UserID:           task.UserID,
		MessageID:        task.MessageID,
		OutputData:       output,
		Confidence:       placeholderConfidence,
		ProcessingTimeMs: completed.Sub(started).Milliseconds(),
		CompletedAt:      completed,
	}

	q.completed[id] = result
	q.completedOrder = append(q.completedOrder, id)
	for len(q.completedOrder) > q.cfg.MaxCompletedHistory {
		oldest := q.completedOrder[0]
		q.completedOrder = q.completedOrder[1:]
		delete(q.completed, oldest)
	}

	q.completedTotal++
	n := float64(q.completedTotal)
	q.avgProcessing = (q.avgProcessing*(n-1) + float64(result.ProcessingTimeMs)) / n
}

// FailTask records a failed attempt for an in-flight task. If retries
// remain the task is reset to pending and appended to the retry backlog;
// otherwise it moves to the failed archive with the error attached.
// A stale id is a tolerated no-op.
func (q *TaskQueue) FailTask(id, errMsg string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failLocked(id, errMsg, false)
}

// DiscardTask fails an in-flight task terminally regardless of remaining
// retries. Used for permanent errors and unroutable task types.
func (q *TaskQueue) DiscardTask(id, errMsg string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failLocked(id, errMsg, true)
}

func (q *TaskQueue) failLocked(id, errMsg string, terminal bool) {
	task, ok := q.inFlight[id]
	if !ok {
		return
	}
	delete(q.inFlight, id)

	if !terminal && task.RetryCount < task.MaxRetries {
		task.RetryCount++
		task.Status = StatusPending
		task.StartedAt = nil
		task.CompletedAt = nil
		task.ErrorMessage = ""
		q.retry = append(q.retry, task)
		return
	}

	completed := q.now()
	task.Status = StatusFailed
	task.ErrorMessage = errMsg
	task.CompletedAt = &completed
	q.archiveFailedLocked(task)
	q.failedTotal++
}

// CancelTask removes a task from the queue's bookkeeping wherever it
// currently lives: in-flight, retry backlog, or pending. Cancelled tasks
// are filed alongside failures but keep the cancelled status. Returns
// false if the id was not found in any of the three sources.
//
// Cancellation does not reach into a running processor invocation; that
// invocation finishes and its completion report becomes a no-op.
func (q *TaskQueue) CancelTask(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if task, ok := q.inFlight[id]; ok {
		delete(q.inFlight, id)
		q.cancelLocked(task)
		return true
	}

	for i, task := range q.retry {
		if task.ID == id {
			q.retry = append(q.retry[:i], q.retry[i+1:]...)
			q.cancelLocked(task)
			return true
		}
	}

	// The heap has no keyed delete; a linear scan finds the slot and
	// heap.Remove restores the invariant. O(n) in pending size.
	if idx := q.pending.indexOf(id); idx >= 0 {
		task := heap.Remove(&q.pending, idx).(*Task)
		q.cancelLocked(task)
		return true
	}

	return false
}

func (q *TaskQueue) cancelLocked(task *Task) {
	completed := q.now()
	task.Status = StatusCancelled
	task.CompletedAt = &completed
	q.archiveFailedLocked(task)
}

func (q *TaskQueue) archiveFailedLocked(task *Task) {
	q.failed[task.ID] = task
	q.failedOrder = append(q.failedOrder, task.ID)
	for len(q.failedOrder) > q.cfg.MaxFailedHistory {
		oldest := q.failedOrder[0]
		q.failedOrder = q.failedOrder[1:]
		delete(q.failed, oldest)
	}
}

// TaskStatus reports the logical status for an id, or ErrTaskNotFound if
// the queue has never seen it or has since purged it from history.
func (q *TaskQueue) TaskStatus(id string) (TaskStatus, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if _, ok := q.inFlight[id]; ok {
		return StatusProcessing, nil
	}
	if _, ok := q.completed[id]; ok {
		return StatusCompleted, nil
	}
	if task, ok := q.failed[id]; ok {
		// Cancelled stays distinguishable from failed at the query surface.
		return task.Status, nil
	}
	for _, task := range q.retry {
		if task.ID == id {
			return StatusPending, nil
		}
	}
	if q.pending.indexOf(id) >= 0 {
		return StatusPending, nil
	}

	return "", ErrTaskNotFound
}

// TaskResult returns the stored result for a completed task. Once evicted
// from the bounded history the result is gone; callers must treat that as
// "no longer available", not as "never existed".
func (q *TaskQueue) TaskResult(id string) (*Result, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result, ok := q.completed[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return result, nil
}

// FailedTask returns the archived record of a failed or cancelled task
func (q *TaskQueue) FailedTask(id string) (*Task, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	task, ok := q.failed[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// ClearCompleted drops the whole completed-result cache and returns the
// number of entries removed. Cumulative counters are untouched.
func (q *TaskQueue) ClearCompleted() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := len(q.completed)
	q.completed = make(map[string]*Result)
	q.completedOrder = nil
	return removed
}

// ClearFailed drops the failed/cancelled archive and returns the number of
// entries removed
func (q *TaskQueue) ClearFailed() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := len(q.failed)
	q.failed = make(map[string]*Task)
	q.failedOrder = nil
	return removed
}

// Statistics returns an immutable snapshot of the queue's counters
func (q *TaskQueue) Statistics() Statistics {
	q.mu.RLock()
	defer q.mu.RUnlock()

	perType := make(map[TaskType]int64, len(q.perType))
	for k, v := range q.perType {
		perType[k] = v
	}

	return Statistics{
		TotalTasks:      q.totalTasks,
		PendingTasks:    q.pending.Len(),
		ProcessingTasks: len(q.inFlight),
		CompletedTasks:  q.completedTotal,
		FailedTasks:     q.failedTotal,
		RetryQueueSize:  len(q.retry),
		AvgProcessingMs: q.avgProcessing,
		TasksPerType:    perType,
		QueueHealth: QueueHealth{
			MaxConcurrentTasks:     q.cfg.MaxConcurrent,
			CurrentConcurrentTasks: len(q.inFlight),
			UtilizationRate:        float64(len(q.inFlight)) / float64(q.cfg.MaxConcurrent),
		},
	}
}

// pendingHeap orders tasks by (priority asc, created_at asc, seq asc)
type pendingHeap []*Task

func (h pendingHeap) Len() int { return len(h) }

func (h pendingHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority
	}
	if !h[i].CreatedAt.Equal(h[j].CreatedAt) {
		return h[i].CreatedAt.Before(h[j].CreatedAt)
	}
	return h[i].seq < h[j].seq
}

func (h pendingHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *pendingHeap) Push(x any) {
	*h = append(*h, x.(*Task))
}

func (h *pendingHeap) Pop() any {
	old := *h
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return task
}

func (h pendingHeap) indexOf(id string) int {
	for i, task := range h {
		if task.ID == id {
			return i
		}
	}
	return -1
}
