package aiqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DispatcherConfig configures the dispatcher
type DispatcherConfig struct {
	// Processors is required; tasks with no registered processor fail
	// terminally.
	Processors *Processors

	// Workers is the number of polling goroutines. The queue's concurrency
	// ceiling still bounds in-flight work regardless of this value.
	Workers int

	// PollInterval is how long a worker sleeps after an empty dequeue.
	PollInterval time.Duration

	// ErrorBackoff is how long a worker sleeps after an archive write error.
	ErrorBackoff time.Duration

	// TaskTimeout bounds a single processor invocation.
	TaskTimeout time.Duration

	// ShutdownTimeout bounds how long Run waits for workers to drain.
	ShutdownTimeout time.Duration

	// Archive, when set, receives every terminal outcome.
	Archive Archive

	// Middleware is applied to every processor, outermost first.
	Middleware []MiddlewareFunc

	Logger zerolog.Logger
}

// Dispatcher drives the queue: it polls for claimable tasks, invokes the
// processor registered for the task's type, and reports the outcome back
// into the queue.
type Dispatcher struct {
	queue      *TaskQueue
	config     DispatcherConfig
	processors *Processors

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher for the given queue
func NewDispatcher(queue *TaskQueue, cfg DispatcherConfig) (*Dispatcher, error) {
	if cfg.Processors == nil {
		return nil, fmt.Errorf("processors required")
	}

	if cfg.Workers == 0 {
		cfg.Workers = 10
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	if cfg.ErrorBackoff == 0 {
		cfg.ErrorBackoff = 1 * time.Second
	}
	if cfg.TaskTimeout == 0 {
		cfg.TaskTimeout = 30 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	return &Dispatcher{
		queue:      queue,
		config:     cfg,
		processors: cfg.Processors,
	}, nil
}

// Start begins polling for tasks
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("dispatcher already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running = true

	for i := 0; i < d.config.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}

	d.config.Logger.Info().Int("workers", d.config.Workers).Msg("dispatcher started")
	return nil
}

// Stop signals workers to stop and waits for in-flight tasks to finish,
// bounded by the given context
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return ErrDispatcherStopped
	}
	d.mu.Unlock()

	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.config.Logger.Info().Msg("dispatcher stopped gracefully")
	case <-ctx.Done():
		d.config.Logger.Warn().Msg("dispatcher stopped (timeout)")
	}

	d.mu.Lock()
	d.running = false
	d.mu.Unlock()

	return nil
}

// Run blocks until the context is cancelled, then shuts down gracefully
func (d *Dispatcher) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), d.config.ShutdownTimeout)
	defer cancel()

	return d.Stop(shutdownCtx)
}

// worker is the cooperative polling loop: claim a task, process it, report
// back. An empty dequeue is not an error, just a signal to sleep briefly.
func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task := d.queue.Dequeue()
		if task == nil {
			ObserveQueueDepth(d.queue.Statistics())
			select {
			case <-ctx.Done():
				return
			case <-time.After(d.config.PollInterval):
			}
			continue
		}

		d.processTask(ctx, task)
		ObserveQueueDepth(d.queue.Statistics())
	}
}

// processTask executes a task through the middleware chain and reports the
// outcome. The queue already moved the task in-flight; a late report for a
// task cancelled in the meantime is absorbed as a no-op by the queue.
func (d *Dispatcher) processTask(ctx context.Context, task *Task) {
	processor, ok := d.processors.Get(task.Type)
	if !ok {
		d.config.Logger.Error().
			Str("task_id", task.ID).
			Str("type", string(task.Type)).
			Msg("no processor registered")
		d.queue.DiscardTask(task.ID, ErrProcessorNotFound.Error()+": "+string(task.Type))
		d.archiveFailure(ctx, task, ErrProcessorNotFound.Error())
		return
	}

	execute := ProcessorFunc(processor.Process)
	for i := len(d.config.Middleware) - 1; i >= 0; i-- {
		execute = d.config.Middleware[i](execute)
	}

	taskCtx, cancel := context.WithTimeout(ctx, d.config.TaskTimeout)
	defer cancel()

	output, err := execute(taskCtx, task)
	if err != nil {
		d.handleTaskError(ctx, task, err)
		return
	}

	d.queue.CompleteTask(task.ID, output)
	d.archiveResult(ctx, task.ID)
}

func (d *Dispatcher) handleTaskError(ctx context.Context, task *Task, err error) {
	if IsPermanent(err) {
		d.config.Logger.Warn().
			Str("task_id", task.ID).
			Err(err).
			Msg("task failed permanently")
		d.queue.DiscardTask(task.ID, err.Error())
		d.archiveFailure(ctx, task, err.Error())
		return
	}

	d.queue.FailTask(task.ID, err.Error())

	// FailTask either requeued the task or filed it terminally; only the
	// terminal outcome is archived.
	if status, serr := d.queue.TaskStatus(task.ID); serr == nil && status == StatusFailed {
		d.config.Logger.Warn().
			Str("task_id", task.ID).
			Int("retries", task.MaxRetries).
			Err(err).
			Msg("task exhausted retries")
		d.archiveFailure(ctx, task, err.Error())
	}
}

func (d *Dispatcher) archiveResult(ctx context.Context, taskID string) {
	if d.config.Archive == nil {
		return
	}

	result, err := d.queue.TaskResult(taskID)
	if err != nil {
		return
	}

	if err := d.config.Archive.PutResult(ctx, result); err != nil {
		d.config.Logger.Error().Str("task_id", taskID).Err(err).Msg("failed to archive result")
		d.backoff(ctx)
	}
}

func (d *Dispatcher) archiveFailure(ctx context.Context, task *Task, errMsg string) {
	if d.config.Archive == nil {
		return
	}

	record := &FailureRecord{
		TaskID:       task.ID,
		Type:         task.Type,
		UserID:       task.UserID,
		MessageID:    task.MessageID,
		ErrorMessage: errMsg,
		RetryCount:   task.RetryCount,
		FailedAt:     time.Now(),
	}

	if err := d.config.Archive.PutFailure(ctx, record); err != nil {
		d.config.Logger.Error().Str("task_id", task.ID).Err(err).Msg("failed to archive failure")
		d.backoff(ctx)
	}
}

func (d *Dispatcher) backoff(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(d.config.ErrorBackoff):
	}
}
