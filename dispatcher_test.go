package aiqueue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// memArchive is an in-memory Archive for tests
type memArchive struct {
	mu       sync.Mutex
	results  map[string]*Result
	failures map[string]*FailureRecord
}

func newMemArchive() *memArchive {
	return &memArchive{
		results:  make(map[string]*Result),
		failures: make(map[string]*FailureRecord),
	}
}

func (a *memArchive) PutResult(ctx context.Context, result *Result) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results[result.TaskID] = result
	return nil
}

func (a *memArchive) PutFailure(ctx context.Context, failure *FailureRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures[failure.TaskID] = failure
	return nil
}

func (a *memArchive) GetResult(ctx context.Context, taskID string) (*Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if r, ok := a.results[taskID]; ok {
		return r, nil
	}
	return nil, ErrTaskNotFound
}

func (a *memArchive) GetFailure(ctx context.Context, taskID string) (*FailureRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if f, ok := a.failures[taskID]; ok {
		return f, nil
	}
	return nil, ErrTaskNotFound
}

func (a *memArchive) DeleteBefore(ctx context.Context, before time.Time) (int, error) {
	return 0, nil
}

func (a *memArchive) Close() error { return nil }

func (a *memArchive) Ping(ctx context.Context) error { return nil }

func (a *memArchive) hasFailure(taskID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.failures[taskID]
	return ok
}

// waitForStatus polls until the task reaches the wanted status or times out
func waitForStatus(t *testing.T, q *TaskQueue, id string, want TaskStatus) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if status, err := q.TaskStatus(id); err == nil && status == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	status, err := q.TaskStatus(id)
	t.Fatalf("task %s never reached %s (last: %v, err: %v)", id, want, status, err)
}

func testDispatcherConfig(p *Processors, archive Archive) DispatcherConfig {
	return DispatcherConfig{
		Processors:   p,
		Workers:      2,
		PollInterval: 5 * time.Millisecond,
		ErrorBackoff: 10 * time.Millisecond,
		Archive:      archive,
		Logger:       zerolog.Nop(),
	}
}

func TestDispatcher_CompletesTasks(t *testing.T) {
	q := NewTaskQueue(QueueConfig{})
	archive := newMemArchive()

	processors := NewProcessors()
	processors.RegisterFunc(TypeTranslation, func(ctx context.Context, task *Task) (json.RawMessage, error) {
		return json.RawMessage(`{"translated":"hello"}`), nil
	})

	d, err := NewDispatcher(q, testDispatcherConfig(processors, archive))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer d.Stop(context.Background())

	task := NewTask(TypeTranslation, "u", "m", input("merhaba"))
	q.Enqueue(task)

	waitForStatus(t, q, task.ID, StatusCompleted)

	result, err := q.TaskResult(task.ID)
	if err != nil {
		t.Fatalf("result missing: %v", err)
	}
	if string(result.OutputData) != `{"translated":"hello"}` {
		t.Errorf("unexpected output: %s", result.OutputData)
	}

	// Terminal outcomes reach the archive too.
	if _, err := archive.GetResult(context.Background(), task.ID); err != nil {
		t.Errorf("result not archived: %v", err)
	}
}

func TestDispatcher_RetriesThenFails(t *testing.T) {
	q := NewTaskQueue(QueueConfig{})
	archive := newMemArchive()

	processors := NewProcessors()
	processors.RegisterFunc(TypeSentimentAnalysis, func(ctx context.Context, task *Task) (json.RawMessage, error) {
		return nil, errors.New("model unavailable")
	})

	d, err := NewDispatcher(q, testDispatcherConfig(processors, archive))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer d.Stop(context.Background())

	task := NewTask(TypeSentimentAnalysis, "u", "m", input("meh"), WithMaxRetries(2))
	q.Enqueue(task)

	waitForStatus(t, q, task.ID, StatusFailed)

	failed, err := q.FailedTask(task.ID)
	if err != nil {
		t.Fatalf("failure not archived in queue: %v", err)
	}
	if failed.RetryCount != 2 {
		t.Errorf("expected 2 retries before giving up, got %d", failed.RetryCount)
	}
	if failed.ErrorMessage != "model unavailable" {
		t.Errorf("unexpected error message: %q", failed.ErrorMessage)
	}
	if !archive.hasFailure(task.ID) {
		t.Error("failure not written to archive")
	}
}

func TestDispatcher_PermanentErrorSkipsRetries(t *testing.T) {
	q := NewTaskQueue(QueueConfig{})

	attempts := 0
	var mu sync.Mutex
	processors := NewProcessors()
	processors.RegisterFunc(TypeSpeechRecognition, func(ctx context.Context, task *Task) (json.RawMessage, error) {
		mu.Lock()
		attempts++
		mu.Unlock()
		return nil, Permanent(errors.New("unsupported codec"))
	})

	d, err := NewDispatcher(q, testDispatcherConfig(processors, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer d.Stop(context.Background())

	task := NewTask(TypeSpeechRecognition, "u", "m", input("audio"), WithMaxRetries(5))
	q.Enqueue(task)

	waitForStatus(t, q, task.ID, StatusFailed)

	mu.Lock()
	got := attempts
	mu.Unlock()
	if got != 1 {
		t.Errorf("permanent error should stop after one attempt, saw %d", got)
	}
}

func TestDispatcher_UnknownTypeFailsTerminally(t *testing.T) {
	q := NewTaskQueue(QueueConfig{})
	archive := newMemArchive()

	d, err := NewDispatcher(q, testDispatcherConfig(NewProcessors(), archive))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer d.Stop(context.Background())

	task := NewTask(TaskType("knowledge_base"), "u", "m", input("?"))
	q.Enqueue(task)

	waitForStatus(t, q, task.ID, StatusFailed)

	if !archive.hasFailure(task.ID) {
		t.Error("unroutable task not archived")
	}
}

func TestDispatcher_Lifecycle(t *testing.T) {
	q := NewTaskQueue(QueueConfig{})
	d, err := NewDispatcher(q, testDispatcherConfig(NewProcessors(), nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("requires processors", func(t *testing.T) {
		if _, err := NewDispatcher(q, DispatcherConfig{}); err == nil {
			t.Error("expected error without processors")
		}
	})

	t.Run("double start fails", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if err := d.Start(ctx); err != nil {
			t.Fatalf("start failed: %v", err)
		}
		if err := d.Start(ctx); err == nil {
			t.Error("second start should fail")
		}
		if err := d.Stop(context.Background()); err != nil {
			t.Errorf("stop failed: %v", err)
		}
	})

	t.Run("stop when stopped", func(t *testing.T) {
		if err := d.Stop(context.Background()); !errors.Is(err, ErrDispatcherStopped) {
			t.Errorf("expected ErrDispatcherStopped, got %v", err)
		}
	})
}
