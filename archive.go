package aiqueue

import (
	"context"
	"time"
)

// Archive persists terminal task outcomes outside the in-memory queue so
// they survive the bounded history and process restarts. Implementations
// live under store/.
type Archive interface {
	// PutResult stores a completed task's result
	PutResult(ctx context.Context, result *Result) error

	// PutFailure stores a terminal failure or cancellation record
	PutFailure(ctx context.Context, failure *FailureRecord) error

	// GetResult retrieves a stored result, ErrTaskNotFound if absent
	GetResult(ctx context.Context, taskID string) (*Result, error)

	// GetFailure retrieves a stored failure record, ErrTaskNotFound if absent
	GetFailure(ctx context.Context, taskID string) (*FailureRecord, error)

	// DeleteBefore prunes records older than the given time and returns
	// how many were removed
	DeleteBefore(ctx context.Context, before time.Time) (int, error)

	// Lifecycle
	Close() error
	Ping(ctx context.Context) error
}

// FailureRecord captures a task that ended in failure or cancellation
type FailureRecord struct {
	TaskID       string    `json:"task_id"`
	Type         TaskType  `json:"type"`
	UserID       string    `json:"user_id"`
	MessageID    string    `json:"message_id"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Cancelled    bool      `json:"cancelled"`
	RetryCount   int       `json:"retry_count"`
	FailedAt     time.Time `json:"failed_at"`
}
