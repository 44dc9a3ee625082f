package aiqueue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a task
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"    // Waiting to be picked
	StatusProcessing TaskStatus = "processing" // Currently claimed by a dispatcher
	StatusCompleted  TaskStatus = "completed"  // Successfully finished
	StatusFailed     TaskStatus = "failed"     // Exhausted retries
	StatusCancelled  TaskStatus = "cancelled"  // Manually cancelled
)

// TaskType identifies which processor handles a task
type TaskType string

const (
	TypeIntentRecognition TaskType = "intent_recognition"
	TypeTranslation       TaskType = "translation"
	TypeSpeechRecognition TaskType = "speech_recognition"
	TypeSentimentAnalysis TaskType = "sentiment_analysis"
	TypeAutoReply         TaskType = "auto_reply"
)

// Task is a unit of deferred work owned by the queue.
//
// A task lives in exactly one queue container at a time: the pending heap,
// the in-flight map, the retry backlog, or the terminal archives. Transitions
// move the task between containers, they never copy it.
type Task struct {
	ID           string            `json:"id"`
	Type         TaskType          `json:"type"`
	Status       TaskStatus        `json:"status"`
	UserID       string            `json:"user_id"`
	MessageID    string            `json:"message_id"`
	InputData    json.RawMessage   `json:"input_data"`
	OutputData   json.RawMessage   `json:"output_data,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Priority     int               `json:"priority"`
	CreatedAt    time.Time         `json:"created_at"`
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	RetryCount   int               `json:"retry_count"`
	MaxRetries   int               `json:"max_retries"`
	Metadata     map[string]string `json:"metadata,omitempty"`

	// Enqueue sequence number, breaks creation-time ties so ordering
	// within a priority band stays strictly FIFO.
	seq uint64
}

// Result is produced once when a task completes and is immutable afterwards.
type Result struct {
	TaskID           string          `json:"task_id"`
	Type             TaskType        `json:"type"`
	UserID           string          `json:"user_id"`
	MessageID        string          `json:"message_id"`
	OutputData       json.RawMessage `json:"output_data"`
	Confidence       float64         `json:"confidence"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
	CompletedAt      time.Time       `json:"completed_at"`
}

// DefaultMaxRetries is applied to tasks constructed without WithMaxRetries.
const DefaultMaxRetries = 3

// DefaultPriority is the middle of the urgency scale; lower is more urgent.
const DefaultPriority = 5

// NewTask builds a pending task with a generated ID. The input payload is
// opaque to the queue and is carried to the processor untouched.
func NewTask(taskType TaskType, userID, messageID string, input json.RawMessage, opts ...TaskOption) *Task {
	t := &Task{
		ID:         generateID(),
		Type:       taskType,
		Status:     StatusPending,
		UserID:     userID,
		MessageID:  messageID,
		InputData:  input,
		Priority:   DefaultPriority,
		CreatedAt:  time.Now(),
		MaxRetries: DefaultMaxRetries,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// generateID generates a unique task ID using UUID v7 (time-ordered)
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails (shouldn't happen)
		return uuid.New().String()
	}
	return id.String()
}
