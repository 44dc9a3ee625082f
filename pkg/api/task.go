package api

import (
	"encoding/json"
	"time"

	"github.com/hasanerken/aiqueue"
)

type SubmitTaskRequest struct {
	Type       string            `json:"type"`
	UserID     string            `json:"user_id"`
	MessageID  string            `json:"message_id"`
	Input      json.RawMessage   `json:"input"`
	Priority   *int              `json:"priority,omitempty"`
	MaxRetries *int              `json:"max_retries,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type SubmitTaskResponse struct {
	TaskID string `json:"task_id"`
}

type GetTaskStatusRequest struct {
	TaskID string `in:"path=taskId"`
}

type GetTaskStatusResponse struct {
	TaskID string             `json:"task_id"`
	Status aiqueue.TaskStatus `json:"status"`
}

type GetTaskResultRequest struct {
	TaskID string `in:"path=taskId"`
}

type GetTaskResultResponse struct {
	TaskID           string           `json:"task_id"`
	Type             aiqueue.TaskType `json:"type"`
	UserID           string           `json:"user_id"`
	MessageID        string           `json:"message_id"`
	Output           json.RawMessage  `json:"output"`
	Confidence       float64          `json:"confidence"`
	ProcessingTimeMs int64            `json:"processing_time_ms"`
	CompletedAt      time.Time        `json:"completed_at"`
}

type CancelTaskRequest struct {
	TaskID string `in:"path=taskId"`
}

type CancelTaskResponse struct {
	TaskID    string `json:"task_id"`
	Cancelled bool   `json:"cancelled"`
}
