package aiqueue

import (
	"testing"
)

func TestNewTask(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		task := NewTask(TypeIntentRecognition, "user-1", "msg-1", input("hello"))

		if task.ID == "" {
			t.Error("task ID is empty")
		}
		if task.Status != StatusPending {
			t.Errorf("expected pending, got %s", task.Status)
		}
		if task.Priority != DefaultPriority {
			t.Errorf("expected priority %d, got %d", DefaultPriority, task.Priority)
		}
		if task.MaxRetries != DefaultMaxRetries {
			t.Errorf("expected max retries %d, got %d", DefaultMaxRetries, task.MaxRetries)
		}
		if task.CreatedAt.IsZero() {
			t.Error("created_at not set")
		}
		if task.StartedAt != nil || task.CompletedAt != nil {
			t.Error("started_at/completed_at must be unset at creation")
		}
	})

	t.Run("unique ids", func(t *testing.T) {
		a := NewTask(TypeTranslation, "u", "m", input("x"))
		b := NewTask(TypeTranslation, "u", "m", input("x"))
		if a.ID == b.ID {
			t.Error("two tasks got the same ID")
		}
	})

	t.Run("with options", func(t *testing.T) {
		task := NewTask(TypeAutoReply, "user-2", "msg-2", input("hi"),
			WithPriority(0),
			WithMaxRetries(7),
			WithMetadata("channel", "webchat"),
			WithMetadataMap(map[string]string{"lang": "tr"}),
		)

		if task.Priority != 0 {
			t.Errorf("expected priority 0, got %d", task.Priority)
		}
		if task.MaxRetries != 7 {
			t.Errorf("expected max retries 7, got %d", task.MaxRetries)
		}
		if task.Metadata["channel"] != "webchat" || task.Metadata["lang"] != "tr" {
			t.Errorf("metadata not applied: %v", task.Metadata)
		}
	})
}
