package aiqueue

// TaskOption configures a task at construction time
type TaskOption func(*Task)

// WithPriority sets task priority (lower = more urgent)
func WithPriority(priority int) TaskOption {
	return func(t *Task) {
		t.Priority = priority
	}
}

// WithMaxRetries sets maximum retry attempts
func WithMaxRetries(maxRetries int) TaskOption {
	return func(t *Task) {
		t.MaxRetries = maxRetries
	}
}

// WithMetadata adds a caller annotation
func WithMetadata(key, value string) TaskOption {
	return func(t *Task) {
		if t.Metadata == nil {
			t.Metadata = make(map[string]string)
		}
		t.Metadata[key] = value
	}
}

// WithMetadataMap sets multiple annotations at once
func WithMetadataMap(metadata map[string]string) TaskOption {
	return func(t *Task) {
		if t.Metadata == nil {
			t.Metadata = make(map[string]string)
		}
		for k, v := range metadata {
			t.Metadata[k] = v
		}
	}
}
