package aiqueue

import (
	"context"
	"encoding/json"
	"testing"
)

func TestProcessors(t *testing.T) {
	echo := ProcessorFunc(func(ctx context.Context, task *Task) (json.RawMessage, error) {
		return task.InputData, nil
	})

	t.Run("register and get", func(t *testing.T) {
		p := NewProcessors()
		p.Register(TypeTranslation, echo)

		if !p.Has(TypeTranslation) {
			t.Error("Has should return true for registered type")
		}
		if p.Has(TypeAutoReply) {
			t.Error("Has should return false for unregistered type")
		}

		processor, ok := p.Get(TypeTranslation)
		if !ok {
			t.Fatal("Get should find registered processor")
		}
		out, err := processor.Process(context.Background(), &Task{InputData: input("hi")})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(out) != string(input("hi")) {
			t.Errorf("unexpected output: %s", out)
		}
	})

	t.Run("register func", func(t *testing.T) {
		p := NewProcessors()
		p.RegisterFunc(TypeSentimentAnalysis, echo)
		if !p.Has(TypeSentimentAnalysis) {
			t.Error("RegisterFunc should register")
		}
	})

	t.Run("duplicate registration panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic on duplicate registration")
			}
		}()
		p := NewProcessors()
		p.Register(TypeTranslation, echo)
		p.Register(TypeTranslation, echo)
	})

	t.Run("types", func(t *testing.T) {
		p := NewProcessors()
		p.Register(TypeTranslation, echo)
		p.Register(TypeAutoReply, echo)

		types := p.Types()
		if len(types) != 2 {
			t.Fatalf("expected 2 types, got %d", len(types))
		}
		seen := map[TaskType]bool{}
		for _, typ := range types {
			seen[typ] = true
		}
		if !seen[TypeTranslation] || !seen[TypeAutoReply] {
			t.Errorf("missing types: %v", types)
		}
	})
}
