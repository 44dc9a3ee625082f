package aiqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Processor performs the actual work for one task type. The input payload
// is whatever the submitter provided; the returned payload becomes the
// task's output data.
type Processor interface {
	Process(ctx context.Context, task *Task) (json.RawMessage, error)
}

// ProcessorFunc is a function adapter for simple processors
type ProcessorFunc func(ctx context.Context, task *Task) (json.RawMessage, error)

func (f ProcessorFunc) Process(ctx context.Context, task *Task) (json.RawMessage, error) {
	return f(ctx, task)
}

// Processors holds all registered processors, keyed by task type. New task
// types register here without the queue changing.
type Processors struct {
	mu       sync.RWMutex
	registry map[TaskType]Processor
}

// NewProcessors creates an empty processor registry
func NewProcessors() *Processors {
	return &Processors{
		registry: make(map[TaskType]Processor),
	}
}

// Register adds a processor for a task type. Registering the same type
// twice is a programming error and panics.
func (p *Processors) Register(taskType TaskType, processor Processor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.registry[taskType]; exists {
		panic(fmt.Sprintf("processor for type %q already registered", taskType))
	}
	p.registry[taskType] = processor
}

// RegisterFunc adds a processing function for a task type
func (p *Processors) RegisterFunc(taskType TaskType, fn ProcessorFunc) {
	p.Register(taskType, fn)
}

// Get retrieves the processor for a task type
func (p *Processors) Get(taskType TaskType) (Processor, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	processor, ok := p.registry[taskType]
	return processor, ok
}

// Has checks if a processor is registered for the given type
func (p *Processors) Has(taskType TaskType) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.registry[taskType]
	return ok
}

// Types returns all registered task types
func (p *Processors) Types() []TaskType {
	p.mu.RLock()
	defer p.mu.RUnlock()

	types := make([]TaskType, 0, len(p.registry))
	for t := range p.registry {
		types = append(types, t)
	}
	return types
}
