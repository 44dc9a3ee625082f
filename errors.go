package aiqueue

import (
	"errors"
)

var (
	// ErrTaskNotFound is returned when a task cannot be found
	ErrTaskNotFound = errors.New("task not found")

	// ErrProcessorNotFound is returned when no processor is registered for a task type
	ErrProcessorNotFound = errors.New("processor not found for task type")

	// ErrDispatcherStopped is returned when the dispatcher is already stopped
	ErrDispatcherStopped = errors.New("dispatcher stopped")

	// ErrStoreClosed is returned when an archive store has been closed
	ErrStoreClosed = errors.New("store closed")
)

// PermanentError indicates a task must not be retried
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "permanent failure"
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps an error so the dispatcher fails the task without retrying
func Permanent(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent checks if an error disallows retries
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
