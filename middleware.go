package aiqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
)

// MiddlewareFunc wraps task execution
type MiddlewareFunc func(next ProcessorFunc) ProcessorFunc

// RecoveryMiddleware converts processor panics into errors
func RecoveryMiddleware(logger zerolog.Logger) MiddlewareFunc {
	return func(next ProcessorFunc) ProcessorFunc {
		return func(ctx context.Context, task *Task) (out json.RawMessage, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error().
						Str("task_id", task.ID).
						Str("type", string(task.Type)).
						Interface("panic", r).
						Str("stack", string(debug.Stack())).
						Msg("panic in processor")
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			return next(ctx, task)
		}
	}
}

// LoggingMiddleware logs task execution with timing
func LoggingMiddleware(logger zerolog.Logger) MiddlewareFunc {
	return func(next ProcessorFunc) ProcessorFunc {
		return func(ctx context.Context, task *Task) (json.RawMessage, error) {
			start := time.Now()
			logger.Debug().
				Str("task_id", task.ID).
				Str("type", string(task.Type)).
				Int("attempt", task.RetryCount+1).
				Msg("processing task")

			out, err := next(ctx, task)

			duration := time.Since(start)
			if err != nil {
				logger.Warn().
					Str("task_id", task.ID).
					Str("type", string(task.Type)).
					Dur("duration", duration).
					Err(err).
					Msg("task attempt failed")
			} else {
				logger.Debug().
					Str("task_id", task.ID).
					Str("type", string(task.Type)).
					Dur("duration", duration).
					Msg("task completed")
			}

			return out, err
		}
	}
}

// MetricsMiddleware records processing counts and latency
func MetricsMiddleware() MiddlewareFunc {
	return func(next ProcessorFunc) ProcessorFunc {
		return func(ctx context.Context, task *Task) (json.RawMessage, error) {
			start := time.Now()

			out, err := next(ctx, task)

			taskDuration.WithLabelValues(string(task.Type)).Observe(time.Since(start).Seconds())
			if err != nil {
				tasksProcessed.WithLabelValues("error", string(task.Type)).Inc()
			} else {
				tasksProcessed.WithLabelValues("success", string(task.Type)).Inc()
			}

			return out, err
		}
	}
}
