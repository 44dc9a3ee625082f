package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/ggicci/httpin"
	"github.com/go-chi/chi/v5"

	"github.com/hasanerken/aiqueue"
	"github.com/hasanerken/aiqueue/pkg/api"
)

func submitTask(sm chi.Router, rt *runtime) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		var req api.SubmitTaskRequest

		if err := decode(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if req.Type == "" {
			http.Error(w, "task type required", http.StatusBadRequest)
			return
		}

		taskType := aiqueue.TaskType(req.Type)

		// Fail fast when the type has no processor, same as validating
		// task kinds at enqueue time.
		if rt.processors != nil && !rt.processors.Has(taskType) {
			http.Error(w, aiqueue.ErrProcessorNotFound.Error()+": "+req.Type, http.StatusBadRequest)
			return
		}

		var opts []aiqueue.TaskOption
		if req.Priority != nil {
			opts = append(opts, aiqueue.WithPriority(*req.Priority))
		}
		if req.MaxRetries != nil {
			opts = append(opts, aiqueue.WithMaxRetries(*req.MaxRetries))
		}
		if req.Metadata != nil {
			opts = append(opts, aiqueue.WithMetadataMap(req.Metadata))
		}

		task := aiqueue.NewTask(taskType, req.UserID, req.MessageID, req.Input, opts...)
		rt.queue.Enqueue(task)

		w.WriteHeader(http.StatusCreated)
		if err := encode(w, api.SubmitTaskResponse{TaskID: task.ID}); err != nil {
			rt.logger.Error().Err(err).Msg("failed to encode response")
		}
	}

	sm.Post("/api/v1/tasks", handler)
}

func getTaskStatus(sm chi.Router, rt *runtime) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		req := r.
			Context().
			Value(httpin.Input).(*api.GetTaskStatusRequest)

		status, err := rt.queue.TaskStatus(req.TaskID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		if err := encode(w, api.GetTaskStatusResponse{
			TaskID: req.TaskID,
			Status: status,
		}); err != nil {
			rt.logger.Error().Err(err).Msg("failed to encode response")
		}
	}

	sm.With(httpin.NewInput(api.GetTaskStatusRequest{})).
		Get("/api/v1/tasks/{taskId}/status", handler)
}

func getTaskResult(sm chi.Router, rt *runtime) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		req := r.
			Context().
			Value(httpin.Input).(*api.GetTaskResultRequest)

		result, err := rt.queue.TaskResult(req.TaskID)
		if errors.Is(err, aiqueue.ErrTaskNotFound) && rt.archive != nil {
			// Evicted from the bounded in-memory history; the archive may
			// still have it.
			result, err = rt.archive.GetResult(r.Context(), req.TaskID)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		if err := encode(w, api.GetTaskResultResponse{
			TaskID:           result.TaskID,
			Type:             result.Type,
			UserID:           result.UserID,
			MessageID:        result.MessageID,
			Output:           result.OutputData,
			Confidence:       result.Confidence,
			ProcessingTimeMs: result.ProcessingTimeMs,
			CompletedAt:      result.CompletedAt,
		}); err != nil {
			rt.logger.Error().Err(err).Msg("failed to encode response")
		}
	}

	sm.With(httpin.NewInput(api.GetTaskResultRequest{})).
		Get("/api/v1/tasks/{taskId}/result", handler)
}

func cancelTask(sm chi.Router, rt *runtime) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		req := r.
			Context().
			Value(httpin.Input).(*api.CancelTaskRequest)

		cancelled := rt.queue.CancelTask(req.TaskID)
		if !cancelled {
			w.WriteHeader(http.StatusNotFound)
		} else if rt.archive != nil {
			if task, err := rt.queue.FailedTask(req.TaskID); err == nil {
				record := &aiqueue.FailureRecord{
					TaskID:     task.ID,
					Type:       task.Type,
					UserID:     task.UserID,
					MessageID:  task.MessageID,
					Cancelled:  true,
					RetryCount: task.RetryCount,
					FailedAt:   time.Now(),
				}
				if err := rt.archive.PutFailure(r.Context(), record); err != nil {
					rt.logger.Error().Str("task_id", task.ID).Err(err).Msg("failed to archive cancellation")
				}
			}
		}

		if err := encode(w, api.CancelTaskResponse{
			TaskID:    req.TaskID,
			Cancelled: cancelled,
		}); err != nil {
			rt.logger.Error().Err(err).Msg("failed to encode response")
		}
	}

	sm.With(httpin.NewInput(api.CancelTaskRequest{})).
		Delete("/api/v1/tasks/{taskId}", handler)
}
