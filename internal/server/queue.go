package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hasanerken/aiqueue/pkg/api"
)

func getStatistics(sm chi.Router, rt *runtime) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		stats := rt.queue.Statistics()

		if err := encode(w, api.GetStatisticsResponse{Statistics: stats}); err != nil {
			rt.logger.Error().Err(err).Msg("failed to encode response")
		}
	}

	sm.Get("/api/v1/statistics", handler)
}

func clearCompleted(sm chi.Router, rt *runtime) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		removed := rt.queue.ClearCompleted()

		if err := encode(w, api.ClearResponse{Removed: removed}); err != nil {
			rt.logger.Error().Err(err).Msg("failed to encode response")
		}
	}

	sm.Post("/api/v1/admin/clear-completed", handler)
}

func clearFailed(sm chi.Router, rt *runtime) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		removed := rt.queue.ClearFailed()

		if err := encode(w, api.ClearResponse{Removed: removed}); err != nil {
			rt.logger.Error().Err(err).Msg("failed to encode response")
		}
	}

	sm.Post("/api/v1/admin/clear-failed", handler)
}
