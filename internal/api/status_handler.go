package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oselle/lookbook-api/internal/api/shared"
	"github.com/oselle/lookbook-api/internal/domain"
	"github.com/oselle/lookbook-api/internal/task"
)

// StatusHandler reports run progress and queue counters.
type StatusHandler struct {
	svc    GenerationService
	logger *slog.Logger
}

// NewStatusHandler creates the handler.
func NewStatusHandler(svc GenerationService, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{svc: svc, logger: logger}
}

// Status handles GET /api/v1/generate/{id}.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request ID")
		return
	}

	res, err := h.svc.Status(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	resp := StatusResponse{
		RequestID:   res.TaskID,
		Status:      string(res.Status),
		Attempt:     res.Attempt,
		SubmittedAt: res.SubmittedAt,
		StartedAt:   optionalTime(res.StartedAt),
		CompletedAt: optionalTime(res.CompletedAt),
	}

	switch res.Status {
	case task.StatusSucceeded:
		if result, ok := res.Value.(*domain.Result); ok {
			resp.Result = result
		}
	case task.StatusFailed:
		// Failed runs still carry their partial result, so callers see
		// processing times and degraded fields alongside the error.
		if result, ok := res.Value.(*domain.Result); ok {
			resp.Result = result
		}
		resp.Error = failureMessage(res)
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// QueueStatus handles GET /api/v1/queue/status.
func (h *StatusHandler) QueueStatus(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.svc.Stats())
}

// failureMessage prefers the live error over the archived result's message.
// Archived failed runs have no task error, only the sanitized message stored
// with the run.
func failureMessage(res task.Result) string {
	if res.Err != nil {
		return GetSafeErrorMessage(res.Err)
	}
	if result, ok := res.Value.(*domain.Result); ok && result.Error != "" {
		return result.Error
	}
	return GetSafeErrorMessage(nil)
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
