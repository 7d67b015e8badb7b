package api

import (
	"errors"
	"net/http"

	"github.com/oselle/lookbook-api/internal/generation"
	"github.com/oselle/lookbook-api/internal/platform/postgres"
	"github.com/oselle/lookbook-api/internal/platform/storage"
	"github.com/oselle/lookbook-api/internal/task"
	"github.com/oselle/lookbook-api/internal/workflow"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, task.ErrQueueFull):
		return http.StatusTooManyRequests

	case errors.Is(err, task.ErrQueueClosed):
		return http.StatusServiceUnavailable

	case errors.Is(err, task.ErrTaskNotFound),
		errors.Is(err, postgres.ErrRunNotFound):
		return http.StatusNotFound

	case errors.Is(err, generation.ErrInvalidInput):
		return http.StatusBadRequest

	case errors.Is(err, workflow.ErrStageTimeout):
		return http.StatusGatewayTimeout

	case errors.Is(err, generation.ErrQuotaExceeded),
		errors.Is(err, generation.ErrProvidersExhausted),
		errors.Is(err, generation.ErrAllSlotsFailed),
		errors.Is(err, generation.ErrTransient):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for the error.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return "An unexpected error occurred"

	case errors.Is(err, task.ErrQueueFull):
		return "Queue is full, try again later"

	case errors.Is(err, task.ErrQueueClosed):
		return "Service is shutting down"

	case errors.Is(err, task.ErrTaskNotFound),
		errors.Is(err, postgres.ErrRunNotFound):
		return "Request not found"

	case errors.Is(err, generation.ErrInvalidInput):
		return "Invalid generation input"

	case errors.Is(err, workflow.ErrStageTimeout):
		return "Generation timed out"

	case errors.Is(err, generation.ErrQuotaExceeded):
		return "Generation backends are over quota"

	case errors.Is(err, generation.ErrAllSlotsFailed),
		errors.Is(err, generation.ErrProvidersExhausted),
		errors.Is(err, generation.ErrTransient):
		return "Generation backends are unavailable"

	case errors.Is(err, storage.ErrPersistence):
		return "Failed to store generated content"

	default:
		return "An unexpected error occurred"
	}
}
