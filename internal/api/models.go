package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/oselle/lookbook-api/internal/domain"
)

// GenerateAcceptedResponse is returned when a request enters the queue.
type GenerateAcceptedResponse struct {
	RequestID uuid.UUID `json:"request_id"`
	Status    string    `json:"status"`
	StatusURL string    `json:"status_url"`
}

// StatusResponse reports a run's progress. Result is present once the run
// succeeded; Error carries the sanitized failure message for failed runs.
type StatusResponse struct {
	RequestID   uuid.UUID      `json:"request_id"`
	Status      string         `json:"status"`
	Attempt     int            `json:"attempt,omitempty"`
	SubmittedAt time.Time      `json:"submitted_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Result      *domain.Result `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
}
