// Package service coordinates the API layer with the task runner and the
// workflow pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/oselle/lookbook-api/internal/domain"
	"github.com/oselle/lookbook-api/internal/platform/postgres"
	"github.com/oselle/lookbook-api/internal/task"
	"github.com/oselle/lookbook-api/internal/workflow"
)

// GenerationService accepts requests into the queue and reports their
// progress. Completed runs fall back to the archive once the runner has
// forgotten them.
type GenerationService struct {
	runner  *task.Runner
	manager *workflow.Manager
	archive *postgres.Archive
	logger  *slog.Logger
}

// NewGenerationService wires the service. archive may be nil.
func NewGenerationService(
	runner *task.Runner,
	manager *workflow.Manager,
	archive *postgres.Archive,
	logger *slog.Logger,
) (*GenerationService, error) {
	if runner == nil {
		return nil, errors.New("runner cannot be nil")
	}
	if manager == nil {
		return nil, errors.New("workflow manager cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &GenerationService{
		runner:  runner,
		manager: manager,
		archive: archive,
		logger:  logger,
	}, nil
}

// Submit queues a workflow run for the request. It returns immediately;
// task.ErrQueueFull means the service is at capacity.
func (s *GenerationService) Submit(req *domain.Request, priority int) error {
	if err := s.runner.Submit(workflow.NewTask(s.manager, req, priority)); err != nil {
		return fmt.Errorf("failed to queue request %s: %w", req.ID, err)
	}

	s.logger.Info("generation request queued",
		"request_id", req.ID,
		"username", req.Username,
		"product", req.Product,
		"priority", priority)
	return nil
}

// Status returns the current state of a run. Runs the runner no longer
// tracks are looked up in the archive when one is configured.
func (s *GenerationService) Status(ctx context.Context, id uuid.UUID) (task.Result, error) {
	res, err := s.runner.Result(id)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, task.ErrTaskNotFound) || s.archive == nil {
		return task.Result{}, err
	}

	rec, archErr := s.archive.GetRun(ctx, id)
	if archErr != nil {
		if errors.Is(archErr, postgres.ErrRunNotFound) {
			return task.Result{}, err
		}
		return task.Result{}, archErr
	}

	status := task.StatusSucceeded
	if rec.Outcome == domain.OutcomeFailed {
		status = task.StatusFailed
	}
	return task.Result{
		TaskID:      rec.ID,
		Status:      status,
		Value:       &rec.Result,
		SubmittedAt: rec.CreatedAt,
		CompletedAt: rec.CompletedAt,
	}, nil
}

// Stats returns a snapshot of the queue counters.
func (s *GenerationService) Stats() task.Stats {
	return s.runner.Stats()
}
