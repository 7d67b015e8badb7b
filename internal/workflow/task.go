package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/oselle/lookbook-api/internal/domain"
	"github.com/oselle/lookbook-api/internal/generation"
	"github.com/oselle/lookbook-api/internal/task"
)

// TaskTypeContentGeneration is the task type for full pipeline runs.
const TaskTypeContentGeneration = "content_generation"

// Default scheduling priorities. Lower runs first.
const (
	PriorityHigh   = 0
	PriorityNormal = 5
	PriorityLow    = 10
)

// Task adapts a workflow run to the task runner. The task ID is the request
// ID, so callers poll runs and tasks with the same identifier.
type Task struct {
	req      *domain.Request
	mgr      *Manager
	priority int
}

var _ task.Task = (*Task)(nil)

// NewTask wraps a request into a runnable task.
func NewTask(mgr *Manager, req *domain.Request, priority int) *Task {
	return &Task{req: req, mgr: mgr, priority: priority}
}

// ID returns the request ID.
func (t *Task) ID() uuid.UUID { return t.req.ID }

// Type returns the task type identifier.
func (t *Task) Type() string { return TaskTypeContentGeneration }

// Priority returns the scheduling priority.
func (t *Task) Priority() int { return t.priority }

// Execute runs the pipeline. Validation failures are marked non-retryable;
// everything else is left to the runner's retry policy. The result is
// returned even on failure so terminal failed runs still deliver their
// timings and degraded fields.
func (t *Task) Execute(ctx context.Context) (any, error) {
	result, err := t.mgr.Run(ctx, t.req)
	if err != nil {
		if errors.Is(err, generation.ErrInvalidInput) {
			return result, fmt.Errorf("%w: %w", task.ErrNonRetryable, err)
		}
		return result, err
	}
	return result, nil
}
