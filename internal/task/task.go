package task

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a task.
type Status string

// Possible task status values.
const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusRetrying  Status = "retrying"
)

// Terminal reports whether the status is a final one.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Task represents a unit of background work to be processed. Lower Priority
// values are scheduled first; ties break by submission order.
type Task interface {
	// ID returns the task's unique identifier.
	ID() uuid.UUID

	// Type returns the task type identifier.
	Type() string

	// Priority returns the scheduling priority (lower runs first).
	Priority() int

	// Execute runs the task logic and returns its result. Wrapping the error
	// with ErrNonRetryable fails the task on the first attempt.
	Execute(ctx context.Context) (any, error)
}

// Result is the observable outcome of a submitted task. It is a snapshot;
// the runner keeps the authoritative copy until the task is terminal.
type Result struct {
	TaskID      uuid.UUID
	Status      Status
	Value       any
	Err         error
	Attempt     int
	SubmittedAt time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}

// ExecutionTime returns how long the task ran, or zero if it has not
// completed.
func (r Result) ExecutionTime() time.Duration {
	if r.StartedAt.IsZero() || r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Stats is a consistent snapshot of the queue's counters.
type Stats struct {
	QueueSize      int  `json:"queue_size"`
	MaxQueueSize   int  `json:"max_queue_size"`
	RunningTasks   int  `json:"running_tasks"`
	MaxWorkers     int  `json:"max_workers"`
	CompletedTasks int  `json:"completed_tasks"`
	FailedTasks    int  `json:"failed_tasks"`
	IsRunning      bool `json:"is_running"`
}
