package task

import "errors"

// Common errors returned by the task queue.
var (
	// ErrQueueFull is returned by Submit when queued plus running tasks have
	// reached capacity. Submission is rejected immediately, never blocked.
	ErrQueueFull = errors.New("task queue is full")

	// ErrQueueClosed is returned by Submit after the runner has stopped or
	// begun draining.
	ErrQueueClosed = errors.New("task queue is closed")

	// ErrNonRetryable marks a task failure as permanent. Tasks wrap
	// validation failures with it to fail on the first attempt regardless of
	// the retry budget.
	ErrNonRetryable = errors.New("non-retryable task failure")

	// ErrTaskNotFound is returned when querying a task ID the runner has
	// never seen.
	ErrTaskNotFound = errors.New("task not found")
)
