package task

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunnerConfig holds configuration for the task runner.
type RunnerConfig struct {
	// Capacity bounds queued plus running tasks. Submissions beyond it fail
	// with ErrQueueFull.
	Capacity int

	// WorkerCount determines how many concurrent workers process tasks.
	WorkerCount int

	// MaxAttempts is the total number of execution attempts per task.
	MaxAttempts int

	// RetryBaseDelay and RetryMaxDelay shape the exponential backoff between
	// attempts: base * 2^attempt, capped at max.
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Capacity:       100,
		WorkerCount:    10,
		MaxAttempts:    3,
		RetryBaseDelay: time.Second,
		RetryMaxDelay:  30 * time.Second,
	}
}

// Runner manages background task processing: a bounded priority queue drained
// by a fixed pool of workers, with retry, backoff, and status counters.
type Runner struct {
	cfg    RunnerConfig
	logger *slog.Logger

	mu      sync.Mutex
	ready   readyQueue
	records map[uuid.UUID]*record
	seq     uint64

	// active counts tasks between submission and terminal state, including
	// those waiting out a retry delay. It enforces capacity.
	active    int
	running   int
	completed int
	failed    int
	started   bool
	closed    bool

	wake chan struct{}
	quit chan struct{}
	wg   sync.WaitGroup

	baseCtx    context.Context
	cancelBase context.CancelFunc
}

// NewRunner creates a Runner with the given configuration. Invalid values
// fall back to defaults.
func NewRunner(cfg RunnerConfig, logger *slog.Logger) *Runner {
	def := DefaultRunnerConfig()
	if cfg.Capacity <= 0 {
		logger.Warn("invalid queue capacity, using default",
			"specified", cfg.Capacity, "default", def.Capacity)
		cfg.Capacity = def.Capacity
	}
	if cfg.WorkerCount <= 0 {
		logger.Warn("invalid worker count, using default",
			"specified", cfg.WorkerCount, "default", def.WorkerCount)
		cfg.WorkerCount = def.WorkerCount
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = def.RetryBaseDelay
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = def.RetryMaxDelay
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		cfg:        cfg,
		logger:     logger,
		records:    make(map[uuid.UUID]*record),
		wake:       make(chan struct{}, cfg.Capacity),
		quit:       make(chan struct{}),
		baseCtx:    ctx,
		cancelBase: cancel,
	}
}

// Start launches the worker pool.
func (r *Runner) Start() {
	r.mu.Lock()
	if r.started || r.closed {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	for i := 0; i < r.cfg.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.logger.Info("task runner started",
		"workers", r.cfg.WorkerCount,
		"capacity", r.cfg.Capacity)
}

// Stop drains the runner: it stops accepting submissions, fails tasks that
// never started, lets running tasks finish, then stops the workers.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true

	// Tasks still queued (or waiting on a retry timer) will never run.
	for len(r.ready) > 0 {
		rec := heap.Pop(&r.ready).(*record)
		r.finishLocked(rec, nil, fmt.Errorf("%w: runner stopped", ErrQueueClosed))
	}
	r.mu.Unlock()

	close(r.quit)
	r.wg.Wait()
	r.cancelBase()

	r.logger.Info("task runner stopped")
}

// Submit enqueues a task. It returns immediately: ErrQueueFull when capacity
// is reached, ErrQueueClosed after Stop.
func (r *Runner) Submit(task Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrQueueClosed
	}
	if r.active >= r.cfg.Capacity {
		return fmt.Errorf("%w: capacity %d reached", ErrQueueFull, r.cfg.Capacity)
	}
	if _, exists := r.records[task.ID()]; exists {
		return fmt.Errorf("task %s already submitted", task.ID())
	}

	r.seq++
	rec := &record{
		task: task,
		seq:  r.seq,
		result: Result{
			TaskID:      task.ID(),
			Status:      StatusQueued,
			SubmittedAt: time.Now().UTC(),
		},
	}
	r.records[task.ID()] = rec
	r.active++
	heap.Push(&r.ready, rec)
	r.signal()

	r.logger.Debug("task enqueued",
		"task_id", task.ID(),
		"task_type", task.Type(),
		"priority", task.Priority(),
		"queue_len", len(r.ready))
	return nil
}

// Result returns a snapshot of the task's current result.
func (r *Runner) Result(id uuid.UUID) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return rec.result, nil
}

// WaitFor blocks until the task reaches a terminal state or ctx is done.
func (r *Runner) WaitFor(ctx context.Context, id uuid.UUID) (Result, error) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		res, err := r.Result(id)
		if err != nil {
			return Result{}, err
		}
		if res.Status.Terminal() {
			return res, nil
		}

		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Stats returns a consistent snapshot of the queue counters.
func (r *Runner) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Stats{
		QueueSize:      len(r.ready),
		MaxQueueSize:   r.cfg.Capacity,
		RunningTasks:   r.running,
		MaxWorkers:     r.cfg.WorkerCount,
		CompletedTasks: r.completed,
		FailedTasks:    r.failed,
		IsRunning:      r.started && !r.closed,
	}
}

func (r *Runner) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// worker pulls the highest-priority ready task and executes it, until the
// runner drains.
func (r *Runner) worker(id int) {
	defer r.wg.Done()

	log := r.logger.With("worker_id", id)
	log.Debug("worker started")

	for {
		rec := r.next()
		if rec == nil {
			log.Debug("worker stopped")
			return
		}
		r.execute(rec, log)
	}
}

// next blocks until a task is runnable or the runner is draining with an
// empty queue.
func (r *Runner) next() *record {
	for {
		r.mu.Lock()
		if len(r.ready) > 0 {
			rec := heap.Pop(&r.ready).(*record)
			rec.result.Status = StatusRunning
			rec.result.StartedAt = time.Now().UTC()
			r.running++
			r.mu.Unlock()
			return rec
		}
		closed := r.closed
		r.mu.Unlock()

		if closed {
			return nil
		}

		select {
		case <-r.wake:
		case <-r.quit:
		}
	}
}

// execute runs one attempt of a task and applies the retry policy on failure.
func (r *Runner) execute(rec *record, log *slog.Logger) {
	t := rec.task
	log = log.With("task_id", t.ID(), "task_type", t.Type())

	r.mu.Lock()
	attempt := rec.result.Attempt
	r.mu.Unlock()

	log.Info("processing task", "attempt", attempt+1, "max_attempts", r.cfg.MaxAttempts)

	value, err := t.Execute(r.baseCtx)

	r.mu.Lock()
	defer r.mu.Unlock()

	rec.result.Attempt++
	r.running--

	if err == nil {
		r.finishLocked(rec, value, nil)
		log.Info("task completed", "execution_time", rec.result.ExecutionTime())
		return
	}

	if errors.Is(err, ErrNonRetryable) {
		r.finishLocked(rec, value, err)
		log.Warn("task failed permanently", "error", err)
		return
	}

	if rec.result.Attempt >= r.cfg.MaxAttempts {
		r.finishLocked(rec, value, err)
		log.Error("task failed, retries exhausted",
			"attempts", rec.result.Attempt, "error", err)
		return
	}

	delay := r.backoff(rec.result.Attempt)
	rec.result.Status = StatusRetrying
	log.Warn("task failed, scheduling retry",
		"attempt", rec.result.Attempt,
		"retry_in", delay,
		"error", err)

	// The retry wait happens on a timer, not a worker slot. The task keeps
	// its capacity slot until terminal.
	time.AfterFunc(delay, func() { r.requeue(rec) })
}

// requeue returns a retrying task to the ready queue once its backoff delay
// has elapsed.
func (r *Runner) requeue(rec *record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		if !rec.result.Status.Terminal() {
			r.finishLocked(rec, nil, fmt.Errorf("%w: runner stopped", ErrQueueClosed))
		}
		return
	}

	rec.result.Status = StatusQueued
	heap.Push(&r.ready, rec)
	r.signal()
}

// finishLocked moves a record to its terminal state and updates counters.
// The value is kept for failed tasks too, so a failed run's partial payload
// still reaches callers. Caller holds r.mu.
func (r *Runner) finishLocked(rec *record, value any, err error) {
	rec.result.CompletedAt = time.Now().UTC()
	rec.result.Value = value
	if err != nil {
		rec.result.Status = StatusFailed
		rec.result.Err = err
		r.failed++
	} else {
		rec.result.Status = StatusSucceeded
		r.completed++
	}
	r.active--
}

// backoff computes the delay before the given (1-based) completed attempt's
// retry: base * 2^attempt, capped at the configured maximum.
func (r *Runner) backoff(attempt int) time.Duration {
	d := time.Duration(float64(r.cfg.RetryBaseDelay) * math.Pow(2, float64(attempt)))
	if d > r.cfg.RetryMaxDelay || d <= 0 {
		d = r.cfg.RetryMaxDelay
	}
	return d
}
