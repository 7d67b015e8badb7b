package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// ConcurrentGenerator executes a job's slots in parallel with bounded
// concurrency and per-slot provider fallback. Generation calls are I/O bound,
// so the bound is a fan-out limit rather than a fixed worker pool.
type ConcurrentGenerator struct {
	maxConcurrent int
	callTimeout   time.Duration
	logger        *slog.Logger
}

// NewConcurrentGenerator creates a generator that runs at most maxConcurrent
// provider calls at once, each bounded by callTimeout.
func NewConcurrentGenerator(
	maxConcurrent int,
	callTimeout time.Duration,
	logger *slog.Logger,
) *ConcurrentGenerator {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &ConcurrentGenerator{
		maxConcurrent: maxConcurrent,
		callTimeout:   callTimeout,
		logger:        logger,
	}
}

// Generate runs every slot of the job. Each slot tries its provider
// preference list in order: quota and transient failures move on to the next
// provider, validation failures stop the slot immediately. A slot failure
// never aborts sibling slots.
//
// The returned result has one entry per slot, ordered by slot index. Generate
// returns ErrAllSlotsFailed only when no slot produced an image; partial
// success is a nil error with per-slot errors recorded in the result.
func (g *ConcurrentGenerator) Generate(ctx context.Context, job *Job) (*Result, error) {
	if len(job.Slots) == 0 {
		return nil, fmt.Errorf("%w: job has no slots", ErrInvalidInput)
	}

	log := g.logger.With("request_id", job.RequestID, "slot_count", len(job.Slots))
	log.Info("starting concurrent generation")
	start := time.Now()

	results := make([]SlotResult, len(job.Slots))

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(g.maxConcurrent)

	for i := range job.Slots {
		slot := job.Slots[i]
		grp.Go(func() error {
			// Slot failures are recorded, never propagated: returning an
			// error here would cancel sibling slots.
			results[slot.Index] = g.generateSlot(grpCtx, log, job, slot)
			return nil
		})
	}

	// The only error path out of the group is ctx cancellation, which the
	// per-slot results already reflect.
	_ = grp.Wait()

	res := &Result{Slots: results}
	succeeded := len(res.Succeeded())

	log.Info("concurrent generation finished",
		"succeeded", succeeded,
		"failed", len(job.Slots)-succeeded,
		"elapsed", time.Since(start).Round(time.Millisecond))

	if succeeded == 0 {
		return res, fmt.Errorf("%w: %d slots attempted", ErrAllSlotsFailed, len(job.Slots))
	}
	return res, nil
}

// generateSlot tries the slot's providers in preference order and returns the
// slot outcome. It never panics across the boundary; provider errors are
// classified with errors.Is.
func (g *ConcurrentGenerator) generateSlot(
	ctx context.Context,
	log *slog.Logger,
	job *Job,
	slot Slot,
) SlotResult {
	providers := slot.Providers
	if len(providers) == 0 {
		providers = job.Providers
	}

	res := SlotResult{Index: slot.Index, Name: slot.Name}
	if len(providers) == 0 {
		res.Err = fmt.Errorf("%w: slot %q has no providers", ErrInvalidInput, slot.Name)
		return res
	}

	var lastErr error
	for _, p := range providers {
		if ctx.Err() != nil {
			res.Err = fmt.Errorf("%w: %v", ErrTransient, ctx.Err())
			return res
		}

		img, err := g.callProvider(ctx, p, slot.Input)
		if err == nil {
			res.Provider = p.Name()
			res.Image = img
			log.Debug("slot generated", "slot", slot.Name, "provider", p.Name())
			return res
		}

		lastErr = err

		if errors.Is(err, ErrInvalidInput) {
			// Permanent: no other provider will accept this input either.
			res.Err = err
			log.Warn("slot failed permanently", "slot", slot.Name, "provider", p.Name(), "error", err)
			return res
		}

		log.Warn("provider failed, falling back",
			"slot", slot.Name,
			"provider", p.Name(),
			"error", err)
	}

	res.Err = fmt.Errorf("%w: slot %q: %w", ErrProvidersExhausted, slot.Name, lastErr)
	return res
}

// callProvider runs one provider call under the configured timeout. A late
// result from an abandoned call is discarded with its context.
func (g *ConcurrentGenerator) callProvider(
	ctx context.Context,
	p Provider,
	in Input,
) ([]byte, error) {
	callCtx := ctx
	if g.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.callTimeout)
		defer cancel()
	}

	img, err := p.Generate(callCtx, in)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: provider %s timed out after %s",
				ErrTransient, p.Name(), g.callTimeout)
		}
		return nil, err
	}
	if len(img) == 0 {
		return nil, fmt.Errorf("%w: provider %s returned no image", ErrTransient, p.Name())
	}
	return img, nil
}
