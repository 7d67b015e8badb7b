// Package upscale provides the CPU-bound image upscaling worker pool. The
// pool is sized independently from generation concurrency: upscaling is
// compute-bound while generation is I/O-bound, so the two never share
// capacity assumptions. A per-image failure never fails the pipeline; the
// original image is substituted and the degradation recorded.
package upscale

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Upscaler is the capability required from an upscaling backend, local or
// remote.
type Upscaler interface {
	// Upscale returns the image scaled by the given factor.
	Upscale(ctx context.Context, image []byte, scale int) ([]byte, error)
}

// Image is one unit of upscaling work.
type Image struct {
	Name string
	Data []byte
}

// Outcome is the result for one input image. Data is always populated: the
// upscaled image on success, the untouched original when Degraded is set.
type Outcome struct {
	Name     string
	Data     []byte
	Degraded bool
	Err      error
}

// Pool runs upscales on a fixed number of workers.
type Pool struct {
	upscaler Upscaler
	workers  int
	scale    int
	logger   *slog.Logger
}

// NewPool creates a pool of the given size delegating to the upscaler.
func NewPool(upscaler Upscaler, workers, scale int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if scale <= 0 {
		scale = 4
	}
	return &Pool{
		upscaler: upscaler,
		workers:  workers,
		scale:    scale,
		logger:   logger,
	}
}

// UpscaleAll processes every image and returns one outcome per input, in
// input order. The returned slice always has the same length as the input;
// failed entries carry the original bytes with Degraded set.
func (p *Pool) UpscaleAll(ctx context.Context, images []Image) []Outcome {
	outcomes := make([]Outcome, len(images))
	if len(images) == 0 {
		return outcomes
	}

	p.logger.Info("starting concurrent upscaling",
		"images", len(images),
		"workers", p.workers,
		"scale", p.scale)
	start := time.Now()

	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = p.upscaleOne(ctx, images[i])
			}
		}()
	}

	for i := range images {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	degraded := 0
	for _, o := range outcomes {
		if o.Degraded {
			degraded++
		}
	}
	p.logger.Info("concurrent upscaling finished",
		"succeeded", len(outcomes)-degraded,
		"degraded", degraded,
		"elapsed", time.Since(start).Round(time.Millisecond))

	return outcomes
}

func (p *Pool) upscaleOne(ctx context.Context, img Image) Outcome {
	if ctx.Err() != nil {
		p.logger.Warn("upscale skipped, context done", "image", img.Name, "error", ctx.Err())
		return Outcome{Name: img.Name, Data: img.Data, Degraded: true, Err: ctx.Err()}
	}

	data, err := p.upscaler.Upscale(ctx, img.Data, p.scale)
	if err != nil || len(data) == 0 {
		p.logger.Warn("upscale failed, keeping original", "image", img.Name, "error", err)
		return Outcome{Name: img.Name, Data: img.Data, Degraded: true, Err: err}
	}
	return Outcome{Name: img.Name, Data: data}
}
