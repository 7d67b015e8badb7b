// Package workflow orchestrates one content-generation run through its
// stages: analysis, generation, upscaling, post-processing, and saving. Each
// stage runs under its own timeout; a stage that exceeds it fails the run
// with ErrStageTimeout. Optional outputs (video, report, upscales) degrade
// instead of failing the run.
package workflow

import (
	"context"
	"errors"

	"github.com/oselle/lookbook-api/internal/domain"
	"github.com/oselle/lookbook-api/internal/generation"
	"github.com/oselle/lookbook-api/internal/upscale"
)

// Stage names a step of the run. The values double as processing-time keys
// in results.
type Stage string

const (
	StageAnalysis    Stage = "analysis"
	StageGeneration  Stage = "generation"
	StageUpscale     Stage = "upscale"
	StagePostProcess Stage = "post_processing"
	StageSave        Stage = "saving"
)

// ErrStageTimeout marks a run that exceeded one of its stage timeouts. The
// wrapping error names the stage.
var ErrStageTimeout = errors.New("workflow stage timed out")

// Analyzer extracts structured product data and a background plan from the
// request.
type Analyzer interface {
	Analyze(ctx context.Context, req *domain.Request) (*domain.Analysis, error)
}

// Generator runs a generation job's slots concurrently.
type Generator interface {
	Generate(ctx context.Context, job *generation.Job) (*generation.Result, error)
}

// UpscalePool upscales a batch of images, degrading failures to the
// originals.
type UpscalePool interface {
	UpscaleAll(ctx context.Context, images []upscale.Image) []upscale.Outcome
}

// VideoGenerator animates the primary output image into a short clip.
type VideoGenerator interface {
	GenerateVideo(ctx context.Context, image []byte, prompt string) ([]byte, error)
}

// ReportBuilder renders the listing spreadsheet for a finished run.
type ReportBuilder interface {
	CreateReport(product domain.ProductData, imageURLs map[string]string, videoURL string) ([]byte, error)
}

// Archiver persists finished runs. Archive failures are logged, never fatal.
type Archiver interface {
	SaveRun(ctx context.Context, req *domain.Request, result *domain.Result) error
}
