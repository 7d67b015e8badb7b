package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oselle/lookbook-api/internal/config"
	"github.com/oselle/lookbook-api/internal/domain"
	"github.com/oselle/lookbook-api/internal/generation"
	"github.com/oselle/lookbook-api/internal/platform/storage"
	"github.com/oselle/lookbook-api/internal/redact"
	"github.com/oselle/lookbook-api/internal/upscale"
)

// archiveTimeout bounds the best-effort run archive write after a run ends.
const archiveTimeout = 10 * time.Second

// ManagerConfig wires a Manager's collaborators. Video and Archive are
// optional; everything else is required.
type ManagerConfig struct {
	Analyzer  Analyzer
	Generator Generator

	// Providers is the default fallback chain handed to generation jobs.
	Providers []generation.Provider

	Upscaler UpscalePool
	Video    VideoGenerator
	Reports  ReportBuilder
	Store    storage.ArtifactStore
	Archive  Archiver

	Timeouts config.WorkflowConfig
	Logger   *slog.Logger
}

// Manager executes content-generation runs as a staged pipeline.
type Manager struct {
	cfg ManagerConfig
}

// NewManager validates the configuration and creates a Manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	switch {
	case cfg.Analyzer == nil:
		return nil, errors.New("analyzer cannot be nil")
	case cfg.Generator == nil:
		return nil, errors.New("generator cannot be nil")
	case len(cfg.Providers) == 0:
		return nil, errors.New("at least one provider is required")
	case cfg.Upscaler == nil:
		return nil, errors.New("upscaler cannot be nil")
	case cfg.Reports == nil:
		return nil, errors.New("report builder cannot be nil")
	case cfg.Store == nil:
		return nil, errors.New("artifact store cannot be nil")
	case cfg.Logger == nil:
		return nil, errors.New("logger cannot be nil")
	}
	return &Manager{cfg: cfg}, nil
}

// Run executes the full pipeline for one request and returns the aggregated
// result. A non-nil error means the run failed; the returned result still
// carries the failure outcome and timings.
func (m *Manager) Run(ctx context.Context, req *domain.Request) (*domain.Result, error) {
	log := m.cfg.Logger.With("request_id", req.ID)
	log.Info("workflow run starting",
		"product", req.Product,
		"username", req.Username,
		"want_video", req.WantVideo,
		"upscale", req.Upscale)

	result := &domain.Result{
		RequestID:       req.ID,
		SlotProviders:   make(map[string]string),
		DegradedFields:  []string{},
		ProcessingTimes: make(map[string]float64),
	}
	// Recorded before every exit, so even failed and archived runs report
	// their total time.
	totalStart := time.Now()
	recordTotal := func() {
		result.ProcessingTimes["total"] = time.Since(totalStart).Seconds()
	}

	analysis, err := m.analyze(ctx, req, result)
	if err != nil {
		recordTotal()
		return m.fail(ctx, log, req, result, err)
	}

	genResult, err := m.generate(ctx, req, analysis, result)
	if err != nil {
		recordTotal()
		return m.fail(ctx, log, req, result, err)
	}

	postStart := time.Now()

	outputs := m.upscaleOutputs(ctx, req, genResult, result, log)

	videoData, reportData := m.postProcess(ctx, req, analysis, genResult, result, log)
	result.ProcessingTimes[string(StagePostProcess)] = time.Since(postStart).Seconds()

	if err := m.save(ctx, req, genResult, outputs, videoData, reportData, result); err != nil {
		recordTotal()
		return m.fail(ctx, log, req, result, err)
	}

	if len(result.DegradedFields) > 0 {
		result.Outcome = domain.OutcomePartialSuccess
	} else {
		result.Outcome = domain.OutcomeComplete
	}
	recordTotal()

	m.archive(ctx, log, req, result)

	log.Info("workflow run finished",
		"outcome", result.Outcome,
		"degraded_fields", result.DegradedFields,
		"total_seconds", result.ProcessingTimes["total"])
	return result, nil
}

// analyze runs the analysis stage under its timeout.
func (m *Manager) analyze(
	ctx context.Context,
	req *domain.Request,
	result *domain.Result,
) (*domain.Analysis, error) {
	stageCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeouts.AnalysisTimeout)
	defer cancel()

	start := time.Now()
	analysis, err := m.cfg.Analyzer.Analyze(stageCtx, req)
	result.ProcessingTimes[string(StageAnalysis)] = time.Since(start).Seconds()

	if err != nil {
		return nil, stageError(StageAnalysis, stageCtx, err)
	}
	return analysis, nil
}

// generate builds the job from the analysis and runs the fan-out stage.
func (m *Manager) generate(
	ctx context.Context,
	req *domain.Request,
	analysis *domain.Analysis,
	result *domain.Result,
) (*generation.Result, error) {
	job, err := generation.BuildJob(req, analysis, m.cfg.Providers)
	if err != nil {
		return nil, err
	}

	stageCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeouts.GenerationTimeout)
	defer cancel()

	start := time.Now()
	genResult, err := m.cfg.Generator.Generate(stageCtx, job)
	result.ProcessingTimes[string(StageGeneration)] = time.Since(start).Seconds()

	if err != nil {
		return nil, stageError(StageGeneration, stageCtx, err)
	}

	for _, slot := range genResult.Succeeded() {
		result.SlotProviders[slot.Name] = slot.Provider
	}
	if genResult.Partial() {
		result.DegradedFields = append(result.DegradedFields, "image_variations")
	}
	return genResult, nil
}

// upscaleOutputs runs the upscale stage when requested. Failed upscales keep
// the original image; the degradation is recorded, never fatal.
func (m *Manager) upscaleOutputs(
	ctx context.Context,
	req *domain.Request,
	genResult *generation.Result,
	result *domain.Result,
	log *slog.Logger,
) []upscale.Outcome {
	if !req.Upscale {
		return nil
	}

	succeeded := genResult.Succeeded()
	images := make([]upscale.Image, len(succeeded))
	for i, slot := range succeeded {
		images[i] = upscale.Image{Name: slot.Name, Data: slot.Image}
	}

	stageCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeouts.UpscaleTimeout)
	defer cancel()

	outcomes := m.cfg.Upscaler.UpscaleAll(stageCtx, images)

	for _, o := range outcomes {
		if o.Degraded {
			log.Warn("upscale degraded to original", "image", o.Name, "error", o.Err)
			result.DegradedFields = append(result.DegradedFields, "upscale_image")
			break
		}
	}
	return outcomes
}

// postProcess runs the video and report subtasks concurrently under the
// post-processing timeout. Both degrade on failure. The report references
// artifact URLs planned ahead of the save stage.
func (m *Manager) postProcess(
	ctx context.Context,
	req *domain.Request,
	analysis *domain.Analysis,
	genResult *generation.Result,
	result *domain.Result,
	log *slog.Logger,
) (videoData, reportData []byte) {
	stageCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeouts.PostProcessTimeout)
	defer cancel()

	requestID := req.ID.String()

	plannedURLs := make(map[string]string)
	for _, slot := range genResult.Succeeded() {
		plannedURLs[slot.Name] = m.cfg.Store.URLFor(requestID, slot.Name+".jpg")
	}

	var plannedVideoURL string
	wantVideo := req.WantVideo && m.cfg.Video != nil
	if wantVideo {
		plannedVideoURL = m.cfg.Store.URLFor(requestID, "video.mp4")
	}

	grp, grpCtx := errgroup.WithContext(stageCtx)

	// Subtask failures are collected after Wait; the goroutines never touch
	// the shared result.
	var videoFailed, reportFailed bool

	if wantVideo {
		grp.Go(func() error {
			start := genResult.Succeeded()[0]
			data, err := m.cfg.Video.GenerateVideo(grpCtx, start.Image, videoPrompt(analysis))
			if err != nil {
				log.Warn("video generation failed", "error", err)
				videoFailed = true
				return nil
			}
			videoData = data
			return nil
		})
	} else if req.WantVideo {
		videoFailed = true
	}

	grp.Go(func() error {
		data, err := m.cfg.Reports.CreateReport(analysis.Product, plannedURLs, plannedVideoURL)
		if err != nil {
			log.Warn("report generation failed", "error", err)
			reportFailed = true
			return nil
		}
		reportData = data
		return nil
	})

	_ = grp.Wait()

	if videoFailed {
		result.DegradedFields = append(result.DegradedFields, "output_video_url")
	}
	if reportFailed {
		result.DegradedFields = append(result.DegradedFields, "report_url")
	}
	return videoData, reportData
}

// save persists every artifact and fills the result URLs. Any save failure
// fails the run with a persistence error: the content exists but was not
// delivered.
func (m *Manager) save(
	ctx context.Context,
	req *domain.Request,
	genResult *generation.Result,
	outputs []upscale.Outcome,
	videoData, reportData []byte,
	result *domain.Result,
) error {
	stageCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeouts.SaveTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		result.ProcessingTimes[string(StageSave)] = time.Since(start).Seconds()
	}()

	requestID := req.ID.String()

	for _, slot := range genResult.Succeeded() {
		url, err := m.cfg.Store.Save(stageCtx, requestID, domain.Artifact{
			Name:        slot.Name + ".jpg",
			ContentType: "image/jpeg",
			Data:        slot.Image,
		})
		if err != nil {
			return stageError(StageSave, stageCtx, err)
		}
		if result.PrimaryImageURL == "" {
			result.PrimaryImageURL = url
		}
		result.ImageVariations = append(result.ImageVariations, url)
	}

	for _, o := range outputs {
		url, err := m.cfg.Store.Save(stageCtx, requestID, domain.Artifact{
			Name:        o.Name + "_upscaled.jpg",
			ContentType: "image/jpeg",
			Data:        o.Data,
		})
		if err != nil {
			return stageError(StageSave, stageCtx, err)
		}
		result.UpscaledImages = append(result.UpscaledImages, url)
	}

	if len(videoData) > 0 {
		url, err := m.cfg.Store.Save(stageCtx, requestID, domain.Artifact{
			Name:        "video.mp4",
			ContentType: "video/mp4",
			Data:        videoData,
		})
		if err != nil {
			return stageError(StageSave, stageCtx, err)
		}
		result.VideoURL = url
	}

	if len(reportData) > 0 {
		url, err := m.cfg.Store.Save(stageCtx, requestID, domain.Artifact{
			Name:        "report.xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        reportData,
		})
		if err != nil {
			return stageError(StageSave, stageCtx, err)
		}
		result.ReportURL = url
	}

	return nil
}

// fail finalizes a failed run: outcome, error message, best-effort archive.
func (m *Manager) fail(
	ctx context.Context,
	log *slog.Logger,
	req *domain.Request,
	result *domain.Result,
	err error,
) (*domain.Result, error) {
	result.Outcome = domain.OutcomeFailed
	result.Error = redact.Error(err)

	m.archive(ctx, log, req, result)

	log.Error("workflow run failed", "error", err)
	return result, err
}

// archive persists the finished run when an archive is configured. The write
// survives a cancelled run context but not indefinitely.
func (m *Manager) archive(ctx context.Context, log *slog.Logger, req *domain.Request, result *domain.Result) {
	if m.cfg.Archive == nil {
		return
	}

	archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	if err := m.cfg.Archive.SaveRun(archiveCtx, req, result); err != nil {
		log.Warn("failed to archive run", "error", err)
	}
}

// stageError distinguishes a stage timeout from the stage's own failure.
func stageError(stage Stage, stageCtx context.Context, err error) error {
	if errors.Is(stageCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s stage: %v", ErrStageTimeout, stage, err)
	}
	return fmt.Errorf("%s stage: %w", stage, err)
}

// videoPrompt derives the animation prompt from the analyzed product.
func videoPrompt(analysis *domain.Analysis) string {
	if analysis.Product.Description == "" {
		return ""
	}
	return fmt.Sprintf("fashion model slowly turning to showcase %s, smooth camera motion",
		analysis.Product.Description)
}
