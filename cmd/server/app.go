package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/oselle/lookbook-api/internal/api"
	"github.com/oselle/lookbook-api/internal/api/middleware"
	"github.com/oselle/lookbook-api/internal/config"
	"github.com/oselle/lookbook-api/internal/generation"
	"github.com/oselle/lookbook-api/internal/platform/gemini"
	"github.com/oselle/lookbook-api/internal/platform/postgres"
	"github.com/oselle/lookbook-api/internal/platform/replicate"
	"github.com/oselle/lookbook-api/internal/platform/storage"
	"github.com/oselle/lookbook-api/internal/report"
	"github.com/oselle/lookbook-api/internal/service"
	"github.com/oselle/lookbook-api/internal/task"
	"github.com/oselle/lookbook-api/internal/upscale"
	"github.com/oselle/lookbook-api/internal/workflow"
)

// app holds the wired components and owns their teardown order.
type app struct {
	config  *config.Config
	logger  *slog.Logger
	runner  *task.Runner
	archive *postgres.Archive
	router  http.Handler
}

// cleanup releases resources after the HTTP server has stopped. The runner
// drains first so in-flight runs can still reach the archive.
func (a *app) cleanup() {
	a.runner.Stop()
	if a.archive != nil {
		a.archive.Close()
	}
}

// buildApp wires the full dependency graph from configuration.
func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	store, fileDir, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	analyzer, err := gemini.NewAnalyzer(ctx, logger, cfg.Providers)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}

	providers, videoGen, upscaler, err := buildProviders(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var archive *postgres.Archive
	if cfg.Database.URL != "" {
		archive, err = postgres.NewArchive(ctx, cfg.Database.URL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open run archive: %w", err)
		}
		if err := archive.EnsureSchema(ctx); err != nil {
			archive.Close()
			return nil, err
		}
		logger.Info("run archive enabled")
	}

	manager, err := workflow.NewManager(workflow.ManagerConfig{
		Analyzer:  analyzer,
		Generator: generation.NewConcurrentGenerator(cfg.Generation.MaxConcurrent, cfg.Generation.CallTimeout, logger),
		Providers: providers,
		Upscaler:  upscale.NewPool(upscaler, cfg.Upscale.WorkerCount, cfg.Upscale.Scale, logger),
		Video:     videoGen,
		Reports:   report.NewBuilder(logger),
		Store:     store,
		Archive:   archiveOrNil(archive),
		Timeouts:  cfg.Workflow,
		Logger:    logger,
	})
	if err != nil {
		if archive != nil {
			archive.Close()
		}
		return nil, fmt.Errorf("failed to create workflow manager: %w", err)
	}

	runner := task.NewRunner(task.RunnerConfig{
		Capacity:       cfg.Queue.Capacity,
		WorkerCount:    cfg.Queue.WorkerCount,
		MaxAttempts:    cfg.Queue.MaxAttempts,
		RetryBaseDelay: cfg.Queue.RetryBaseDelay,
		RetryMaxDelay:  cfg.Queue.RetryMaxDelay,
	}, logger)

	svc, err := service.NewGenerationService(runner, manager, archive, logger)
	if err != nil {
		return nil, err
	}

	router := api.NewRouter(api.RouterConfig{
		Service: svc,
		Auth:    middleware.NewAPIKeyAuth(cfg.Auth.APIKeys),
		FileDir: fileDir,
		Logger:  logger,
	})

	return &app{
		config:  cfg,
		logger:  logger,
		runner:  runner,
		archive: archive,
		router:  router,
	}, nil
}

// buildStore selects the artifact store backend. The returned fileDir is
// non-empty only for the local backend, which the router serves directly.
func buildStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.ArtifactStore, string, error) {
	switch cfg.Storage.Backend {
	case "gcs":
		store, err := storage.NewGCSStore(ctx, cfg.Storage.Bucket, logger)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create GCS store: %w", err)
		}
		return store, "", nil
	default:
		store, err := storage.NewLocalStore(cfg.Storage.OutputDir, cfg.Storage.BaseURL, logger)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create local store: %w", err)
		}
		return store, store.Dir(), nil
	}
}

// buildProviders assembles the generation fallback chain plus the video and
// upscale backends. Without a Replicate token the service runs on Gemini
// alone, with local upscaling and no video.
func buildProviders(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) ([]generation.Provider, workflow.VideoGenerator, upscale.Upscaler, error) {
	geminiProvider, err := gemini.NewProvider(ctx, logger, cfg.Providers)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create gemini provider: %w", err)
	}

	if cfg.Providers.ReplicateAPIToken == "" {
		logger.Warn("replicate token not configured; using gemini-only generation and local upscaling")
		return []generation.Provider{geminiProvider}, nil, upscale.NewLocal(), nil
	}

	client, err := replicate.NewClient(cfg.Providers.ReplicateAPIToken, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	var providers []generation.Provider
	if cfg.Providers.ReplicateModel != "" {
		primary, err := replicate.NewImageProvider(client, "flux-kontext", cfg.Providers.ReplicateModel)
		if err != nil {
			return nil, nil, nil, err
		}
		providers = append(providers, primary)
	}
	if cfg.Providers.ReplicateFallback != "" {
		fallback, err := replicate.NewImageProvider(client, "sdxl", cfg.Providers.ReplicateFallback)
		if err != nil {
			return nil, nil, nil, err
		}
		providers = append(providers, fallback)
	}
	providers = append(providers, geminiProvider)

	var videoGen workflow.VideoGenerator
	if cfg.Providers.ReplicateVideo != "" {
		vg, err := replicate.NewVideoGenerator(client, cfg.Providers.ReplicateVideo)
		if err != nil {
			return nil, nil, nil, err
		}
		videoGen = vg
	}

	var upscaler upscale.Upscaler = upscale.NewLocal()
	if cfg.Providers.ReplicateUpscaler != "" {
		up, err := replicate.NewUpscaler(client, cfg.Providers.ReplicateUpscaler)
		if err != nil {
			return nil, nil, nil, err
		}
		upscaler = up
	}

	return providers, videoGen, upscaler, nil
}

// archiveOrNil keeps the nil-interface semantics straight: a nil *Archive
// must stay a nil workflow.Archiver.
func archiveOrNil(a *postgres.Archive) workflow.Archiver {
	if a == nil {
		return nil
	}
	return a
}
