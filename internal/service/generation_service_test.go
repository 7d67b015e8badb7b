package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oselle/lookbook-api/internal/config"
	"github.com/oselle/lookbook-api/internal/domain"
	"github.com/oselle/lookbook-api/internal/generation"
	"github.com/oselle/lookbook-api/internal/platform/storage"
	"github.com/oselle/lookbook-api/internal/task"
	"github.com/oselle/lookbook-api/internal/upscale"
	"github.com/oselle/lookbook-api/internal/workflow"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type fixedAnalyzer struct{}

func (fixedAnalyzer) Analyze(_ context.Context, req *domain.Request) (*domain.Analysis, error) {
	return &domain.Analysis{
		Product: domain.ProductData{
			SKUID:       domain.BuildSKUID(req.Username, req.Product),
			Description: "Linen shirt",
		},
	}, nil
}

type fixedGenerator struct{}

func (fixedGenerator) Generate(_ context.Context, job *generation.Job) (*generation.Result, error) {
	res := &generation.Result{Slots: make([]generation.SlotResult, len(job.Slots))}
	for i, slot := range job.Slots {
		res.Slots[i] = generation.SlotResult{
			Index:    slot.Index,
			Name:     slot.Name,
			Provider: "flux-kontext",
			Image:    []byte("img"),
		}
	}
	return res, nil
}

type fixedReports struct{}

func (fixedReports) CreateReport(domain.ProductData, map[string]string, string) ([]byte, error) {
	return []byte("xlsx"), nil
}

type identityUpscaler struct{}

func (identityUpscaler) Upscale(_ context.Context, image []byte, _ int) ([]byte, error) {
	return image, nil
}

type fixedProvider struct{}

func (fixedProvider) Name() string { return "flux-kontext" }
func (fixedProvider) Generate(context.Context, generation.Input) ([]byte, error) {
	return []byte("img"), nil
}

func newService(t *testing.T, capacity int) (*GenerationService, *task.Runner) {
	t.Helper()
	logger := testLogger()

	store, err := storage.NewLocalStore(t.TempDir(), "http://localhost:8080", logger)
	require.NoError(t, err)

	timeouts := config.WorkflowConfig{
		AnalysisTimeout:    time.Second,
		GenerationTimeout:  time.Second,
		UpscaleTimeout:     time.Second,
		PostProcessTimeout: time.Second,
		SaveTimeout:        time.Second,
	}

	mgr, err := workflow.NewManager(workflow.ManagerConfig{
		Analyzer:  fixedAnalyzer{},
		Generator: fixedGenerator{},
		Providers: []generation.Provider{fixedProvider{}},
		Upscaler:  upscale.NewPool(identityUpscaler{}, 1, 2, logger),
		Reports:   fixedReports{},
		Store:     store,
		Timeouts:  timeouts,
		Logger:    logger,
	})
	require.NoError(t, err)

	runner := task.NewRunner(task.RunnerConfig{
		Capacity:       capacity,
		WorkerCount:    2,
		MaxAttempts:    1,
		RetryBaseDelay: 10 * time.Millisecond,
		RetryMaxDelay:  50 * time.Millisecond,
	}, logger)
	runner.Start()
	t.Cleanup(runner.Stop)

	svc, err := NewGenerationService(runner, mgr, nil, logger)
	require.NoError(t, err)
	return svc, runner
}

func newRequest() *domain.Request {
	req := domain.NewRequest()
	req.Text = "white linen shirt"
	req.Username = "acme"
	req.Product = "linen shirt"
	req.Upscale = false
	req.ReferenceImages[domain.ViewFrontside] = []byte("front")
	return req
}

func TestSubmitAndComplete(t *testing.T) {
	svc, runner := newService(t, 10)

	req := newRequest()
	require.NoError(t, svc.Submit(req, workflow.PriorityNormal))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := runner.WaitFor(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, task.StatusSucceeded, res.Status)

	result, ok := res.Value.(*domain.Result)
	require.True(t, ok)
	assert.Equal(t, domain.OutcomeComplete, result.Outcome)
	assert.NotEmpty(t, result.PrimaryImageURL)

	status, err := svc.Status(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusSucceeded, status.Status)
}

func TestStatusUnknownRun(t *testing.T) {
	svc, _ := newService(t, 10)

	_, err := svc.Status(context.Background(), uuid.New())
	assert.ErrorIs(t, err, task.ErrTaskNotFound)
}

func TestStatsReflectQueue(t *testing.T) {
	svc, _ := newService(t, 7)

	stats := svc.Stats()
	assert.Equal(t, 7, stats.MaxQueueSize)
	assert.Equal(t, 2, stats.MaxWorkers)
	assert.True(t, stats.IsRunning)
}
