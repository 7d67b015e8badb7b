package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/oselle/lookbook-api/internal/config"
	"github.com/oselle/lookbook-api/internal/domain"
	"github.com/oselle/lookbook-api/internal/generation"
)

// ErrInvalidAnalysis is returned when the model's response cannot be parsed
// into product data. It wraps generation.ErrInvalidInput: permanent, never
// retried.
var ErrInvalidAnalysis = fmt.Errorf("%w: invalid analysis response", generation.ErrInvalidInput)

const analysisPrompt = `You are a fashion product analyst for an e-commerce catalog.
Analyze the product in the attached reference photo together with this seller description:

%s

Respond with ONLY a JSON object, no markdown fences, with this exact shape:
{
  "description": "one-sentence marketing description",
  "key_features": ["feature", ...],
  "search_keywords": ["keyword", ...],
  "ideal_for": "Men" or "Women" or "Unisex",
  "backgrounds": [
    {"view": "frontside|backside|sideview", "name": "short_snake_case_label", "scene": "background scene description"}
  ]
}
Plan at most %d backgrounds. Only use views the seller photographed: %s.`

// analysisSchema mirrors the JSON the text model is asked to produce.
type analysisSchema struct {
	Description    string   `json:"description"`
	KeyFeatures    []string `json:"key_features"`
	SearchKeywords []string `json:"search_keywords"`
	IdealFor       string   `json:"ideal_for"`
	Backgrounds    []struct {
		View  string `json:"view"`
		Name  string `json:"name"`
		Scene string `json:"scene"`
	} `json:"backgrounds"`
}

// Analyzer extracts structured product data and a background plan from the
// request text and reference photos using a Gemini text model.
type Analyzer struct {
	logger     *slog.Logger
	client     *genai.Client
	model      string
	maxRetries int
	baseDelay  time.Duration
}

// NewAnalyzer creates an Analyzer from the provider configuration.
func NewAnalyzer(ctx context.Context, logger *slog.Logger, cfg config.ProviderConfig) (*Analyzer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("gemini API key cannot be empty")
	}
	if cfg.GeminiTextModel == "" {
		return nil, errors.New("gemini text model cannot be empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	baseDelay := time.Duration(cfg.AnalysisRetryDelay) * time.Second
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}

	return &Analyzer{
		logger:     logger,
		client:     client,
		model:      cfg.GeminiTextModel,
		maxRetries: cfg.AnalysisMaxRetries,
		baseDelay:  baseDelay,
	}, nil
}

// Analyze runs the combined product and background analysis for the request.
// Transient API failures are retried with exponential backoff and jitter;
// malformed responses are permanent.
func (a *Analyzer) Analyze(ctx context.Context, req *domain.Request) (*domain.Analysis, error) {
	prompt := a.buildPrompt(req)

	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	if front, ok := req.ReferenceImages[domain.ViewFrontside]; ok {
		parts = append(parts, genai.NewPartFromBytes(front, "image/jpeg"))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		a.logger.InfoContext(ctx, "calling analysis model",
			"request_id", req.ID,
			"model", a.model,
			"attempt", attempt+1,
			"max_attempts", a.maxRetries+1)

		resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		})
		if err == nil {
			analysis, perr := a.parseResponse(req, resp.Text())
			if perr == nil {
				return analysis, nil
			}
			// Malformed model output does not get better on retry.
			return nil, perr
		}

		lastErr = classifyError(err)
		if !errors.Is(lastErr, generation.ErrTransient) && !errors.Is(lastErr, generation.ErrQuotaExceeded) {
			return nil, lastErr
		}
		if attempt >= a.maxRetries {
			break
		}

		// delay = baseDelay * 2^attempt * (0.5 + rand(0, 0.5))
		backoff := float64(a.baseDelay) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rng.Float64()*0.5))

		a.logger.WarnContext(ctx, "analysis call failed, retrying",
			"request_id", req.ID,
			"attempt", attempt+1,
			"delay", delay,
			"error", lastErr)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", generation.ErrTransient, ctx.Err())
		}
	}

	return nil, fmt.Errorf("analysis failed after %d attempts: %w", a.maxRetries+1, lastErr)
}

func (a *Analyzer) buildPrompt(req *domain.Request) string {
	views := make([]string, 0, len(req.ReferenceImages))
	for _, v := range domain.PrimaryViews {
		if _, ok := req.ReferenceImages[v]; ok {
			views = append(views, string(v))
		}
	}

	maxBackgrounds := len(views) + req.NumberOfOutputs
	return fmt.Sprintf(analysisPrompt, req.Text, maxBackgrounds, strings.Join(views, ", "))
}

func (a *Analyzer) parseResponse(req *domain.Request, text string) (*domain.Analysis, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var schema analysisSchema
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &schema); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnalysis, err)
	}
	if schema.Description == "" {
		return nil, fmt.Errorf("%w: missing description", ErrInvalidAnalysis)
	}

	analysis := &domain.Analysis{
		Product: domain.ProductData{
			SKUID:          domain.BuildSKUID(req.Username, req.Product),
			Description:    schema.Description,
			KeyFeatures:    schema.KeyFeatures,
			SearchKeywords: schema.SearchKeywords,
			IdealFor:       schema.IdealFor,
		},
	}

	for _, bg := range schema.Backgrounds {
		view := domain.View(bg.View)
		if _, ok := req.ReferenceImages[view]; !ok {
			continue
		}
		if bg.Name == "" || bg.Scene == "" {
			continue
		}
		analysis.Backgrounds = append(analysis.Backgrounds, domain.BackgroundSpec{
			View:  view,
			Name:  bg.Name,
			Scene: bg.Scene,
		})
	}

	return analysis, nil
}
