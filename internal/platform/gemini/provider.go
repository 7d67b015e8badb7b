package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/oselle/lookbook-api/internal/config"
	"github.com/oselle/lookbook-api/internal/generation"
)

// Provider generates images with a Gemini image model. It serves as the
// fallback backend behind the primary Replicate provider.
type Provider struct {
	logger *slog.Logger
	client *genai.Client
	model  string
}

var _ generation.Provider = (*Provider)(nil)

// NewProvider creates an image generation provider from the provider
// configuration.
func NewProvider(ctx context.Context, logger *slog.Logger, cfg config.ProviderConfig) (*Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("gemini API key cannot be empty")
	}
	if cfg.GeminiImageModel == "" {
		return nil, errors.New("gemini image model cannot be empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Provider{logger: logger, client: client, model: cfg.GeminiImageModel}, nil
}

// Name identifies the backend in logs and result metadata.
func (p *Provider) Name() string { return "gemini" }

// Generate produces one image for the slot input. Failures are classified
// into the generation error taxonomy for the dispatcher's fallback policy.
func (p *Provider) Generate(ctx context.Context, in generation.Input) ([]byte, error) {
	if in.Prompt == "" {
		return nil, fmt.Errorf("%w: empty prompt", generation.ErrInvalidInput)
	}

	parts := []*genai.Part{genai.NewPartFromText(in.Prompt)}
	for _, ref := range in.ReferenceImages {
		parts = append(parts, genai.NewPartFromBytes(ref, "image/jpeg"))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return nil, classifyError(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: empty candidate in response", generation.ErrTransient)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: content blocked by safety filters", generation.ErrInvalidInput)
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			p.logger.DebugContext(ctx, "gemini image generated",
				"model", p.model,
				"bytes", len(part.InlineData.Data))
			return part.InlineData.Data, nil
		}
	}

	return nil, fmt.Errorf("%w: no image in response", generation.ErrTransient)
}
