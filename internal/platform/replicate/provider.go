package replicate

import (
	"context"
	"fmt"
	"strings"

	replicate "github.com/replicate/replicate-go"

	"github.com/oselle/lookbook-api/internal/generation"
)

// ImageProvider runs a hosted image generation model. Two instances back the
// default fallback chain: the image-conditioned flux-kontext model first,
// then an SDXL-style text-to-image model.
type ImageProvider struct {
	client *Client
	name   string
	model  string
}

var _ generation.Provider = (*ImageProvider)(nil)

// NewImageProvider creates a provider for one Replicate model. name is the
// stable identifier used in logs and result metadata.
func NewImageProvider(client *Client, name, model string) (*ImageProvider, error) {
	if client == nil {
		return nil, fmt.Errorf("client cannot be nil")
	}
	if name == "" || model == "" {
		return nil, fmt.Errorf("provider name and model cannot be empty")
	}
	return &ImageProvider{client: client, name: name, model: model}, nil
}

// Name identifies the backend in logs and result metadata.
func (p *ImageProvider) Name() string { return p.name }

// Generate produces one image for the slot input.
func (p *ImageProvider) Generate(ctx context.Context, in generation.Input) ([]byte, error) {
	if in.Prompt == "" {
		return nil, fmt.Errorf("%w: empty prompt", generation.ErrInvalidInput)
	}
	return p.client.runAndDownload(ctx, p.model, p.buildInput(in))
}

// buildInput shapes the prediction input for the model family. Kontext-style
// models edit a reference image; SDXL-style models take an optional init
// image.
func (p *ImageProvider) buildInput(in generation.Input) replicate.PredictionInput {
	if strings.Contains(p.model, "kontext") {
		input := replicate.PredictionInput{
			"prompt":        in.Prompt,
			"aspect_ratio":  in.AspectRatio,
			"output_format": "jpg",
		}
		if len(in.ReferenceImages) > 0 {
			input["input_image"] = dataURI(in.ReferenceImages[0])
		}
		return input
	}

	input := replicate.PredictionInput{
		"prompt":      in.Prompt,
		"num_outputs": 1,
	}
	if len(in.ReferenceImages) > 0 {
		input["image"] = dataURI(in.ReferenceImages[0])
		input["prompt_strength"] = 0.8
	}
	return input
}
