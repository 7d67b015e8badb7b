package replicate

import (
	"context"
	"fmt"

	replicate "github.com/replicate/replicate-go"
)

// VideoGenerator animates the primary product image into a short clip with a
// hosted image-to-video model.
type VideoGenerator struct {
	client *Client
	model  string
}

// NewVideoGenerator creates a video generator backed by the given model.
func NewVideoGenerator(client *Client, model string) (*VideoGenerator, error) {
	if client == nil {
		return nil, fmt.Errorf("client cannot be nil")
	}
	if model == "" {
		return nil, fmt.Errorf("video model cannot be empty")
	}
	return &VideoGenerator{client: client, model: model}, nil
}

// GenerateVideo renders a clip from the start image and returns the encoded
// video bytes.
func (v *VideoGenerator) GenerateVideo(ctx context.Context, image []byte, prompt string) ([]byte, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("start image cannot be empty")
	}
	if prompt == "" {
		prompt = "slow camera orbit around the model showcasing the garment"
	}

	return v.client.runAndDownload(ctx, v.model, replicate.PredictionInput{
		"start_image": dataURI(image),
		"prompt":      prompt,
		"duration":    5,
	})
}
