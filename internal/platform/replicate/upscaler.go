package replicate

import (
	"context"
	"fmt"

	replicate "github.com/replicate/replicate-go"
)

// Upscaler runs a hosted Real-ESRGAN model. Failures degrade the image to
// its original in the upscale pool, so errors here are reported, not fatal.
type Upscaler struct {
	client *Client
	model  string
}

// NewUpscaler creates an upscaler backed by the given model.
func NewUpscaler(client *Client, model string) (*Upscaler, error) {
	if client == nil {
		return nil, fmt.Errorf("client cannot be nil")
	}
	if model == "" {
		return nil, fmt.Errorf("upscaler model cannot be empty")
	}
	return &Upscaler{client: client, model: model}, nil
}

// Upscale returns the image scaled by the given factor.
func (u *Upscaler) Upscale(ctx context.Context, image []byte, scale int) ([]byte, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("image cannot be empty")
	}

	return u.client.runAndDownload(ctx, u.model, replicate.PredictionInput{
		"image":        dataURI(image),
		"scale":        scale,
		"face_enhance": false,
	})
}
