package replicate

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	replicate "github.com/replicate/replicate-go"

	"github.com/oselle/lookbook-api/internal/generation"
)

// maxDownloadBytes bounds a single output download.
const maxDownloadBytes = 128 << 20

// Client is a thin wrapper around the Replicate SDK shared by the provider,
// upscaler, and video generator.
type Client struct {
	api    *replicate.Client
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a client authenticated with the given API token.
func NewClient(token string, logger *slog.Logger) (*Client, error) {
	if token == "" {
		return nil, errors.New("replicate API token cannot be empty")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	api, err := replicate.NewClient(replicate.WithToken(token))
	if err != nil {
		return nil, fmt.Errorf("failed to create replicate client: %w", err)
	}

	return &Client{
		api:    api,
		http:   &http.Client{Timeout: 5 * time.Minute},
		logger: logger,
	}, nil
}

// run executes the model and returns the first output URL.
func (c *Client) run(ctx context.Context, model string, input replicate.PredictionInput) (string, error) {
	start := time.Now()
	output, err := c.api.Run(ctx, model, input, nil)
	if err != nil {
		return "", classifyError(err)
	}
	c.logger.DebugContext(ctx, "replicate model finished",
		"model", model,
		"elapsed", time.Since(start).Round(time.Millisecond))

	url := firstURL(output)
	if url == "" {
		return "", fmt.Errorf("%w: model %s returned no output URL", generation.ErrTransient, model)
	}
	return url, nil
}

// runAndDownload executes the model and downloads the first output.
func (c *Client) runAndDownload(ctx context.Context, model string, input replicate.PredictionInput) ([]byte, error) {
	url, err := c.run(ctx, model, input)
	if err != nil {
		return nil, err
	}
	return c.download(ctx, url)
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building download request: %v", generation.ErrTransient, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: downloading output: %v", generation.ErrTransient, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close download body", "error", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: output download returned status %d", generation.ErrTransient, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading output: %v", generation.ErrTransient, err)
	}
	return data, nil
}

// firstURL extracts the first URL from a prediction output, which the API
// returns either as a single string or a list of strings.
func firstURL(output replicate.PredictionOutput) string {
	switch v := output.(type) {
	case string:
		return v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// dataURI encodes image bytes as a data URI for model inputs.
func dataURI(image []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
}

// classifyError maps a Replicate API failure onto the generation error
// taxonomy.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", generation.ErrTransient, err)
	}

	var apiErr *replicate.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusTooManyRequests ||
			apiErr.Status == http.StatusPaymentRequired:
			return fmt.Errorf("%w: %s", generation.ErrQuotaExceeded, apiErr.Detail)
		case apiErr.Status >= 500:
			return fmt.Errorf("%w: %s", generation.ErrTransient, apiErr.Detail)
		case apiErr.Status >= 400:
			return fmt.Errorf("%w: %s", generation.ErrInvalidInput, apiErr.Detail)
		}
	}

	var modelErr *replicate.ModelError
	if errors.As(err, &modelErr) {
		return fmt.Errorf("%w: %v", generation.ErrInvalidInput, err)
	}

	return fmt.Errorf("%w: %v", generation.ErrTransient, err)
}
