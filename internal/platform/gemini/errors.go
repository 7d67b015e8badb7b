package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/oselle/lookbook-api/internal/generation"
)

// classifyError maps a Gemini API failure onto the generation error taxonomy
// so the dispatcher's fallback policy can act on it.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", generation.ErrTransient, err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", generation.ErrQuotaExceeded, apiErr.Message)
		case apiErr.Code >= 500:
			return fmt.Errorf("%w: %s", generation.ErrTransient, apiErr.Message)
		case apiErr.Code == http.StatusBadRequest:
			return fmt.Errorf("%w: %s", generation.ErrInvalidInput, apiErr.Message)
		}
	}

	// Network-level failures without an API status are assumed transient.
	return fmt.Errorf("%w: %v", generation.ErrTransient, err)
}
