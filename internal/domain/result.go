package domain

import "github.com/google/uuid"

// Artifact is one deliverable produced by a workflow run.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

// Outcome is the terminal state of a workflow run.
type Outcome string

const (
	OutcomeComplete       Outcome = "complete"
	OutcomePartialSuccess Outcome = "partial_success"
	OutcomeFailed         Outcome = "failed"
)

// Result is the aggregated outcome of one workflow run, delivered to the
// caller once the run reaches a terminal state.
type Result struct {
	RequestID uuid.UUID `json:"request_id"`
	Outcome   Outcome   `json:"outcome"`

	PrimaryImageURL string   `json:"output_image_url,omitempty"`
	ImageVariations []string `json:"image_variations,omitempty"`
	UpscaledImages  []string `json:"upscale_image,omitempty"`
	VideoURL        string   `json:"output_video_url,omitempty"`
	ReportURL       string   `json:"report_url,omitempty"`

	// SlotProviders records which provider served each generation slot, so
	// callers can tell when a fallback backend was used.
	SlotProviders map[string]string `json:"slot_providers,omitempty"`

	// DegradedFields lists components that fell back or were omitted, so
	// callers can distinguish full from partial success without logs.
	DegradedFields []string `json:"degraded_fields"`

	// ProcessingTimes maps stage names to elapsed seconds. Keys: analysis,
	// generation, post_processing, saving, total.
	ProcessingTimes map[string]float64 `json:"processing_times"`

	Error string `json:"error,omitempty"`
}
