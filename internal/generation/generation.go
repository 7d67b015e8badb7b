package generation

import (
	"context"

	"github.com/google/uuid"
)

// Input is the payload for a single provider call.
type Input struct {
	// Prompt is the full generation prompt for this slot.
	Prompt string

	// ReferenceImages are encoded reference photos, primary view first.
	ReferenceImages [][]byte

	// AspectRatio is the requested output aspect ratio, e.g. "9:16".
	AspectRatio string
}

// Provider is the capability required from an external generation backend.
// Implementations classify their failures by wrapping ErrTransient,
// ErrQuotaExceeded, or ErrInvalidInput.
type Provider interface {
	// Name identifies the backend in logs and result metadata.
	Name() string

	// Generate produces one image for the given input, honoring ctx for
	// cancellation and timeout.
	Generate(ctx context.Context, in Input) ([]byte, error)
}

// Slot is one parallel generation call within a job. Index fixes the output
// position; Providers is the preference list tried in order, falling back to
// the job default chain when empty.
type Slot struct {
	Index     int
	Name      string
	Input     Input
	Providers []Provider
}

// Job is one request's decomposition into parallel generation calls.
type Job struct {
	RequestID uuid.UUID
	Slots     []Slot

	// Providers is the default preference chain for slots that do not carry
	// their own.
	Providers []Provider
}

// SlotResult is the outcome of one slot. Exactly one of Image and Err is
// meaningful: a populated Image with the serving provider's name, or the
// error that exhausted the slot.
type SlotResult struct {
	Index    int
	Name     string
	Provider string
	Image    []byte
	Err      error
}

// Result aggregates a job's outcomes. Slots always has the same length and
// order as the job's slots.
type Result struct {
	Slots []SlotResult
}

// Succeeded returns the slot results that produced an image, in slot order.
func (r *Result) Succeeded() []SlotResult {
	out := make([]SlotResult, 0, len(r.Slots))
	for _, s := range r.Slots {
		if s.Err == nil {
			out = append(out, s)
		}
	}
	return out
}

// Errs returns the per-slot errors for failed slots, empty on full success.
func (r *Result) Errs() []error {
	var errs []error
	for _, s := range r.Slots {
		if s.Err != nil {
			errs = append(errs, s.Err)
		}
	}
	return errs
}

// Partial reports whether some but not all slots failed.
func (r *Result) Partial() bool {
	n := len(r.Succeeded())
	return n > 0 && n < len(r.Slots)
}
