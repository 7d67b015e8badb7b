package generation

import "errors"

// Common errors returned by generation providers and the dispatcher.
// Providers are expected to wrap their failures in one of the first three so
// the fallback and retry policies can classify them with errors.Is.
var (
	// ErrTransient is returned for temporary provider failures (timeouts,
	// connection resets, 5xx responses) that may resolve on retry.
	ErrTransient = errors.New("transient provider error")

	// ErrQuotaExceeded is returned when a provider rejects a call for rate or
	// quota reasons. It triggers immediate fallback to the next provider
	// rather than a retry against the same one.
	ErrQuotaExceeded = errors.New("provider quota exceeded")

	// ErrInvalidInput is returned for permanent validation failures. It fails
	// the owning slot on first occurrence regardless of remaining providers.
	ErrInvalidInput = errors.New("invalid generation input")

	// ErrProvidersExhausted is recorded for a slot when every provider in its
	// preference list has failed.
	ErrProvidersExhausted = errors.New("all providers exhausted")

	// ErrAllSlotsFailed is returned by the dispatcher when no slot in a job
	// produced an image.
	ErrAllSlotsFailed = errors.New("all generation slots failed")
)
