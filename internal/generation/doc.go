// Package generation provides the interfaces and the concurrent fan-out
// dispatcher for interacting with external image generation services. It
// abstracts provider details behind the Provider interface, allowing any
// conforming backend (Gemini, Replicate, or a test stub) to serve a slot,
// and preserves output ordering by slot index regardless of completion order.
package generation
