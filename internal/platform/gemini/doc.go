// Package gemini wraps the Google Gemini API behind the interfaces the rest
// of the service consumes: product analysis from a text model and image
// generation as a fallback provider.
package gemini
