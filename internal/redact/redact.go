// Package redact strips sensitive or oversized material from strings before
// they reach logs or error responses: provider credentials, database
// connection strings, and the base64 image payloads that ride along in
// generation errors.
package redact

import "regexp"

// Redaction placeholders.
const (
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	KeyPlaceholder        = "[REDACTED_KEY]"
	DataURIPlaceholder    = "[DATA_URI_OMITTED]"
)

var (
	// Database connection strings with inline credentials.
	dbConnRegex = regexp.MustCompile(`(?i)(postgres(ql)?|mysql)://[^@\s]+@`)

	// Gemini API keys.
	googleKeyRegex = regexp.MustCompile(`AIza[0-9A-Za-z_-]{30,}`)

	// Replicate API tokens.
	replicateTokenRegex = regexp.MustCompile(`r8_[0-9A-Za-z]{20,}`)

	// Generic key/token assignments.
	apiKeyRegex = regexp.MustCompile(
		`(?i)(api[_-]?key|token|secret|authorization)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)

	// Base64 data URIs; a single reference image can be megabytes of text.
	dataURIRegex = regexp.MustCompile(`data:[\w/+.-]+;base64,[A-Za-z0-9+/=]+`)

	// Signed URL query strings (GCS and friends).
	signedURLRegex = regexp.MustCompile(`(?i)([?&](X-Goog-Signature|Signature|sig)=)[^&\s]+`)

	placeholders = []struct {
		pattern     *regexp.Regexp
		replacement string
	}{
		{dbConnRegex, CredentialPlaceholder + "@"},
		{googleKeyRegex, KeyPlaceholder},
		{replicateTokenRegex, KeyPlaceholder},
		{apiKeyRegex, "$1$2" + KeyPlaceholder},
		{dataURIRegex, DataURIPlaceholder},
		{signedURLRegex, "$1" + KeyPlaceholder},
	}
)

// String redacts sensitive information from the input.
func String(input string) string {
	if input == "" {
		return input
	}
	for _, p := range placeholders {
		input = p.pattern.ReplaceAllString(input, p.replacement)
	}
	return input
}

// Error redacts an error's message, returning "" for nil.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
