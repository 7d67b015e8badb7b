// Package storage provides artifact persistence backends. The workflow only
// depends on the ArtifactStore interface; local disk and Google Cloud Storage
// implementations are provided.
package storage

import (
	"context"
	"errors"

	"github.com/oselle/lookbook-api/internal/domain"
)

// ErrPersistence wraps any backend failure while saving an artifact. The
// workflow surfaces it distinctly from generation failures: the content
// exists but could not be delivered.
var ErrPersistence = errors.New("failed to persist artifact")

// ArtifactStore persists workflow artifacts and resolves their public URLs.
type ArtifactStore interface {
	// Save persists one artifact under the request's namespace and returns
	// its public URL.
	Save(ctx context.Context, requestID string, artifact domain.Artifact) (string, error)

	// URLFor returns the public URL an artifact will have once saved. The
	// location is deterministic so reports can reference artifacts that are
	// persisted later in the same run.
	URLFor(requestID, name string) string
}
