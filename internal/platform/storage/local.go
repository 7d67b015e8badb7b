package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/oselle/lookbook-api/internal/domain"
)

// LocalStore writes artifacts to a directory on disk, one subdirectory per
// request, and serves URLs under a configured base.
type LocalStore struct {
	dir     string
	baseURL string
	logger  *slog.Logger
}

// NewLocalStore creates a LocalStore rooted at dir.
func NewLocalStore(dir, baseURL string, logger *slog.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}, nil
}

// Save writes the artifact to <dir>/<requestID>/<name> and returns its URL.
func (s *LocalStore) Save(
	ctx context.Context,
	requestID string,
	artifact domain.Artifact,
) (string, error) {
	if ctx.Err() != nil {
		return "", fmt.Errorf("%w: %v", ErrPersistence, ctx.Err())
	}

	reqDir := filepath.Join(s.dir, requestID)
	if err := os.MkdirAll(reqDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating %s: %v", ErrPersistence, reqDir, err)
	}

	path := filepath.Join(reqDir, artifact.Name)
	if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", ErrPersistence, path, err)
	}

	url := s.URLFor(requestID, artifact.Name)
	s.logger.Debug("artifact saved",
		"request_id", requestID,
		"name", artifact.Name,
		"bytes", len(artifact.Data),
		"url", url)
	return url, nil
}

// URLFor returns the URL the artifact is (or will be) served under.
func (s *LocalStore) URLFor(requestID, name string) string {
	return fmt.Sprintf("%s/files/%s/%s", s.baseURL, requestID, name)
}

// Dir exposes the root directory for the HTTP file server.
func (s *LocalStore) Dir() string {
	return s.dir
}
