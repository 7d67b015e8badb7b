package storage

import (
	"context"
	"fmt"
	"log/slog"

	gcs "cloud.google.com/go/storage"

	"github.com/oselle/lookbook-api/internal/domain"
)

// GCSStore persists artifacts as objects in a Google Cloud Storage bucket.
// Objects are public-read; credentials come from the application default
// chain.
type GCSStore struct {
	client *gcs.Client
	bucket string
	logger *slog.Logger
}

// NewGCSStore creates a store writing into the given bucket.
func NewGCSStore(ctx context.Context, bucket string, logger *slog.Logger) (*GCSStore, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket, logger: logger}, nil
}

// Save uploads the artifact to gs://<bucket>/<requestID>/<name>.
func (s *GCSStore) Save(
	ctx context.Context,
	requestID string,
	artifact domain.Artifact,
) (string, error) {
	obj := s.client.Bucket(s.bucket).Object(objectName(requestID, artifact.Name))

	w := obj.NewWriter(ctx)
	w.ContentType = artifact.ContentType

	if _, err := w.Write(artifact.Data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("%w: uploading %s: %v", ErrPersistence, artifact.Name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: finalizing %s: %v", ErrPersistence, artifact.Name, err)
	}

	url := s.URLFor(requestID, artifact.Name)
	s.logger.Debug("artifact uploaded",
		"request_id", requestID,
		"name", artifact.Name,
		"bytes", len(artifact.Data),
		"url", url)
	return url, nil
}

// URLFor returns the public object URL.
func (s *GCSStore) URLFor(requestID, name string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, objectName(requestID, name))
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func objectName(requestID, name string) string {
	return fmt.Sprintf("%s/%s", requestID, name)
}
