// Package gcs uploads a copy of the output artifact to Google Cloud Storage.
package gcs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
)

// Config captures the parameters required to upload to GCS.
type Config struct {
	Bucket string
	Prefix string
}

type objectWriter interface {
	io.Writer
	Close() error
}

type openFunc func(ctx context.Context, bucket, object, contentType string) objectWriter

// BlobStore writes artifacts to a configured GCS bucket.
type BlobStore struct {
	bucket string
	prefix string
	open   openFunc
}

// New creates a GCS-backed blob store.
func New(client *storage.Client, cfg Config) (*BlobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	return newBlobStore(cfg, func(ctx context.Context, bucket, object, contentType string) objectWriter {
		w := client.Bucket(bucket).Object(object).NewWriter(ctx)
		w.ContentType = contentType
		return w
	})
}

func newBlobStore(cfg Config, open openFunc) (*BlobStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &BlobStore{
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		open:   open,
	}, nil
}

// ObjectPath returns the object name used for a run's artifact.
func (s *BlobStore) ObjectPath(runID, name string) string {
	return path.Join(s.prefix, runID, name)
}

// PutArtifact uploads data under <prefix>/<runID>/<name> and returns a gs:// URI.
func (s *BlobStore) PutArtifact(ctx context.Context, runID, name string, data []byte) (string, error) {
	if strings.TrimSpace(runID) == "" || strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("run id and object name are required")
	}
	object := s.ObjectPath(runID, name)
	writer := s.open(ctx, s.bucket, object, "application/json; charset=utf-8")
	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return "", fmt.Errorf("copy object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("copy object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, object), nil
}
