// Package storage reads and publishes model artifacts on local disk or
// Google Cloud Storage.
package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Service provides the storage operations the artifact loader and CLI need.
// This interface enables mocking of storage in tests.
type Service interface {
	// Fetch returns the bytes behind a gs://, file:// or plain filesystem URI.
	Fetch(ctx context.Context, uri string) ([]byte, error)

	// UploadFile uploads a local file to bucket/object.
	UploadFile(ctx context.Context, bucketName, objectName, filePath string) error
}

// Options configures the GCS client.
type Options struct {
	// Endpoint overrides the storage API endpoint, e.g. a local emulator.
	Endpoint string
	// CredentialsFile is a service account key. Empty means Application
	// Default Credentials.
	CredentialsFile string
	// Anonymous disables authentication, for public buckets and emulators.
	Anonymous bool
}

func (o Options) clientOptions() []option.ClientOption {
	var opts []option.ClientOption
	if o.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(o.Endpoint))
	}
	if o.Anonymous {
		opts = append(opts, option.WithoutAuthentication())
	} else if o.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(o.CredentialsFile))
	}
	return opts
}

// GCSStorageService is the concrete Service backed by the local filesystem
// and Google Cloud Storage.
type GCSStorageService struct {
	opts Options
}

// NewGCSStorageService creates a new storage service.
func NewGCSStorageService(opts Options) *GCSStorageService {
	return &GCSStorageService{opts: opts}
}

// Fetch implements Service.
func (s *GCSStorageService) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if IsGCSURI(uri) {
		return FetchFromGCS(ctx, uri, s.opts)
	}
	return ReadLocal(uri)
}

// UploadFile implements Service.
func (s *GCSStorageService) UploadFile(ctx context.Context, bucketName, objectName, filePath string) error {
	return UploadFile(ctx, bucketName, objectName, filePath, s.opts)
}

// IsGCSURI reports whether uri uses the gs:// scheme.
func IsGCSURI(uri string) bool {
	return strings.HasPrefix(uri, "gs://")
}

// ParseGCSURI splits gs://bucket/path/to/object into bucket and object.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !IsGCSURI(uri) {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}

	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}

	return parts[0], parts[1], nil
}

// ExtractFilename returns the last path element of a storage URI.
// e.g., "gs://bucket/models/scaler.json" → "scaler.json"
func ExtractFilename(uri string) string {
	if IsGCSURI(uri) {
		trimmed := strings.TrimPrefix(uri, "gs://")
		parts := strings.SplitN(trimmed, "/", 2)
		if len(parts) < 2 {
			return trimmed
		}
		return path.Base(parts[1])
	}
	return filepath.Base(strings.TrimPrefix(uri, "file://"))
}

func newClient(ctx context.Context, opts Options) (*gcs.Client, error) {
	client, err := gcs.NewClient(ctx, opts.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return client, nil
}
