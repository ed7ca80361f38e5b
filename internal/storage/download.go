package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// FetchFromGCS downloads the object bytes from the given GCS URI.
func FetchFromGCS(ctx context.Context, gcsURI string, opts Options) ([]byte, error) {
	bucketName, objectPath, err := ParseGCSURI(gcsURI)
	if err != nil {
		return nil, err
	}

	client, err := newClient(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("fetchFromGCS: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetchFromGCS: reading object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("fetchFromGCS: reading bytes: %w", err)
	}

	return data, nil
}

// ReadLocal reads an artifact from disk. A file:// prefix is accepted.
func ReadLocal(uri string) ([]byte, error) {
	p := strings.TrimPrefix(uri, "file://")
	if p == "" {
		return nil, fmt.Errorf("readLocal: empty path")
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("readLocal: %w", err)
	}
	return data, nil
}
