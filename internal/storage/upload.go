package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// UploadFile uploads a local file to a GCS bucket under the given object name.
// Without explicit options it relies on Application Default Credentials
// (gcloud auth application-default login).
func UploadFile(ctx context.Context, bucketName, objectName, filePath string, opts Options) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open file %q: %w", filePath, err)
	}
	defer f.Close()

	client, err := newClient(ctx, opts)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return fmt.Errorf("copy file to GCS writer: %w", err)
	}

	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}

	return nil
}
