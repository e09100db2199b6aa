package objectstore

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS stores objects in Google Cloud Storage.
type GCS struct {
	client *storage.Client
}

// NewGCS creates a GCS backend authenticated with a service account key file.
func NewGCS(ctx context.Context, keyFile string) (*GCS, error) {
	if keyFile == "" {
		return nil, fmt.Errorf("GCS key file is required")
	}
	client, err := storage.NewClient(ctx, option.WithAuthCredentialsFile(option.ServiceAccount, keyFile))
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return &GCS{client: client}, nil
}

func (g *GCS) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, key, err := ParseGCSPath(uri)
	if err != nil {
		return nil, err
	}
	r, err := g.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("read GCS object %q: %w", uri, err)
	}
	return r, nil
}

// Put uploads data in one request. The object only becomes visible when the
// writer closes successfully.
func (g *GCS) Put(ctx context.Context, uri string, data []byte) error {
	bucket, key, err := ParseGCSPath(uri)
	if err != nil {
		return err
	}
	w := g.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = "text/csv"
	if _, err := w.Write(data); err != nil {
		w.Close() //nolint:errcheck
		return fmt.Errorf("write GCS object %q: %w", uri, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize GCS object %q: %w", uri, err)
	}
	return nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}
