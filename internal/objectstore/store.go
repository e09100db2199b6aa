// Package objectstore reads and writes whole files addressed by a local path
// or an object-store URI (s3://, gs://, az://, abfss://).
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// ErrNotConfigured is returned when a URI names a backend with no credentials.
var ErrNotConfigured = errors.New("object store backend not configured")

// Store reads and writes whole objects.
type Store interface {
	// Open returns a reader for the object at uri. Callers must close it.
	Open(ctx context.Context, uri string) (io.ReadCloser, error)

	// Put replaces the object at uri with data. The previous object is left
	// intact when Put fails.
	Put(ctx context.Context, uri string, data []byte) error
}

// Scheme returns the lower-cased URI scheme of uri, or "" for local paths.
// Windows drive letters ("C:\...") count as local paths.
func Scheme(uri string) string {
	i := strings.Index(uri, "://")
	if i <= 1 {
		return ""
	}
	return strings.ToLower(uri[:i])
}

// Router dispatches to a backend by URI scheme. A nil backend reports
// ErrNotConfigured.
type Router struct {
	Local Store
	S3    Store
	GCS   Store
	Azure Store
}

// NewLocalRouter returns a Router that only serves local paths.
func NewLocalRouter() *Router {
	return &Router{Local: Local{}}
}

func (r *Router) backend(uri string) (Store, error) {
	var s Store
	scheme := Scheme(uri)
	switch scheme {
	case "", "file":
		s = r.Local
	case "s3":
		s = r.S3
	case "gs", "gcs":
		s = r.GCS
	case "az", "azure", "abfss":
		s = r.Azure
	case "https":
		if strings.Contains(uri, ".blob.core.windows.net/") {
			s = r.Azure
			break
		}
		return nil, fmt.Errorf("unsupported object store URI %q", uri)
	default:
		return nil, fmt.Errorf("unsupported object store scheme %q", scheme)
	}
	if s == nil {
		return nil, fmt.Errorf("%s: %w", uri, ErrNotConfigured)
	}
	return s, nil
}

func (r *Router) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	s, err := r.backend(uri)
	if err != nil {
		return nil, err
	}
	return s.Open(ctx, uri)
}

func (r *Router) Put(ctx context.Context, uri string, data []byte) error {
	s, err := r.backend(uri)
	if err != nil {
		return err
	}
	return s.Put(ctx, uri, data)
}

// ── Path parsing ───────────────────────────────────────────

// ParseS3Path extracts bucket and key from an "s3://bucket/path/to/file" URI.
func ParseS3Path(path string) (bucket, key string, err error) {
	return parseBucketPath(path, "s3")
}

// ParseGCSPath extracts bucket and key from a "gs://bucket/path/to/file" URI.
func ParseGCSPath(path string) (bucket, key string, err error) {
	return parseBucketPath(path, "gs", "gcs")
}

func parseBucketPath(path string, schemes ...string) (bucket, key string, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", "", fmt.Errorf("parse path %q: %w", path, err)
	}
	ok := false
	for _, s := range schemes {
		if strings.EqualFold(u.Scheme, s) {
			ok = true
		}
	}
	if !ok {
		return "", "", fmt.Errorf("path %q: expected %s:// scheme", path, schemes[0])
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("path %q: bucket and key are required", path)
	}
	return bucket, key, nil
}

// ParseAzurePath extracts container and blob name from an Azure storage URI.
//
// Supported formats:
//
//	abfss://container@account.dfs.core.windows.net/path/to/file
//	az://container/path/to/file
//	https://account.blob.core.windows.net/container/path/to/file
func ParseAzurePath(path string) (container, key string, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", "", fmt.Errorf("parse Azure path %q: %w", path, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "abfss":
		// url.Parse reads "container" as userinfo and the account as host.
		if u.User == nil {
			return "", "", fmt.Errorf("abfss path %q missing container@account component", path)
		}
		container = u.User.Username()
		key = strings.TrimPrefix(u.Path, "/")
	case "az", "azure":
		container = u.Host
		key = strings.TrimPrefix(u.Path, "/")
	case "https":
		container, key, _ = strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	default:
		return "", "", fmt.Errorf("unsupported Azure scheme %q in %q", u.Scheme, path)
	}
	if container == "" || key == "" {
		return "", "", fmt.Errorf("Azure path %q: container and blob name are required", path)
	}
	return container, key, nil
}
