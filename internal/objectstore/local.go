package objectstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local reads and writes files on the local filesystem.
type Local struct{}

func localPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

func (Local) Open(_ context.Context, uri string) (io.ReadCloser, error) {
	f, err := os.Open(localPath(uri))
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Put writes data to a temporary file in the target directory and renames it
// over the target, so readers never observe a partially written file.
func (Local) Put(_ context.Context, uri string, data []byte) error {
	path := localPath(uri)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
