package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheme(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"data.csv", ""},
		{"/tmp/data.csv", ""},
		{`C:\data\data.csv`, ""},
		{"file:///tmp/data.csv", "file"},
		{"s3://bucket/key.csv", "s3"},
		{"GS://bucket/key.csv", "gs"},
		{"abfss://c@acct.dfs.core.windows.net/k.csv", "abfss"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Scheme(tt.uri), tt.uri)
	}
}

func TestParseBucketPaths(t *testing.T) {
	bucket, key, err := ParseS3Path("s3://my-bucket/dir/data.csv")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "dir/data.csv", key)

	bucket, key, err = ParseGCSPath("gs://lake/out.csv")
	require.NoError(t, err)
	assert.Equal(t, "lake", bucket)
	assert.Equal(t, "out.csv", key)

	for _, bad := range []string{"s3://bucket", "s3:///key", "gs://bucket/key"} {
		_, _, err := ParseS3Path(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseAzurePath(t *testing.T) {
	tests := []struct {
		uri       string
		container string
		key       string
	}{
		{"abfss://raw@acct.dfs.core.windows.net/in/data.csv", "raw", "in/data.csv"},
		{"az://raw/data.csv", "raw", "data.csv"},
		{"https://acct.blob.core.windows.net/raw/dir/data.csv", "raw", "dir/data.csv"},
	}
	for _, tt := range tests {
		container, key, err := ParseAzurePath(tt.uri)
		require.NoError(t, err, tt.uri)
		assert.Equal(t, tt.container, container, tt.uri)
		assert.Equal(t, tt.key, key, tt.uri)
	}

	_, _, err := ParseAzurePath("abfss://acct.dfs.core.windows.net/data.csv")
	assert.Error(t, err)
	_, _, err = ParseAzurePath("s3://bucket/key")
	assert.Error(t, err)
}

func TestLocal_PutOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	store := NewLocalRouter()

	require.NoError(t, store.Put(ctx, path, []byte("a\n1\n")))
	require.NoError(t, store.Put(ctx, "file://"+path, []byte("a\n2\n")))

	rc, err := store.Open(ctx, path)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "a\n2\n", string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestLocal_OpenMissing(t *testing.T) {
	_, err := NewLocalRouter().Open(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRouter_NotConfigured(t *testing.T) {
	ctx := context.Background()
	store := NewLocalRouter()

	for _, uri := range []string{"s3://b/k", "gs://b/k", "az://c/k", "https://acct.blob.core.windows.net/c/k"} {
		_, err := store.Open(ctx, uri)
		assert.True(t, errors.Is(err, ErrNotConfigured), uri)
		assert.ErrorIs(t, store.Put(ctx, uri, nil), ErrNotConfigured, uri)
	}

	_, err := store.Open(ctx, "ftp://host/file.csv")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotConfigured)
}

type memStore map[string][]byte

func (m memStore) Open(_ context.Context, uri string) (io.ReadCloser, error) {
	data, ok := m[uri]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m memStore) Put(_ context.Context, uri string, data []byte) error {
	m[uri] = data
	return nil
}

func TestRouter_DispatchesByScheme(t *testing.T) {
	ctx := context.Background()
	s3 := memStore{}
	store := &Router{Local: Local{}, S3: s3}

	require.NoError(t, store.Put(ctx, "s3://bucket/out.csv", []byte("x")))
	assert.Equal(t, []byte("x"), s3["s3://bucket/out.csv"])

	rc, err := store.Open(ctx, "s3://bucket/out.csv")
	require.NoError(t, err)
	rc.Close()
}

func TestNewS3_RequiresCredentials(t *testing.T) {
	_, err := NewS3(S3Config{})
	assert.Error(t, err)

	s, err := NewS3(S3Config{KeyID: "id", Secret: "secret", Endpoint: "localhost:9000", UsePathStyle: true})
	require.NoError(t, err)
	assert.NotNil(t, s)
}
