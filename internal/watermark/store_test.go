package watermark

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreDefaultsToEpoch(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "missing", "ts.txt"))

	ts, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Epoch, ts)
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outputs", "last_extract_timestamp.txt")
	s := NewFileStore(path)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "2024-05-01 10:00:00"))
	require.NoError(t, s.Write(ctx, "2024-05-02 11:30:00"))

	ts, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-02 11:30:00", ts)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-02 11:30:00", string(raw))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStoreTrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ts.txt")
	require.NoError(t, os.WriteFile(path, []byte("2024-01-01 00:00:00\n"), 0o644))

	ts, err := NewFileStore(path).Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 00:00:00", ts)
}

func TestFileStoreRejectsCorruptContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ts.txt")
	require.NoError(t, os.WriteFile(path, []byte("2024-05-01T10:00:00Z\n"), 0o644))

	_, err := NewFileStore(path).Read(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is corrupt")
	assert.Contains(t, err.Error(), path)
}

func TestWriteRejectsBadLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ts.txt")
	s := NewFileStore(path)

	err := s.Write(context.Background(), "2024-05-01T10:00:00Z")
	assert.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	assert.Error(t, NewMemoryStore("").Write(context.Background(), "yesterday"))
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore("")
	ctx := context.Background()

	ts, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, Epoch, ts)

	require.NoError(t, s.Write(ctx, "2024-05-01 10:00:00"))
	ts, _ = s.Read(ctx)
	assert.Equal(t, "2024-05-01 10:00:00", ts)
	assert.Equal(t, 1, s.Writes())
}

func TestFormatIsUTCSeconds(t *testing.T) {
	loc := time.FixedZone("CEST", 2*60*60)
	ts := time.Date(2024, 5, 1, 12, 0, 0, 999_000_000, loc)
	assert.Equal(t, "2024-05-01 10:00:00", Format(ts))
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ts.txt")

	s, err := Open(context.Background(), Options{Backend: "file", File: path})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(context.Background(), Options{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open(context.Background(), Options{Backend: "etcd"})
	assert.Error(t, err)
}
