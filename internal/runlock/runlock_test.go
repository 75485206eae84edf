package runlock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outputs", ".etl.lock")

	l, err := Acquire(path, time.Hour)
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = Acquire(path, time.Hour)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, l.Release())
	assert.NoFileExists(t, path)
	assert.NoError(t, l.Release())

	l2, err := Acquire(path, time.Hour)
	require.NoError(t, err)
	require.NoError(t, l2.Release())
}

func TestStaleLockIsReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".etl.lock")
	require.NoError(t, os.WriteFile(path, []byte("pid=1 host=old\n"), 0o644))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	l, err := Acquire(path, time.Hour)
	require.NoError(t, err)
	defer l.Release()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pid=")
	assert.NotContains(t, string(data), "host=old")
}

func TestZeroStaleAfterNeverSteals(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".etl.lock")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	_, err := Acquire(path, 0)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestWithReleasesAfterError(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".etl.lock")
	boom := errors.New("boom")

	err := With(path, time.Hour, func() error {
		assert.FileExists(t, path)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoFileExists(t, path)
}
