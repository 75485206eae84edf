package watermark

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps the watermark as the sole content of a text file.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Read(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Epoch, nil
	}
	if err != nil {
		return "", fmt.Errorf("read watermark file: %w", err)
	}
	ts := strings.TrimSpace(string(data))
	if ts == "" {
		return Epoch, nil
	}
	if err := Validate(ts); err != nil {
		return "", fmt.Errorf("watermark file %s is corrupt: %w", s.Path, err)
	}
	return ts, nil
}

// Write replaces the file through a synced temp file and a rename, so a
// crash leaves either the old or the new value.
func (s *FileStore) Write(_ context.Context, ts string) error {
	if err := Validate(ts); err != nil {
		return err
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create watermark dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".watermark-*")
	if err != nil {
		return fmt.Errorf("create temp watermark: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(ts); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp watermark: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp watermark: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("replace watermark file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
