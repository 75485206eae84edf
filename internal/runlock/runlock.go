// Package runlock serializes pipeline runs on one host through a lock file,
// so two runs never interleave their watermark read and write.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BartekS5/odoo-etl/pkg/logger"
)

// ErrLocked is returned when another run holds the lock.
var ErrLocked = errors.New("another run holds the lock")

// Lock is a held lock file.
type Lock struct {
	path string
}

// Acquire creates the lock file at path. A lock older than staleAfter is
// assumed to belong to a crashed run and is replaced; zero disables that.
func Acquire(path string, staleAfter time.Duration) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			host, _ := os.Hostname()
			_, werr := fmt.Fprintf(f, "pid=%d host=%s at=%s\n", os.Getpid(), host, time.Now().UTC().Format(time.RFC3339))
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(path)
				return nil, fmt.Errorf("write lock file: %w", errors.Join(werr, cerr))
			}
			return &Lock{path: path}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}

		st, statErr := os.Stat(path)
		if statErr != nil || staleAfter <= 0 || time.Since(st.ModTime()) < staleAfter {
			return nil, fmt.Errorf("%w: %s", ErrLocked, describe(path))
		}
		logger.Warnf("Removing stale lock %s (%s)", path, describe(path))
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale lock: %w", err)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrLocked, path)
}

// Release removes the lock file. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	err := os.Remove(l.path)
	l.path = ""
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// With runs fn while holding the lock at path.
func With(path string, staleAfter time.Duration, fn func() error) error {
	l, err := Acquire(path, staleAfter)
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Release(); err != nil {
			logger.Errorf("Failed to release lock %s: %v", path, err)
		}
	}()
	return fn()
}

func describe(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return path
	}
	return path + " " + strings.TrimSpace(string(data))
}
