package staging

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BartekS5/odoo-etl/pkg/models"
)

// Table is a staged file read back into memory.
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// Read loads a staging file. The first line is the header.
func Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: missing header", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", path, err)
	}

	t := &Table{Header: header, index: make(map[string]int, len(header))}
	for i, col := range header {
		if _, dup := t.index[col]; !dup {
			t.index[col] = i
		}
	}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// Column returns the position of name in the header.
func (t *Table) Column(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// FileInfo describes one entity's staging file.
type FileInfo struct {
	Entity  models.Kind `json:"entity" yaml:"entity"`
	Path    string      `json:"path" yaml:"path"`
	Exists  bool        `json:"exists" yaml:"exists"`
	Rows    int         `json:"rows" yaml:"rows"`
	Size    int64       `json:"size" yaml:"size"`
	ModTime time.Time   `json:"modified,omitempty" yaml:"modified,omitempty"`
}

// Describe inspects the staging file of every entity under dir.
func Describe(dir string, entities []models.Entity) ([]FileInfo, error) {
	out := make([]FileInfo, 0, len(entities))
	for _, e := range entities {
		info := FileInfo{Entity: e.Kind, Path: filepath.Join(dir, e.StagingFile)}
		st, err := os.Stat(info.Path)
		if errors.Is(err, os.ErrNotExist) {
			out = append(out, info)
			continue
		}
		if err != nil {
			return nil, err
		}
		info.Exists = true
		info.Size = st.Size()
		info.ModTime = st.ModTime()

		t, err := Read(info.Path)
		if err != nil {
			return nil, err
		}
		info.Rows = len(t.Rows)
		out = append(out, info)
	}
	return out, nil
}
