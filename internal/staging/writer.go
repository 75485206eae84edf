// Package staging stores transformed entities as CSV files between the
// extract and load steps. Each write fully replaces the previous file.
package staging

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BartekS5/odoo-etl/pkg/utils"
)

// TimeLayout is how timestamps are rendered in staged files.
const TimeLayout = "2006-01-02 15:04:05"

// Row is one staged record keyed by column. A nil value is written as an
// empty cell and loaded as NULL.
type Row map[string]interface{}

// Writer writes staging files under Dir.
type Writer struct {
	Dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

// Write renders rows under header into Dir/file and returns the path. The
// file is replaced atomically; readers never see a half-written file.
func (w *Writer) Write(file string, header []string, rows []Row) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	path := filepath.Join(w.Dir, file)

	tmp, err := os.CreateTemp(w.Dir, "."+file+"-*")
	if err != nil {
		return "", fmt.Errorf("create temp staging file: %w", err)
	}
	defer os.Remove(tmp.Name())

	cw := csv.NewWriter(tmp)
	if err := cw.Write(header); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(header))
	for i, row := range rows {
		for j, col := range header {
			cell, err := FormatCell(row[col])
			if err != nil {
				tmp.Close()
				return "", fmt.Errorf("row %d column %s: %w", i, col, err)
			}
			record[j] = cell
		}
		if err := cw.Write(record); err != nil {
			tmp.Close()
			return "", fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("flush %s: %w", file, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync %s: %w", file, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("replace %s: %w", path, err)
	}
	return path, nil
}

// FormatCell renders one staged value.
func FormatCell(v interface{}) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case int:
		return strconv.Itoa(x), nil
	case float64:
		return utils.FormatFloat(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case time.Time:
		return x.UTC().Format(TimeLayout), nil
	default:
		return "", fmt.Errorf("unsupported cell type %T", v)
	}
}
