// Package loader moves staged CSV files into the relational analytics
// schema. Each entity loads in its own transaction.
package loader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BartekS5/odoo-etl/internal/staging"
	"github.com/BartekS5/odoo-etl/pkg/logger"
	"github.com/BartekS5/odoo-etl/pkg/models"
	"github.com/BartekS5/odoo-etl/pkg/utils"
)

const DefaultBatchSize = 500

type Options struct {
	// BatchSize caps the rows of one insert statement. The dialect's
	// parameter and row limits may lower it further.
	BatchSize int
}

// Loader inserts staged rows through one database handle.
type Loader struct {
	db      *sql.DB
	dialect Dialect
	opts    Options
}

// Result is the outcome of loading one entity.
type Result struct {
	Entity    models.Kind `json:"entity" yaml:"entity"`
	Path      string      `json:"path" yaml:"path"`
	Attempted int         `json:"attempted" yaml:"attempted"`
	Inserted  int64       `json:"inserted" yaml:"inserted"`
	Skipped   bool        `json:"skipped" yaml:"skipped"`
}

// New creates the destination tables if they do not exist yet and returns
// a ready loader.
func New(ctx context.Context, db *sql.DB, dialect Dialect, opts Options) (*Loader, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	l := &Loader{db: db, dialect: dialect, opts: opts}
	if err := l.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// EnsureSchema runs the idempotent DDL of every table in one transaction.
func (l *Loader) EnsureSchema(ctx context.Context) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return &PersistenceError{Table: "schema", Op: "begin", Err: err}
	}
	for _, t := range Tables() {
		if _, err := tx.ExecContext(ctx, l.dialect.CreateTable(t)); err != nil {
			_ = tx.Rollback()
			logger.Errorf("Error creating table %s: %v", t.Name, err)
			return &PersistenceError{Table: t.Name, Op: "create table", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &PersistenceError{Table: "schema", Op: "commit", Err: err}
	}
	logger.Infof("Tables created/verified successfully (%s).", l.dialect.Name())
	return nil
}

// Load reads the staged file at path and inserts its rows into the table of
// kind. It returns the number of rows read from the file. Keyed tables keep
// the first row seen for an id, both within the file and against rows
// already stored.
func (l *Loader) Load(ctx context.Context, kind models.Kind, path string) (int, error) {
	res, err := l.load(ctx, kind, path)
	if err != nil {
		return 0, err
	}
	return res.Attempted, nil
}

func (l *Loader) load(ctx context.Context, kind models.Kind, path string) (Result, error) {
	res := Result{Entity: kind, Path: path}

	t, err := TableFor(kind)
	if err != nil {
		return res, err
	}
	staged, err := staging.Read(path)
	if err != nil {
		return res, fmt.Errorf("read staged %s: %w", kind, err)
	}
	rows, err := selectColumns(t, staged)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	res.Attempted = len(rows)
	if t.Key != "" {
		rows = dedupeByKey(rows, t.keyIndex())
	}
	if len(rows) == 0 {
		logger.Infof("No rows to insert into %s.", t.Name)
		return res, nil
	}

	inserted, err := l.insert(ctx, t, rows)
	if err != nil {
		logger.Errorf("Failed to insert %s: %v", t.Name, err)
		return res, err
	}
	res.Inserted = inserted
	logger.Infof("Inserted %d %s (%d attempted).", inserted, t.Name, res.Attempted)
	return res, nil
}

func (l *Loader) insert(ctx context.Context, t Table, rows [][]interface{}) (int64, error) {
	batch := l.batchRows(len(t.Columns))

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &PersistenceError{Table: t.Name, Op: "begin", Err: err}
	}

	var inserted int64
	for start := 0; start < len(rows); start += batch {
		end := start + batch
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		args := make([]interface{}, 0, len(chunk)*len(t.Columns))
		for _, r := range chunk {
			args = append(args, r...)
		}
		result, err := tx.ExecContext(ctx, l.dialect.Insert(t, len(chunk)), args...)
		if err != nil {
			_ = tx.Rollback()
			return 0, &PersistenceError{Table: t.Name, Op: "insert", Err: err}
		}
		if n, err := result.RowsAffected(); err == nil {
			inserted += n
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &PersistenceError{Table: t.Name, Op: "commit", Err: err}
	}
	return inserted, nil
}

func (l *Loader) batchRows(cols int) int {
	n := l.opts.BatchSize
	if limit := l.dialect.MaxParams() / cols; n > limit {
		n = limit
	}
	if limit := l.dialect.MaxRows(); limit > 0 && n > limit {
		n = limit
	}
	if n < 1 {
		n = 1
	}
	return n
}

// LoadAll loads every entity's staging file under dir in load order. A
// missing file is skipped with a warning; the first failure stops the load
// and leaves tables committed before it in place.
func (l *Loader) LoadAll(ctx context.Context, dir string) ([]Result, error) {
	var results []Result
	for _, kind := range models.LoadOrder {
		entity, err := models.Lookup(kind)
		if err != nil {
			return results, err
		}
		path := filepath.Join(dir, entity.StagingFile)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			logger.Warnf("Staging file %s not found, skipping %s.", path, kind)
			results = append(results, Result{Entity: kind, Path: path, Skipped: true})
			continue
		}

		res, err := l.load(ctx, kind, path)
		if err != nil {
			return results, fmt.Errorf("load %s: %w", kind, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// selectColumns projects the staged table onto t's declared columns and
// converts every cell. Extra staged columns are ignored; a missing one is
// an error.
func selectColumns(t Table, staged *staging.Table) ([][]interface{}, error) {
	idx := make([]int, len(t.Columns))
	var missing []string
	for i, c := range t.Columns {
		j, ok := staged.Column(c.Name)
		if !ok {
			missing = append(missing, c.Name)
			continue
		}
		idx[i] = j
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required column(s) for %s: %s", t.Name, strings.Join(missing, ", "))
	}

	out := make([][]interface{}, 0, len(staged.Rows))
	for n, rec := range staged.Rows {
		row := make([]interface{}, len(t.Columns))
		for i, c := range t.Columns {
			var cell string
			if idx[i] < len(rec) {
				cell = rec[idx[i]]
			}
			v, err := coerce(cell, c.Type)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", n+1, c.Name, err)
			}
			row[i] = v
		}
		out = append(out, row)
	}
	return out, nil
}

// coerce converts a staged cell to the value bound for a column of type
// ct. Empty cells are NULL.
func coerce(cell string, ct ColumnType) (interface{}, error) {
	if strings.TrimSpace(cell) == "" {
		return nil, nil
	}
	switch ct {
	case Integer:
		return utils.ConvertToInt64(cell)
	case Money, Numeric:
		return utils.ConvertToFloat(cell)
	case Timestamp:
		return utils.ConvertDateTime(cell)
	default:
		return cell, nil
	}
}

func dedupeByKey(rows [][]interface{}, key int) [][]interface{} {
	if key < 0 {
		return rows
	}
	seen := make(map[interface{}]struct{}, len(rows))
	out := rows[:0:0]
	for _, r := range rows {
		k := r[key]
		if k != nil {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
		}
		out = append(out, r)
	}
	return out
}
