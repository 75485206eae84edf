package loader

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
	"modernc.org/sqlite"
)

// PersistenceError reports a failed schema, insert or commit statement. The
// transaction it ran in has been rolled back.
type PersistenceError struct {
	Table string
	Op    string
	Err   error
}

func (e *PersistenceError) Error() string {
	if code := e.Code(); code != "" {
		return fmt.Sprintf("%s %s [%s]: %v", e.Op, e.Table, code, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Code is the engine's error code (a Postgres SQLSTATE, a SQL Server error
// number or a SQLite result code), or "" when the cause carries none.
func (e *PersistenceError) Code() string {
	var pqErr *pq.Error
	if errors.As(e.Err, &pqErr) {
		return string(pqErr.Code)
	}
	var msErr mssql.Error
	if errors.As(e.Err, &msErr) {
		return strconv.FormatInt(int64(msErr.Number), 10)
	}
	var liteErr *sqlite.Error
	if errors.As(e.Err, &liteErr) {
		return strconv.Itoa(liteErr.Code())
	}
	return ""
}
