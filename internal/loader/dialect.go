package loader

import (
	"fmt"
	"strings"
)

// Dialect renders the SQL that differs between destination engines.
type Dialect interface {
	Name() string
	// Driver is the database/sql driver name.
	Driver() string
	CreateTable(t Table) string
	// Insert renders a multi-row insert of rows rows into t. Keyed tables
	// skip rows whose key already exists.
	Insert(t Table, rows int) string
	// MaxParams is the bind parameter limit of one statement.
	MaxParams() int
	// MaxRows is the row limit of one VALUES list, 0 when unbounded.
	MaxRows() int
}

// DialectFor returns the dialect named name: postgres, sqlite or sqlserver.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "":
		return Postgres{}, nil
	case "sqlite", "sqlite3":
		return SQLite{}, nil
	case "sqlserver", "mssql":
		return SQLServer{}, nil
	default:
		return nil, fmt.Errorf("unsupported destination driver %q", name)
	}
}

// ansi covers the engines that accept CREATE TABLE IF NOT EXISTS and
// ON CONFLICT DO NOTHING.
type ansi struct {
	placeholder func(n int) string
}

func (a ansi) createTable(t Table) string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		def := c.Name + " " + ansiType(c.Type)
		if c.Name == t.Key {
			def += " PRIMARY KEY"
		}
		cols[i] = def
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t.Name, strings.Join(cols, ", "))
}

func (a ansi) insert(t Table, rows int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", t.Name, strings.Join(t.ColumnNames(), ", "))
	writeValues(&sb, len(t.Columns), rows, a.placeholder)
	if t.Key != "" {
		fmt.Fprintf(&sb, " ON CONFLICT (%s) DO NOTHING", t.Key)
	}
	return sb.String()
}

func ansiType(ct ColumnType) string {
	switch ct {
	case Integer:
		return "INTEGER"
	case Money:
		return "NUMERIC(10, 2)"
	case Numeric:
		return "NUMERIC"
	case Timestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

func writeValues(sb *strings.Builder, cols, rows int, placeholder func(int) string) {
	n := 0
	for r := 0; r < rows; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for c := 0; c < cols; c++ {
			if c > 0 {
				sb.WriteString(", ")
			}
			n++
			sb.WriteString(placeholder(n))
		}
		sb.WriteByte(')')
	}
}

// Postgres targets PostgreSQL through lib/pq.
type Postgres struct{}

var postgresSQL = ansi{placeholder: func(n int) string { return fmt.Sprintf("$%d", n) }}

func (Postgres) Name() string                    { return "postgres" }
func (Postgres) Driver() string                  { return "postgres" }
func (Postgres) CreateTable(t Table) string      { return postgresSQL.createTable(t) }
func (Postgres) Insert(t Table, rows int) string { return postgresSQL.insert(t, rows) }
func (Postgres) MaxParams() int                  { return 65535 }
func (Postgres) MaxRows() int                    { return 0 }

// SQLite targets a local analytics file through modernc.org/sqlite.
type SQLite struct{}

var sqliteSQL = ansi{placeholder: func(int) string { return "?" }}

func (SQLite) Name() string                    { return "sqlite" }
func (SQLite) Driver() string                  { return "sqlite" }
func (SQLite) CreateTable(t Table) string      { return sqliteSQL.createTable(t) }
func (SQLite) Insert(t Table, rows int) string { return sqliteSQL.insert(t, rows) }
func (SQLite) MaxParams() int                  { return 999 }
func (SQLite) MaxRows() int                    { return 0 }

// SQLServer targets Microsoft SQL Server through go-mssqldb. It has neither
// IF NOT EXISTS for tables nor ON CONFLICT, so both are emulated.
type SQLServer struct{}

func (SQLServer) Name() string   { return "sqlserver" }
func (SQLServer) Driver() string { return "sqlserver" }
func (SQLServer) MaxParams() int { return 2000 }
func (SQLServer) MaxRows() int   { return 1000 }

func (SQLServer) CreateTable(t Table) string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		def := c.Name + " " + sqlServerType(c.Type)
		if c.Name == t.Key {
			def += " NOT NULL PRIMARY KEY"
		}
		cols[i] = def
	}
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE %s (%s)", t.Name, t.Name, strings.Join(cols, ", "))
}

func (SQLServer) Insert(t Table, rows int) string {
	cols := strings.Join(t.ColumnNames(), ", ")
	placeholder := func(n int) string { return fmt.Sprintf("@p%d", n) }

	var sb strings.Builder
	if t.Key == "" {
		fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", t.Name, cols)
		writeValues(&sb, len(t.Columns), rows, placeholder)
		return sb.String()
	}

	vcols := make([]string, len(t.Columns))
	for i, c := range t.ColumnNames() {
		vcols[i] = "v." + c
	}
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) SELECT %s FROM (VALUES ", t.Name, cols, strings.Join(vcols, ", "))
	writeValues(&sb, len(t.Columns), rows, placeholder)
	fmt.Fprintf(&sb, ") AS v (%s) WHERE NOT EXISTS (SELECT 1 FROM %s t WHERE t.%s = v.%s)", cols, t.Name, t.Key, t.Key)
	return sb.String()
}

func sqlServerType(ct ColumnType) string {
	switch ct {
	case Integer:
		return "INT"
	case Money:
		return "DECIMAL(10, 2)"
	case Numeric:
		return "DECIMAL(18, 4)"
	case Timestamp:
		return "DATETIME2"
	default:
		return "NVARCHAR(MAX)"
	}
}
