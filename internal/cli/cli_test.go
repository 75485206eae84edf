package cli

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BartekS5/odoo-etl/internal/watermark"
)

const (
	rpcUID = `<?xml version="1.0"?>
<methodResponse><params><param><value><int>2</int></value></param></params></methodResponse>`

	rpcEmpty = `<?xml version="1.0"?>
<methodResponse><params><param><value><array><data></data></array></value></param></params></methodResponse>`

	rpcOrders = `<?xml version="1.0"?>
<methodResponse><params><param><value><array><data>
<value><struct>
<member><name>id</name><value><int>1</int></value></member>
<member><name>name</name><value><string>SO001</string></value></member>
<member><name>partner_id</name><value><array><data><value><int>10</int></value><value><string>John Doe</string></value></data></array></value></member>
<member><name>amount_total</name><value><double>1600.0</double></value></member>
<member><name>state</name><value><string>sale</string></value></member>
<member><name>date_order</name><value><string>2024-05-01 10:00:00</string></value></member>
<member><name>write_date</name><value><string>2024-05-01 10:05:00</string></value></member>
</struct></value>
</data></array></value></param></params></methodResponse>`
)

func fakeOdoo(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/xml")
		switch {
		case r.URL.Path == "/xmlrpc/2/common":
			io.WriteString(w, rpcUID)
		case strings.Contains(string(body), "<string>sale.order</string>"):
			io.WriteString(w, rpcOrders)
		default:
			io.WriteString(w, rpcEmpty)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type env struct {
	dir     string
	staging string
	wmFile  string
	dbPath  string
}

func setupEnv(t *testing.T, odooURL string) env {
	t.Helper()
	dir := t.TempDir()
	e := env{
		dir:     dir,
		staging: filepath.Join(dir, "outputs"),
		wmFile:  filepath.Join(dir, "outputs", "last_extract_timestamp.txt"),
		dbPath:  filepath.Join(dir, "analytics.db"),
	}
	t.Setenv("ODOO_URL", odooURL)
	t.Setenv("STAGING_DIR", e.staging)
	t.Setenv("WATERMARK_BACKEND", "file")
	t.Setenv("WATERMARK_FILE", e.wmFile)
	t.Setenv("LOCK_FILE", filepath.Join(dir, ".lock"))
	t.Setenv("DEST_DRIVER", "sqlite")
	t.Setenv("DEST_DSN", e.dbPath)
	t.Setenv("LOG_FILE", "")
	return e
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestWatermarkCommands(t *testing.T) {
	e := setupEnv(t, "http://localhost:8069")

	out, err := execute(t, "watermark", "show")
	require.NoError(t, err)
	assert.Equal(t, watermark.Epoch+"\n", out)

	_, err = execute(t, "watermark", "set", "2024-05-01 00:00:00")
	require.NoError(t, err)
	data, err := os.ReadFile(e.wmFile)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01 00:00:00", string(data))

	_, err = execute(t, "watermark", "set", "May 1st")
	assert.Error(t, err)

	_, err = execute(t, "watermark", "reset")
	require.NoError(t, err)
	out, err = execute(t, "watermark", "show")
	require.NoError(t, err)
	assert.Equal(t, watermark.Epoch+"\n", out)
}

func TestExtractThenLoad(t *testing.T) {
	srv := fakeOdoo(t)
	e := setupEnv(t, srv.URL)

	out, err := execute(t, "extract")
	require.NoError(t, err)
	assert.Contains(t, out, "sales_orders")
	assert.Contains(t, out, "skipped")

	assert.FileExists(t, filepath.Join(e.staging, "sales_orders.csv"))
	assert.NoFileExists(t, filepath.Join(e.staging, "products.csv"))

	wm, err := os.ReadFile(e.wmFile)
	require.NoError(t, err)
	assert.NotEqual(t, watermark.Epoch, string(wm))

	for i := 0; i < 2; i++ {
		_, err = execute(t, "load")
		require.NoError(t, err)
	}

	db, err := sql.Open("sqlite", e.dbPath)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sales_orders").Scan(&n))
	assert.Equal(t, 1, n)
	var bucket string
	require.NoError(t, db.QueryRow("SELECT revenue_bucket FROM sales_orders WHERE id = 1").Scan(&bucket))
	assert.Equal(t, "high", bucket)
}

func TestExtractDryRunKeepsWatermark(t *testing.T) {
	srv := fakeOdoo(t)
	e := setupEnv(t, srv.URL)

	out, err := execute(t, "extract", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "[DRY RUN]")
	assert.NoFileExists(t, e.wmFile)
	assert.NoFileExists(t, filepath.Join(e.staging, "sales_orders.csv"))
}

func TestRunCommand(t *testing.T) {
	srv := fakeOdoo(t)
	e := setupEnv(t, srv.URL)

	_, err := execute(t, "run")
	require.NoError(t, err)
	assert.FileExists(t, e.dbPath)
	assert.FileExists(t, e.wmFile)
}

func TestExtractFailsWhenLocked(t *testing.T) {
	srv := fakeOdoo(t)
	e := setupEnv(t, srv.URL)
	require.NoError(t, os.WriteFile(filepath.Join(e.dir, ".lock"), []byte("pid=1"), 0o644))

	_, err := execute(t, "extract")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "another run holds the lock")
	assert.NoFileExists(t, e.wmFile)
}

func TestStatusJSON(t *testing.T) {
	e := setupEnv(t, "http://localhost:8069")
	require.NoError(t, os.MkdirAll(e.staging, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.staging, "products.csv"), []byte("id,name\n1,Desk\n"), 0o644))

	out, err := execute(t, "status", "-o", "json")
	require.NoError(t, err)

	var st statusReport
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, watermark.Epoch, st.Watermark)
	require.Len(t, st.Files, 4)
	assert.Equal(t, "products", string(st.Files[1].Entity))
	assert.Equal(t, 1, st.Files[1].Rows)

	out, err = execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "ENTITY")
	assert.Contains(t, out, "Watermark (file): "+watermark.Epoch)

	_, err = execute(t, "status", "-o", "xml")
	assert.Error(t, err)
}
