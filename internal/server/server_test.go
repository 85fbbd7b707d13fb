package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dailyledger/internal/api"
	"dailyledger/internal/backup"
	"dailyledger/internal/config"
	"dailyledger/internal/importer"
	"dailyledger/internal/store"
	"dailyledger/internal/validator"
	"dailyledger/internal/workbook"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.xlsx")
	require.NoError(t, workbook.Create(path, workbook.Options{}))

	backups := backup.NewManager()
	ledger, err := workbook.New(path, workbook.Options{Backup: backups})
	require.NoError(t, err)
	journal, err := store.New(filepath.Join(dir, "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })

	pipeline := importer.NewPipeline(ledger, validator.New(validator.DefaultPolicy()), importer.WithJournal(journal))
	cfg := config.DefaultConfig()
	cfg.Server.DevMode = true
	cfg.Server.Port = 18080
	return NewServer(cfg, api.NewHandler(pipeline, ledger, journal, backups, workbook.DuplicateAbort))
}

func TestServer_Routes(t *testing.T) {
	srv := newTestServer(t)
	assert.Equal(t, ":18080", srv.Addr())

	for _, tc := range []struct {
		method string
		path   string
		code   int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/api/status", http.StatusOK},
		{http.MethodOptions, "/api/reports", http.StatusNoContent},
		{http.MethodGet, "/missing", http.StatusNotFound},
	} {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.code, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestServer_CORSHeaders(t *testing.T) {
	srv := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
