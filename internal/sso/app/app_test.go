package app

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Yousuf-Basir/sso-server/pkg/ssosdk"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

const testClients = `{
	"clients": [
		{
			"clientId": "acme",
			"name": "Acme",
			"redirectUrls": ["https://acme.example/cb"],
			"allowedOrigins": ["https://acme.example"]
		}
	]
}`

func testConfig(t *testing.T) Config {
	t.Helper()

	dir := t.TempDir()
	clients := filepath.Join(dir, "clients.json")
	require.NoError(t, os.WriteFile(clients, []byte(testClients), 0o600))

	cfg := defaults()
	cfg.LogLevel = "error"
	cfg.JWTSecretKey = strings.Repeat("a", 32)
	cfg.ClientsFile = clients
	cfg.DatabaseFile = filepath.Join(dir, "sso.db")
	cfg.PepperFile = filepath.Join(dir, "pepper")
	cfg.WatchClients = false
	cfg.MetricsEnabled = false
	cfg.ShutdownGracePeriod = time.Second
	require.NoError(t, cfg.Validate())
	return cfg
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestNew_ServesRoutes(t *testing.T) {
	app, err := New(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown() })

	t.Run("livez", func(t *testing.T) {
		rec := httptest.NewRecorder()
		app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("sso handoff defers to login", func(t *testing.T) {
		target := "/sso/login?client_id=acme&redirect_url=" + url.QueryEscape("https://acme.example/cb")
		rec := httptest.NewRecorder()
		app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

		require.Equal(t, http.StatusFound, rec.Code)
		require.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/login?return_url="))
	})

	t.Run("metrics disabled", func(t *testing.T) {
		rec := httptest.NewRecorder()
		app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestNew_FailsOnBadClientsFile(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.ClientsFile, []byte(`{"clients": [{"clientId": ""}]}`), 0o600))

	_, err := New(cfg)
	require.ErrorContains(t, err, "failed to load clients")
}

func TestNew_RedisLedger(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.SingleUseGrants = true
	cfg.GrantLedger = LedgerRedis
	cfg.RedisAddr = mr.Addr()

	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown() })

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body ssosdk.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.NotNil(t, body.Checks)
	require.Equal(t, "ok", body.Checks.Ledger)
}

func TestRunContext_StopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Port = freePort(t)
	cfg.WatchClients = true

	app, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.RunContext(ctx) }()

	base := "http://127.0.0.1:" + strconv.Itoa(cfg.Port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/livez")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunContext did not return after cancel")
	}
}
