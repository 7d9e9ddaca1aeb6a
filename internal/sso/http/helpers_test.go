package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Yousuf-Basir/sso-server/internal/sso/domain"
	ssohttp "github.com/Yousuf-Basir/sso-server/internal/sso/http"
	"github.com/Yousuf-Basir/sso-server/internal/sso/ledger"
	"github.com/Yousuf-Basir/sso-server/internal/sso/metrics"
	"github.com/Yousuf-Basir/sso-server/internal/sso/provider"
	"github.com/Yousuf-Basir/sso-server/internal/sso/registry"
	"github.com/Yousuf-Basir/sso-server/internal/sso/service"
	"github.com/Yousuf-Basir/sso-server/internal/sso/store/drivers/sqlite"
	"github.com/Yousuf-Basir/sso-server/pkg/cryptox"
	"github.com/Yousuf-Basir/sso-server/pkg/jwtx"
	"github.com/Yousuf-Basir/sso-server/pkg/slogx"
	"github.com/Yousuf-Basir/sso-server/pkg/ssosdk"
	"github.com/stretchr/testify/require"
)

const (
	acmeOrigin   = "https://acme.example"
	acmeRedirect = "https://acme.example/cb"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "sso-http-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))
	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type env struct {
	clk      *clock
	router   *ssohttp.Router
	sessions *service.SessionService
	users    *service.UserService
	ledger   *ledger.Memory
}

func newEnv(t *testing.T) *env {
	t.Helper()

	// Real time: cookie expiry and sqlite timestamps are checked against it.
	clk := &clock{t: time.Now().UTC()}

	keys, err := jwtx.NewKeySet(jwtx.NewKey(bytes.Repeat([]byte{'h'}, jwtx.MinSecretSize)))
	require.NoError(t, err)
	codec, err := jwtx.NewCodec(jwtx.CodecOptions{Keys: keys, Issuer: "sso-test", Now: clk.Now})
	require.NoError(t, err)

	snap, err := registry.NewSnapshot([]domain.Client{
		{
			ID:             "acme",
			Name:           "Acme",
			RedirectURLs:   []string{acmeRedirect, "https://acme.example/cb2?from=sso"},
			AllowedOrigins: []string{acmeOrigin},
		},
		{
			ID:             "blog",
			Name:           "Blog",
			RedirectURLs:   []string{"https://blog.example/auth"},
			AllowedOrigins: []string{"https://blog.example"},
		},
	})
	require.NoError(t, err)
	clients := registry.New(snap)

	st, err := sqlite.NewStore("file:" + filepath.Join(t.TempDir(), "sso.db") + "?_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	m := metrics.NewNoop()
	led := ledger.NewMemory(ledger.WithClock(clk.Now))
	sessions := &service.SessionService{Codec: codec, Metrics: m}
	users := &service.UserService{Store: st, Metrics: m}

	r := ssohttp.NewRouter(keys, clients, "test", st, slogx.Discard(), m)
	r.Sessions = sessions
	r.Users = users
	r.Ledger = led
	r.Gateway = &service.Gateway{Clients: clients, Sessions: sessions, Metrics: m, Ledger: led}
	r.Delegation = &service.DelegationFlow{Clients: clients, Sessions: sessions, Metrics: m, LoginURL: "/login"}
	r.Providers = provider.Set{}
	r.ApplyRoutes()

	return &env{clk: clk, router: r, sessions: sessions, users: users, ledger: led}
}

func (e *env) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// signIn registers a password user and returns their session cookies.
func (e *env) signIn(t *testing.T, email string) (domain.User, []*http.Cookie) {
	t.Helper()

	u, err := e.users.Register(context.Background(), service.RegisterInput{
		Email:    email,
		Password: "correct horse battery",
		Name:     "Alice",
	})
	require.NoError(t, err)

	upd, err := e.sessions.Establish(context.Background(), u.Principal())
	require.NoError(t, err)
	return u, []*http.Cookie{
		{Name: ssohttp.AccessCookie, Value: upd.Access.Value},
		{Name: ssohttp.RefreshCookie, Value: upd.Refresh.Value},
	}
}

// apiRequest builds a cross-origin call from the acme client.
func apiRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(ssosdk.ClientIDHeader, "acme")
	req.Header.Set("Origin", acmeOrigin)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func withCookies(req *http.Request, cookies ...*http.Cookie) *http.Request {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func requireAPIError(t *testing.T, rec *httptest.ResponseRecorder, want *ssosdk.APIError) {
	t.Helper()

	require.Equal(t, want.StatusCode, rec.Code, rec.Body.String())
	body := decode[ssosdk.ErrorResponse](t, rec)
	require.Equal(t, want.Code, body.Error)
	require.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"))
}
