package http_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Yousuf-Basir/sso-server/pkg/ssosdk"
	"github.com/stretchr/testify/require"
)

func TestGateway_ClientCheckedBeforeCredentials(t *testing.T) {
	e := newEnv(t)
	_, cookies := e.signIn(t, "alice@example.com")

	tests := []struct {
		name     string
		clientID string
		origin   string
		cookies  bool
		want     *ssosdk.APIError
	}{
		{"no client id", "", acmeOrigin, true, ssosdk.ErrMissingCredential},
		{"unknown client", "nobody", acmeOrigin, true, ssosdk.ErrInvalidClient},
		{"origin of another client", "acme", "https://blog.example", true, ssosdk.ErrInvalidClient},
		{"no origin", "acme", "", true, ssosdk.ErrInvalidClient},
		{"unknown client without credentials", "nobody", acmeOrigin, false, ssosdk.ErrInvalidClient},
		{"known client without credentials", "acme", acmeOrigin, false, ssosdk.ErrMissingCredential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
			if tt.clientID != "" {
				req.Header.Set(ssosdk.ClientIDHeader, tt.clientID)
			}
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.cookies {
				withCookies(req, cookies...)
			}
			requireAPIError(t, e.do(req), tt.want)
		})
	}
}

func TestGateway_Session(t *testing.T) {
	e := newEnv(t)
	u, cookies := e.signIn(t, "alice@example.com")

	t.Run("cookie", func(t *testing.T) {
		rec := e.do(withCookies(apiRequest(t, http.MethodGet, "/api/session", nil), cookies...))
		require.Equal(t, http.StatusOK, rec.Code)

		got := decode[ssosdk.SessionResponse](t, rec)
		require.Equal(t, u.ID, got.UserID)
		require.Equal(t, "alice@example.com", got.Email)
		require.Equal(t, "Alice", got.Name)
		require.Nil(t, responseCookie(rec, "token"), "no cookie churn while access is valid")
	})

	t.Run("bearer", func(t *testing.T) {
		req := apiRequest(t, http.MethodGet, "/api/session", nil)
		req.Header.Set("Authorization", "Bearer "+cookies[0].Value)
		rec := e.do(req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, u.ID, decode[ssosdk.SessionResponse](t, rec).UserID)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := apiRequest(t, http.MethodGet, "/api/session", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		requireAPIError(t, e.do(req), ssosdk.ErrInvalidToken)
	})
}

func TestGateway_SessionRefreshesExpiredAccess(t *testing.T) {
	e := newEnv(t)
	u, cookies := e.signIn(t, "alice@example.com")
	e.clk.Advance(16 * time.Minute)

	rec := e.do(withCookies(apiRequest(t, http.MethodGet, "/api/session", nil), cookies...))
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[ssosdk.SessionResponse](t, rec)
	require.Equal(t, u.ID, got.UserID)
	require.True(t, got.ExpiresAt.After(e.clk.Now()))

	c := responseCookie(rec, "token")
	require.NotNil(t, c)
	require.True(t, c.HttpOnly)
	require.Nil(t, responseCookie(rec, "refreshToken"), "implicit refresh leaves the refresh cookie alone")

	// Refresh token expired too.
	e.clk.Advance(8 * 24 * time.Hour)
	rec = e.do(withCookies(apiRequest(t, http.MethodGet, "/api/session", nil), cookies...))
	requireAPIError(t, rec, ssosdk.ErrInvalidToken)
}

func TestGateway_Refresh(t *testing.T) {
	e := newEnv(t)
	_, cookies := e.signIn(t, "alice@example.com")
	refresh := cookies[1]

	t.Run("cookie", func(t *testing.T) {
		rec := e.do(withCookies(apiRequest(t, http.MethodPost, "/api/auth/refresh", nil), refresh))
		require.Equal(t, http.StatusOK, rec.Code)

		got := decode[ssosdk.RefreshResponse](t, rec)
		require.NotEmpty(t, got.AccessToken)
		require.Equal(t, got.AccessToken, responseCookie(rec, "token").Value)
		require.NotNil(t, responseCookie(rec, "refreshToken"))
	})

	t.Run("body", func(t *testing.T) {
		rec := e.do(apiRequest(t, http.MethodPost, "/api/auth/refresh", ssosdk.RefreshRequest{RefreshToken: refresh.Value}))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("old refresh token keeps working", func(t *testing.T) {
		rec := e.do(withCookies(apiRequest(t, http.MethodPost, "/api/auth/refresh", nil), refresh))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("access token rejected", func(t *testing.T) {
		rec := e.do(apiRequest(t, http.MethodPost, "/api/auth/refresh", ssosdk.RefreshRequest{RefreshToken: cookies[0].Value}))
		requireAPIError(t, rec, ssosdk.ErrTokenKindMismatch)
	})

	t.Run("missing", func(t *testing.T) {
		requireAPIError(t, e.do(apiRequest(t, http.MethodPost, "/api/auth/refresh", nil)), ssosdk.ErrMissingCredential)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader("{"))
		req.Header.Set(ssosdk.ClientIDHeader, "acme")
		req.Header.Set("Origin", acmeOrigin)
		requireAPIError(t, e.do(req), ssosdk.ErrInvalidRequest)
	})

	t.Run("malformed body from unknown client", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader("{"))
		req.Header.Set(ssosdk.ClientIDHeader, "nobody")
		req.Header.Set("Origin", acmeOrigin)
		requireAPIError(t, e.do(req), ssosdk.ErrInvalidClient)
	})
}

func TestGateway_SignOutClearsCookies(t *testing.T) {
	e := newEnv(t)
	_, cookies := e.signIn(t, "alice@example.com")

	for _, withSession := range []bool{true, false} {
		req := apiRequest(t, http.MethodPost, "/api/signout", nil)
		if withSession {
			withCookies(req, cookies...)
		}
		rec := e.do(req)
		require.Equal(t, http.StatusOK, rec.Code)

		got := decode[ssosdk.SignOutResponse](t, rec)
		require.True(t, got.Success)
		for _, name := range []string{"token", "refreshToken"} {
			c := responseCookie(rec, name)
			require.NotNil(t, c, name)
			require.Empty(t, c.Value)
			require.Negative(t, c.MaxAge)
		}
	}
}

func TestGateway_ValidateToken(t *testing.T) {
	e := newEnv(t)
	u, cookies := e.signIn(t, "alice@example.com")

	tests := []struct {
		name      string
		token     string
		wantValid bool
		wantError string
	}{
		{"access token", cookies[0].Value, true, ""},
		{"refresh token", cookies[1].Value, false, "Token kind not accepted"},
		{"garbage", "garbage", false, "Invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(apiRequest(t, http.MethodPost, "/api/validate-token", ssosdk.ValidateTokenRequest{Token: tt.token}))
			require.Equal(t, http.StatusOK, rec.Code)

			got := decode[ssosdk.ValidateTokenResponse](t, rec)
			require.Equal(t, tt.wantValid, got.Valid)
			require.Equal(t, tt.wantError, got.Error)
			if tt.wantValid {
				require.Equal(t, u.ID, got.UserID)
			}
		})
	}

	t.Run("no token", func(t *testing.T) {
		rec := e.do(apiRequest(t, http.MethodPost, "/api/validate-token", ssosdk.ValidateTokenRequest{}))
		requireAPIError(t, rec, ssosdk.ErrMissingCredential)
	})

	t.Run("expired", func(t *testing.T) {
		e.clk.Advance(16 * time.Minute)
		rec := e.do(apiRequest(t, http.MethodPost, "/api/validate-token", ssosdk.ValidateTokenRequest{Token: cookies[0].Value}))
		require.Equal(t, http.StatusOK, rec.Code)
		require.False(t, decode[ssosdk.ValidateTokenResponse](t, rec).Valid)
	})
}

func TestGateway_CORS(t *testing.T) {
	e := newEnv(t)
	_, cookies := e.signIn(t, "alice@example.com")

	t.Run("echoes allowed origin", func(t *testing.T) {
		rec := e.do(withCookies(apiRequest(t, http.MethodGet, "/api/session", nil), cookies...))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, acmeOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/user/update", nil)
		req.Header.Set("Origin", acmeOrigin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPut)
		rec := e.do(req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Empty(t, rec.Body.String())
		require.Equal(t, acmeOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
		require.Equal(t, "Content-Type, Authorization, X-Client-Id", rec.Header().Get("Access-Control-Allow-Headers"))
		require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight from unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/session", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := e.do(req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("rejected client gets no allow-origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		req.Header.Set(ssosdk.ClientIDHeader, "acme")
		req.Header.Set("Origin", "https://evil.example")
		rec := e.do(req)

		requireAPIError(t, rec, ssosdk.ErrInvalidClient)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("origin of another client is not echoed", func(t *testing.T) {
		req := withCookies(httptest.NewRequest(http.MethodGet, "/api/session", nil), cookies...)
		req.Header.Set(ssosdk.ClientIDHeader, "acme")
		req.Header.Set("Origin", "https://blog.example")
		rec := e.do(req)

		requireAPIError(t, rec, ssosdk.ErrInvalidClient)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight from another client's origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/session", nil)
		req.Header.Set("Origin", "https://blog.example")
		rec := e.do(req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "https://blog.example", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
