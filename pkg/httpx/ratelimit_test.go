package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Yousuf-Basir/sso-server/pkg/httpx"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func request(remote, clientID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remote
	if clientID != "" {
		req.Header.Set("X-Client-Id", clientID)
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIPKeyExtractor(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"remote addr", nil, "192.168.1.1"},
		{"x-forwarded-for first hop", map[string]string{"X-Forwarded-For": "203.0.113.1, 192.168.1.1"}, "203.0.113.1"},
		{"x-real-ip", map[string]string{"X-Real-IP": " 203.0.113.2 "}, "203.0.113.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := request("192.168.1.1:12345", "")
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tt.want, httpx.IPKeyExtractor(req))
		})
	}
}

func TestCompositeKeyExtractor(t *testing.T) {
	ex := httpx.CompositeKeyExtractor(":", httpx.IPKeyExtractor, httpx.HeaderKeyExtractor("X-Client-Id"))

	require.Equal(t, "192.168.1.1:acme", ex(request("192.168.1.1:1", "acme")))
	require.Equal(t, "192.168.1.1", ex(request("192.168.1.1:1", "")))

	q := httptest.NewRequest(http.MethodGet, "/sso/login?client_id=acme", nil)
	require.Equal(t, "acme", httpx.QueryKeyExtractor("client_id")(q))
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("blocks requests over limit", func(t *testing.T) {
		cfg := httpx.RateLimitConfig{RequestsPerWindow: 3, Window: time.Minute, Burst: 3}
		h := httpx.RateLimitMiddleware(cfg, httpx.IPKeyExtractor, nil)(okHandler)

		for i := range 3 {
			require.Equal(t, http.StatusOK, serve(h, request("192.168.1.1:1", "")).Code, "request %d", i+1)
		}

		rec := serve(h, request("192.168.1.1:1", ""))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		require.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
		require.Contains(t, rec.Body.String(), "rate_limit_exceeded")
	})

	t.Run("different keys are tracked separately", func(t *testing.T) {
		cfg := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		h := httpx.RateLimitByIPAndClient(cfg, nil)(okHandler)

		require.Equal(t, http.StatusOK, serve(h, request("10.0.0.1:1", "acme")).Code)
		require.Equal(t, http.StatusTooManyRequests, serve(h, request("10.0.0.1:1", "acme")).Code)
		require.Equal(t, http.StatusOK, serve(h, request("10.0.0.1:1", "blog")).Code)
		require.Equal(t, http.StatusOK, serve(h, request("10.0.0.2:1", "acme")).Code)
	})

	t.Run("empty key passes through", func(t *testing.T) {
		cfg := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		h := httpx.RateLimitMiddleware(cfg, func(*http.Request) string { return "" }, nil)(okHandler)

		for range 3 {
			require.Equal(t, http.StatusOK, serve(h, request("10.0.0.1:1", "")).Code)
		}
	})

	t.Run("disabled config passes through", func(t *testing.T) {
		h := httpx.RateLimitByIP(httpx.RateLimitConfig{}, nil)(okHandler)
		for range 10 {
			require.Equal(t, http.StatusOK, serve(h, request("10.0.0.1:1", "")).Code)
		}
	})

	t.Run("reports rejections", func(t *testing.T) {
		var rejected atomic.Int32
		cfg := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		h := httpx.RateLimitByIP(cfg, func(r *http.Request, key string) {
			require.Equal(t, "10.0.0.9", key)
			rejected.Add(1)
		})(okHandler)

		serve(h, request("10.0.0.9:1", ""))
		serve(h, request("10.0.0.9:1", ""))
		serve(h, request("10.0.0.9:1", ""))
		require.EqualValues(t, 2, rejected.Load())
	})
}

func TestRateLimitProfiles(t *testing.T) {
	for name, cfg := range map[string]httpx.RateLimitConfig{
		"strict":   httpx.StrictLimit,
		"moderate": httpx.ModerateLimit,
		"lenient":  httpx.LenientLimit,
		"public":   httpx.PublicLimit,
	} {
		require.True(t, cfg.Enabled(), name)
	}

	require.Less(t, httpx.StrictLimit.RequestsPerWindow, httpx.ModerateLimit.RequestsPerWindow)
	require.Less(t, httpx.ModerateLimit.RequestsPerWindow, httpx.LenientLimit.RequestsPerWindow)
	require.Less(t, httpx.LenientLimit.RequestsPerWindow, httpx.PublicLimit.RequestsPerWindow)
}

func BenchmarkRateLimitMiddleware(b *testing.B) {
	cfg := httpx.RateLimitConfig{RequestsPerWindow: 1_000_000, Window: time.Minute, Burst: 1000}
	h := httpx.RateLimitByIP(cfg, nil)(okHandler)
	req := request("192.168.1.1:1", "")

	b.ResetTimer()
	for b.Loop() {
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
}
