package httpx

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Yousuf-Basir/sso-server/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig is a token bucket refilled at RequestsPerWindow per Window.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

// Enabled reports whether c describes a usable limit.
func (c RateLimitConfig) Enabled() bool {
	return c.RequestsPerWindow > 0 && c.Window > 0 && c.Burst > 0
}

// Stock profiles. The application may override them from configuration.
var (
	// StrictLimit guards password and registration endpoints.
	StrictLimit = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	// ModerateLimit guards token refresh and profile updates.
	ModerateLimit = RateLimitConfig{RequestsPerWindow: 20, Window: time.Minute, Burst: 20}

	// LenientLimit guards the SSO login redirect flow.
	LenientLimit = RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100}

	// PublicLimit guards the session and token validation endpoints that
	// downstream applications call on every page load.
	PublicLimit = RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
)

// KeyExtractor groups requests for rate limiting. An empty key disables the
// limit for that request.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor keys on the client address, honouring X-Forwarded-For and
// X-Real-IP set by a fronting proxy.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// HeaderKeyExtractor keys on a request header, e.g. X-Client-Id.
func HeaderKeyExtractor(name string) KeyExtractor {
	return func(r *http.Request) string {
		return strings.TrimSpace(r.Header.Get(name))
	}
}

// QueryKeyExtractor keys on a query parameter, e.g. client_id.
func QueryKeyExtractor(name string) KeyExtractor {
	return func(r *http.Request) string {
		return r.URL.Query().Get(name)
	}
}

// CompositeKeyExtractor joins the non-empty keys of extractors with sep.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, ex := range extractors {
			if key := ex(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

// RejectFunc is told about every request refused by a limiter.
type RejectFunc func(r *http.Request, key string)

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds one token bucket per key. Idle buckets are dropped
// after idleTTL.
type RateLimiter struct {
	cfg      RateLimitConfig
	key      KeyExtractor
	onReject RejectFunc
	idleTTL  time.Duration

	mu          sync.Mutex
	buckets     map[string]*limiterEntry
	lastCleanup time.Time
	now         func() time.Time
}

// NewRateLimiter builds a limiter for cfg keyed by key.
func NewRateLimiter(cfg RateLimitConfig, key KeyExtractor, onReject RejectFunc) *RateLimiter {
	return &RateLimiter{
		cfg:         cfg,
		key:         key,
		onReject:    onReject,
		idleTTL:     max(cfg.Window*2, 5*time.Minute),
		buckets:     make(map[string]*limiterEntry),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// Allow consumes a token for key.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.cleanupLocked(now)

	e, ok := rl.buckets[key]
	if !ok {
		every := rl.cfg.Window / time.Duration(rl.cfg.RequestsPerWindow)
		e = &limiterEntry{lim: rate.NewLimiter(rate.Every(every), rl.cfg.Burst)}
		rl.buckets[key] = e
	}
	e.lastSeen = now

	res := e.lim.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Len returns the number of live buckets.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

func (rl *RateLimiter) cleanupLocked(now time.Time) {
	if now.Sub(rl.lastCleanup) < rl.idleTTL {
		return
	}
	rl.lastCleanup = now
	for k, e := range rl.buckets {
		if now.Sub(e.lastSeen) >= rl.idleTTL {
			delete(rl.buckets, k)
		}
	}
}

// Middleware rejects requests over the limit with 429 and Retry-After.
func (rl *RateLimiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rl.key(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			ok, delay := rl.Allow(key)
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := max(int(delay.Round(time.Second)/time.Second), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Window", rl.cfg.Window.String())

			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				slog.String("key", key),
				slog.Int("retry_after", retryAfter),
			)
			if rl.onReject != nil {
				rl.onReject(r, key)
			}

			WriteJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":             "rate_limit_exceeded",
				"error_description": "Too many requests. Please try again later.",
			})
		})
	}
}

// RateLimitMiddleware is a shorthand for NewRateLimiter(...).Middleware().
// A disabled config yields a pass-through.
func RateLimitMiddleware(cfg RateLimitConfig, key KeyExtractor, onReject RejectFunc) Middleware {
	if !cfg.Enabled() {
		return func(next http.Handler) http.Handler { return next }
	}
	return NewRateLimiter(cfg, key, onReject).Middleware()
}

// RateLimitByIP limits by client address.
func RateLimitByIP(cfg RateLimitConfig, onReject RejectFunc) Middleware {
	return RateLimitMiddleware(cfg, IPKeyExtractor, onReject)
}

// RateLimitByIPAndClient limits by client address plus X-Client-Id, so one
// noisy application can't starve the others behind the same proxy.
func RateLimitByIPAndClient(cfg RateLimitConfig, onReject RejectFunc) Middleware {
	return RateLimitMiddleware(cfg, CompositeKeyExtractor(":",
		IPKeyExtractor,
		HeaderKeyExtractor("X-Client-Id"),
	), onReject)
}
