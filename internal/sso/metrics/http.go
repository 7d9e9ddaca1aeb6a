package metrics

import (
	"net/http"
	"strconv"
	"time"
)

// HTTPMiddleware records request count and latency by route pattern. It must
// wrap the ServeMux directly so the pattern the mux writes onto the request
// is visible here afterwards.
func HTTPMiddleware(m Recorder) func(http.Handler) http.Handler {
	if _, ok := m.(*Noop); ok {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			m.RecordHTTPRequest(r.Method, routeLabel(r), sw.status, time.Since(start).Seconds())
		})
	}
}

// RouteLabel names the route a request matched, "unmatched" before routing
// or for 404s.
func RouteLabel(r *http.Request) string { return routeLabel(r) }

func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	return r.Pattern
}

func statusLabel(code int) string { return strconv.Itoa(code) }

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
