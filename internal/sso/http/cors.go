package http

import (
	"net/http"

	"github.com/Yousuf-Basir/sso-server/pkg/httpx"
	"github.com/Yousuf-Basir/sso-server/pkg/slogx"
	"github.com/Yousuf-Basir/sso-server/pkg/ssosdk"
)

const (
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, X-Client-Id"
	corsMaxAge       = "600"
)

// OriginChecker answers which origins may read a response. AllowsOrigin
// covers preflights, which carry no client id.
type OriginChecker interface {
	AllowsOrigin(origin string) bool
	ValidateClient(clientID, origin string) bool
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, origins OriginChecker) {
	h := w.Header()
	h.Add("Vary", "Origin")

	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	if id := r.Header.Get(ssosdk.ClientIDHeader); id != "" {
		if !origins.ValidateClient(id, origin) {
			return
		}
	} else if !origins.AllowsOrigin(origin) {
		return
	}
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Credentials", "true")
	h.Set("Access-Control-Allow-Methods", corsAllowMethods)
	h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
}

// CORS echoes the Origin back with credentials allowed when it belongs to the
// calling client. Other origins get no CORS headers, so browsers block the
// response. The request logger is tagged with the client id.
func CORS(origins OriginChecker) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			setCORSHeaders(w, r, origins)
			if id := r.Header.Get(ssosdk.ClientIDHeader); id != "" {
				r = r.WithContext(slogx.With(r.Context(), "client_id", id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PreflightHandler answers OPTIONS with the CORS headers and no body.
func PreflightHandler(origins OriginChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w, r, origins)
		if w.Header().Get("Access-Control-Allow-Origin") != "" {
			w.Header().Set("Access-Control-Max-Age", corsMaxAge)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
