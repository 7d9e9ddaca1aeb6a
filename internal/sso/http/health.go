package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Yousuf-Basir/sso-server/internal/sso/ledger"
	"github.com/Yousuf-Basir/sso-server/internal/sso/store"
	"github.com/Yousuf-Basir/sso-server/pkg/httpx"
	"github.com/Yousuf-Basir/sso-server/pkg/ssosdk"
)

// Readiness reports whether a dependency can serve traffic.
type Readiness interface {
	IsReady() bool
}

// LivezHandler godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Liveness probe returning uptime and version. Always 200 while the process is up.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	ssosdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get]
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, ssosdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe checking the database, the signing keys, the client registry and the grant ledger when one is configured.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	ssosdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	ssosdk.HealthResponse	"service not ready"
//	@Router			/readyz [get]
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	keys Readiness,
	clients Readiness,
	led ledger.Ledger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &ssosdk.HealthChecks{
			Database: "ok",
			Signer:   "ok",
			Registry: "ok",
			Ledger:   "disabled",
		}
		status := "ok"
		code := http.StatusOK
		degrade := func() {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			checks.Database = "error: " + err.Error()
			degrade()
		}
		if !keys.IsReady() {
			checks.Signer = "error: no keys loaded"
			degrade()
		}
		if !clients.IsReady() {
			checks.Registry = "error: no clients registered"
			degrade()
		}
		if led != nil {
			checks.Ledger = "ok"
			if err := led.Ping(ctx); err != nil {
				checks.Ledger = "error: " + err.Error()
				degrade()
			}
		}

		httpx.WriteJSON(w, code, ssosdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
