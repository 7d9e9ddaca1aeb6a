// Package metrics records token, SSO and HTTP activity. Prometheus backs the
// real recorder; Noop is used when metrics are disabled.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// Recorder is what the services and handlers report to.
type Recorder interface {
	RecordTokenIssued(kind string)
	RecordTokenVerification(kind, result string)
	RecordSSOOutcome(state string)
	RecordGrantRedemption(result string)
	RecordRegistryReload(success bool)
	RecordLogin(source string, success bool)
	RecordOAuthCallback(provider string, success bool)
	RecordRateLimited(route string)
	RecordHTTPRequest(method, route string, status int, seconds float64)
}

var _ Recorder = (*Metrics)(nil)

// Metrics is the Prometheus Recorder. Each instance owns its registry so
// tests can build as many as they like.
type Metrics struct {
	reg *prometheus.Registry

	TokensIssuedTotal        *prometheus.CounterVec
	TokenVerificationsTotal  *prometheus.CounterVec
	SSOOutcomesTotal         *prometheus.CounterVec
	GrantRedemptionsTotal    *prometheus.CounterVec
	RegistryReloadsTotal     *prometheus.CounterVec
	LoginsTotal              *prometheus.CounterVec
	OAuthCallbacksTotal      *prometheus.CounterVec
	RateLimitedRequestsTotal *prometheus.CounterVec
	HTTPRequestsTotal        *prometheus.CounterVec
	HTTPRequestDuration      *prometheus.HistogramVec
}

// Init returns a Prometheus recorder, or Noop when disabled.
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoop()
	}
	return New()
}

// New creates and registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		TokensIssuedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sso_tokens_issued_total",
			Help: "Tokens signed, by kind.",
		}, []string{"kind"}), // access, refresh, sso_grant
		TokenVerificationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sso_token_verifications_total",
			Help: "Token verifications, by expected kind and result.",
		}, []string{"kind", "result"}), // valid, invalid, kind_mismatch
		SSOOutcomesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sso_delegation_outcomes_total",
			Help: "SSO login attempts, by terminal state.",
		}, []string{"state"}),
		GrantRedemptionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sso_grant_redemptions_total",
			Help: "Single-use grant redemptions, by result.",
		}, []string{"result"}), // first, replay, error
		RegistryReloadsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sso_registry_reloads_total",
			Help: "Client registry reloads, by result.",
		}, []string{"result"}),
		LoginsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sso_logins_total",
			Help: "Primary logins, by source and result.",
		}, []string{"source", "result"}), // password, google, facebook
		OAuthCallbacksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sso_oauth_callbacks_total",
			Help: "Identity provider callbacks, by provider and result.",
		}, []string{"provider", "result"}),
		RateLimitedRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sso_rate_limited_requests_total",
			Help: "Requests refused by a rate limiter, by route.",
		}, []string{"route"}),
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sso_http_requests_total",
			Help: "HTTP requests, by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sso_http_request_duration_seconds",
			Help:    "HTTP request latency, by method and route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) RecordTokenIssued(kind string) {
	m.TokensIssuedTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordTokenVerification(kind, result string) {
	m.TokenVerificationsTotal.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) RecordSSOOutcome(state string) {
	m.SSOOutcomesTotal.WithLabelValues(state).Inc()
}

func (m *Metrics) RecordGrantRedemption(result string) {
	m.GrantRedemptionsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordRegistryReload(success bool) {
	m.RegistryReloadsTotal.WithLabelValues(result(success)).Inc()
}

func (m *Metrics) RecordLogin(source string, success bool) {
	m.LoginsTotal.WithLabelValues(source, result(success)).Inc()
}

func (m *Metrics) RecordOAuthCallback(provider string, success bool) {
	m.OAuthCallbacksTotal.WithLabelValues(provider, result(success)).Inc()
}

func (m *Metrics) RecordRateLimited(route string) {
	m.RateLimitedRequestsTotal.WithLabelValues(route).Inc()
}

func (m *Metrics) RecordHTTPRequest(method, route string, status int, seconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, statusLabel(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

func result(ok bool) string {
	if ok {
		return resultSuccess
	}
	return resultFailure
}
