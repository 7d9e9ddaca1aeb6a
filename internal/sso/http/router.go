package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Yousuf-Basir/sso-server/internal/sso/ledger"
	"github.com/Yousuf-Basir/sso-server/internal/sso/metrics"
	"github.com/Yousuf-Basir/sso-server/internal/sso/provider"
	"github.com/Yousuf-Basir/sso-server/internal/sso/registry"
	"github.com/Yousuf-Basir/sso-server/internal/sso/service"
	"github.com/Yousuf-Basir/sso-server/internal/sso/store"
	"github.com/Yousuf-Basir/sso-server/pkg/httpx"
	"github.com/Yousuf-Basir/sso-server/pkg/jwtx"
	"github.com/Yousuf-Basir/sso-server/pkg/slogx"

	_ "github.com/Yousuf-Basir/sso-server/api/sso" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	clients      *registry.Registry
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	metrics      metrics.Recorder
	store        store.Store

	Cookies      CookieConfig
	LoginURL     string
	PostLoginURL string

	Sessions   *service.SessionService
	Gateway    *service.Gateway
	Delegation *service.DelegationFlow
	Users      *service.UserService
	Providers  provider.Set
	Ledger     ledger.Ledger // Optional: only set when grants are single-use
}

func NewRouter(
	keys *jwtx.KeySet,
	clients *registry.Registry,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
	m metrics.Recorder,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		clients:      clients,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		metrics:      m,
		LoginURL:     "/login",
		PostLoginURL: "/profile",
	}

	// The metrics middleware must sit directly on the mux to see the
	// matched route pattern.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		metrics.HTTPMiddleware(m),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerGateway()
	r.registerSSO()
	r.registerAccount()
	r.registerUsers()
	r.registerOAuth()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			SSO Server API
//	@version		0.1.0
//	@description	Single sign-on broker. Registered client applications read the shared session cross-origin with their X-Client-Id and receive short-lived SSO grants through the /sso/login redirect.
//	@description
//	@description				All tokens are HS256 JWTs carrying a kind claim: access, refresh or sso_grant.
//
//	@contact.name				SSO Server maintainers
//	@contact.url				https://github.com/Yousuf-Basir/sso-server
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Access token. Format: "Bearer {token}". The token cookie is accepted instead.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// onReject counts rate limited requests by route.
func (r *Router) onReject(req *http.Request, _ string) {
	r.metrics.RecordRateLimited(metrics.RouteLabel(req))
}

func (r *Router) registerGateway() {
	h := &GatewayHandler{Gateway: r.Gateway, Cookies: r.Cookies}
	cors := CORS(r.clients)

	// Preflight for every cross-origin API route
	r.Mux.Handle("OPTIONS /api/",
		httpx.Chain(PreflightHandler(r.clients),
			httpx.RateLimitByIP(httpx.PublicLimit, r.onReject),
		),
	)

	// GET /api/session - called by client apps on every page load
	r.Mux.Handle("GET /api/session",
		httpx.Chain(http.HandlerFunc(h.HandleSession),
			cors,
			httpx.RateLimitByIPAndClient(httpx.PublicLimit, r.onReject),
		),
	)

	// POST /api/validate-token - backend grant redemption, high limit
	r.Mux.Handle("POST /api/validate-token",
		httpx.Chain(http.HandlerFunc(h.HandleValidateToken),
			cors,
			httpx.RateLimitByIPAndClient(httpx.PublicLimit, r.onReject),
		),
	)

	// POST /api/auth/refresh - moderate rate limit
	r.Mux.Handle("POST /api/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			cors,
			httpx.RateLimitByIPAndClient(httpx.ModerateLimit, r.onReject),
		),
	)

	r.Mux.Handle("POST /api/signout",
		httpx.Chain(http.HandlerFunc(h.HandleSignOut),
			cors,
			httpx.RateLimitByIPAndClient(httpx.ModerateLimit, r.onReject),
		),
	)
}

func (r *Router) registerSSO() {
	h := &SSOHandler{Flow: r.Delegation, Cookies: r.Cookies}

	// GET /sso/login - lenient rate limit (browser redirects)
	r.Mux.Handle("GET /sso/login",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.LenientLimit, r.onReject),
		),
	)
}

func (r *Router) accountHandler() *AccountHandler {
	return &AccountHandler{
		Users:        r.Users,
		Sessions:     r.Sessions,
		Providers:    r.Providers,
		Cookies:      r.Cookies,
		LoginURL:     r.LoginURL,
		PostLoginURL: r.PostLoginURL,
	}
}

func (r *Router) registerAccount() {
	h := r.accountHandler()

	// Password endpoints - strict rate limit by IP (brute force)
	r.Mux.Handle("POST /api/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit, r.onReject),
		),
	)
	r.Mux.Handle("POST /api/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit, r.onReject),
		),
	)

	r.Mux.Handle("POST /api/validate-email",
		httpx.Chain(http.HandlerFunc(h.HandleValidateEmail),
			httpx.RateLimitByIP(httpx.ModerateLimit, r.onReject),
		),
	)

	// Pages
	r.Mux.Handle("GET /login",
		httpx.Chain(http.HandlerFunc(h.HandleLoginPage),
			httpx.RateLimitByIP(httpx.LenientLimit, r.onReject),
		),
	)
	r.Mux.Handle("GET /profile",
		httpx.Chain(http.HandlerFunc(h.HandleProfilePage),
			httpx.RateLimitByIP(httpx.LenientLimit, r.onReject),
		),
	)
	r.Mux.Handle("POST /logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit, r.onReject),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UserHandler{Gateway: r.Gateway, Users: r.Users}
	cors := CORS(r.clients)

	r.Mux.Handle("GET /api/user",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			cors,
			httpx.RateLimitByIPAndClient(httpx.LenientLimit, r.onReject),
		),
	)
	r.Mux.Handle("PUT /api/user/update",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			cors,
			httpx.RateLimitByIPAndClient(httpx.ModerateLimit, r.onReject),
		),
	)
}

func (r *Router) registerOAuth() {
	h := &OAuthHandler{
		Providers:    r.Providers,
		Users:        r.Users,
		Sessions:     r.Sessions,
		Metrics:      r.metrics,
		Cookies:      r.Cookies,
		LoginURL:     r.LoginURL,
		PostLoginURL: r.PostLoginURL,
	}

	r.Mux.Handle("GET /api/auth/{provider}",
		httpx.Chain(http.HandlerFunc(h.HandleStart),
			httpx.RateLimitByIP(httpx.LenientLimit, r.onReject),
		),
	)
	r.Mux.Handle("GET /api/auth/{provider}/callback",
		httpx.Chain(http.HandlerFunc(h.HandleCallback),
			httpx.RateLimitByIP(httpx.ModerateLimit, r.onReject),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit, r.onReject),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys, r.clients, r.Ledger),
			httpx.RateLimitByIP(httpx.LenientLimit, r.onReject),
		),
	)

	if m, ok := r.metrics.(*metrics.Metrics); ok {
		r.Mux.Handle("GET /metrics", m.Handler())
	}
}
