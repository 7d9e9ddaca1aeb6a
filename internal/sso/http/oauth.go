package http

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Yousuf-Basir/sso-server/internal/sso/metrics"
	"github.com/Yousuf-Basir/sso-server/internal/sso/provider"
	"github.com/Yousuf-Basir/sso-server/internal/sso/service"
	"github.com/Yousuf-Basir/sso-server/pkg/cryptox"
	"github.com/Yousuf-Basir/sso-server/pkg/slogx"
	"github.com/Yousuf-Basir/sso-server/pkg/ssosdk"
)

const oauthCookiePath = "/api/auth/"

// OAuthHandler signs users in through an external identity provider. The
// state value and the return path travel in short-lived cookies scoped to
// the callback path.
type OAuthHandler struct {
	Providers provider.Set
	Users     *service.UserService
	Sessions  *service.SessionService
	Metrics   metrics.Recorder
	Cookies   CookieConfig

	LoginURL     string
	PostLoginURL string
}

// HandleStart godoc
//
//	@Summary		Sign in with an identity provider
//	@Tags			Account
//	@Param			provider	path	string	true	"google or facebook"
//	@Param			return_url	query	string	false	"Local path to continue to after sign-in"
//	@Success		302
//	@Failure		404	{object}	ssosdk.ErrorResponse	"provider not configured"
//	@Router			/api/auth/{provider} [get]
func (h *OAuthHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	p, err := h.Providers.Lookup(r.PathValue("provider"))
	if err != nil {
		ssosdk.ErrNotFound.WriteError(w)
		return
	}

	state, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		writeError(w, r, err)
		return
	}

	expires := time.Now().Add(oauthCookieMaxAge)
	h.Cookies.set(w, oauthStateCookie, oauthCookiePath, state, expires)
	if ret := localPath(r.URL.Query().Get("return_url"), ""); ret != "" {
		h.Cookies.set(w, oauthReturnCookie, oauthCookiePath, ret, expires)
	}

	http.Redirect(w, r, p.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback godoc
//
//	@Summary		Identity provider callback
//	@Description	Completes the provider sign-in, links or creates the local account and sets the session cookies. Failures return to the sign-in page with an error message.
//	@Tags			Account
//	@Param			provider	path	string	true	"google or facebook"
//	@Param			code		query	string	false	"Authorization code"
//	@Param			state		query	string	false	"State echoed by the provider"
//	@Success		302
//	@Failure		404	{object}	ssosdk.ErrorResponse	"provider not configured"
//	@Router			/api/auth/{provider}/callback [get]
func (h *OAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	p, err := h.Providers.Lookup(r.PathValue("provider"))
	if err != nil {
		ssosdk.ErrNotFound.WriteError(w)
		return
	}
	name := string(p.Name())
	l := slogx.FromContext(r.Context()).With(slog.String("provider", name))

	expected := ""
	if c, err := r.Cookie(oauthStateCookie); err == nil {
		expected = c.Value
	}
	returnURL := h.PostLoginURL
	if c, err := r.Cookie(oauthReturnCookie); err == nil {
		returnURL = localPath(c.Value, h.PostLoginURL)
	}
	h.Cookies.clear(w, oauthStateCookie, oauthCookiePath)
	h.Cookies.clear(w, oauthReturnCookie, oauthCookiePath)

	fail := func(reason string, args ...any) {
		l.Info("provider sign-in failed", append([]any{slog.String("reason", reason)}, args...)...)
		h.Metrics.RecordOAuthCallback(name, false)
		http.Redirect(w, r, h.LoginURL+"?error="+url.QueryEscape("Failed to sign in with "+name), http.StatusFound)
	}

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		fail("provider returned error", slog.String("error", e))
		return
	}
	state := q.Get("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expected)) != 1 {
		fail("state mismatch")
		return
	}
	code := q.Get("code")
	if code == "" {
		fail("missing code")
		return
	}

	ident, err := p.Authenticate(r.Context(), code)
	if err != nil {
		fail("exchange failed", slog.Any("error", err))
		return
	}
	u, err := h.Users.UpsertFromProvider(r.Context(), ident)
	if err != nil {
		fail("account link failed", slog.Any("error", err))
		return
	}
	upd, err := h.Sessions.Establish(r.Context(), u.Principal())
	if err != nil {
		fail("session failed", slog.Any("error", err))
		return
	}

	h.Cookies.applySession(w, upd)
	h.Metrics.RecordOAuthCallback(name, true)
	l.Info("provider sign-in", slog.String("user_id", u.ID))
	http.Redirect(w, r, returnURL, http.StatusFound)
}
