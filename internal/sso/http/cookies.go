package http

import (
	"net/http"
	"time"

	"github.com/Yousuf-Basir/sso-server/internal/sso/service"
)

const (
	AccessCookie  = "token"
	RefreshCookie = "refreshToken"

	oauthStateCookie  = "oauth_state"
	oauthReturnCookie = "oauth_return"
	oauthCookieMaxAge = 10 * time.Minute
)

// CookieConfig controls the attributes of every cookie the server sets.
type CookieConfig struct {
	// Secure is on in production.
	Secure bool
}

// readSession returns the session cookies, empty when absent.
func readSession(r *http.Request) (access, refresh string) {
	if c, err := r.Cookie(AccessCookie); err == nil {
		access = c.Value
	}
	if c, err := r.Cookie(RefreshCookie); err == nil {
		refresh = c.Value
	}
	return access, refresh
}

// applySession writes the cookie changes described by upd. This is the only
// place session cookies are written.
func (c CookieConfig) applySession(w http.ResponseWriter, upd service.SessionUpdate) {
	if upd.Clear {
		c.clear(w, AccessCookie, "/")
		c.clear(w, RefreshCookie, "/")
		return
	}
	if upd.Access != nil {
		c.set(w, AccessCookie, "/", upd.Access.Value, upd.Access.ExpiresAt)
	}
	if upd.Refresh != nil {
		c.set(w, RefreshCookie, "/", upd.Refresh.Value, upd.Refresh.ExpiresAt)
	}
}

func (c CookieConfig) set(w http.ResponseWriter, name, path, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieConfig) clear(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
