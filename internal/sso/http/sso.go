package http

import (
	"errors"
	"net/http"

	"github.com/Yousuf-Basir/sso-server/internal/sso/service"
)

// SSOHandler serves the browser leg of the SSO handoff.
type SSOHandler struct {
	Flow    *service.DelegationFlow
	Cookies CookieConfig
}

// ServeHTTP godoc
//
//	@Summary		Start an SSO handoff
//	@Description	Redirects back to the client with a short-lived grant when the browser already has a session, otherwise to the sign-in page with a return_url that re-enters this endpoint.
//	@Description	A missing parameter or an unregistered redirect URL renders an HTML error page and never redirects.
//	@Tags			SSO
//	@Produce		html
//	@Param			client_id		query	string	true	"Registered client id"
//	@Param			redirect_url	query	string	true	"One of the client's registered redirect URLs, matched exactly"
//	@Success		302
//	@Failure		400	"HTML error page"
//	@Router			/sso/login [get]
func (h *SSOHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	access, refresh := readSession(r)

	out := h.Flow.Run(r.Context(), service.DelegationRequest{
		ClientID:     q.Get("client_id"),
		RedirectURL:  q.Get("redirect_url"),
		AccessToken:  access,
		RefreshToken: refresh,
	})

	if out.Session != nil {
		h.Cookies.applySession(w, *out.Session)
	}

	if out.Redirects() {
		http.Redirect(w, r, out.Location, http.StatusFound)
		return
	}

	switch {
	case errors.Is(out.Err, service.ErrMissingParams):
		renderError(w, r, http.StatusBadRequest, "Missing required parameters",
			"Both client_id and redirect_url are required.")
	case errors.Is(out.Err, service.ErrInvalidRedirect):
		renderError(w, r, http.StatusBadRequest, "Invalid redirect URL",
			"The redirect URL is not registered for this application.")
	default:
		renderError(w, r, http.StatusInternalServerError, "Sign-in unavailable",
			"Something went wrong. Please try again.")
	}
}
