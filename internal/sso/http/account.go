package http

import (
	"errors"
	"net/http"
	"net/url"
	"slices"

	"github.com/Yousuf-Basir/sso-server/internal/sso/domain"
	"github.com/Yousuf-Basir/sso-server/internal/sso/provider"
	"github.com/Yousuf-Basir/sso-server/internal/sso/service"
	"github.com/Yousuf-Basir/sso-server/pkg/httpx"
	"github.com/Yousuf-Basir/sso-server/pkg/ssosdk"
)

// AccountHandler serves first-party sign-in on the SSO server's own origin.
type AccountHandler struct {
	Users     *service.UserService
	Sessions  *service.SessionService
	Providers provider.Set
	Cookies   CookieConfig

	LoginURL     string
	PostLoginURL string
}

func toUserResponse(u domain.User) ssosdk.UserResponse {
	return ssosdk.UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		ProfileImage: u.ProfileImage,
		GoogleID:     u.GoogleID,
		FacebookID:   u.FacebookID,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// HandleRegister godoc
//
//	@Summary		Create an account
//	@Description	Creates a password account and signs it in.
//	@Tags			Account
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ssosdk.RegisterRequest	true	"New account"
//	@Success		201		{object}	ssosdk.UserResponse
//	@Failure		400		{object}	ssosdk.ErrorResponse
//	@Failure		409		{object}	ssosdk.ErrorResponse	"email already registered"
//	@Router			/api/register [post]
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req ssosdk.RegisterRequest
	if err := httpx.DecodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.Users.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	upd, err := h.Sessions.Establish(r.Context(), u.Principal())
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Cookies.applySession(w, upd)
	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(u))
}

// HandleLogin godoc
//
//	@Summary		Sign in with a password
//	@Description	Sets the session cookies and returns where the browser should go next: return_url when it is a local path, otherwise the post-login page.
//	@Tags			Account
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ssosdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	ssosdk.LoginResponse
//	@Failure		400		{object}	ssosdk.ErrorResponse
//	@Failure		401		{object}	ssosdk.ErrorResponse	"wrong email or password"
//	@Router			/api/login [post]
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req ssosdk.LoginRequest
	if err := httpx.DecodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	upd, err := h.Sessions.Establish(r.Context(), u.Principal())
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Cookies.applySession(w, upd)
	httpx.WriteJSON(w, http.StatusOK, ssosdk.LoginResponse{
		Success:  true,
		Redirect: localPath(req.ReturnURL, h.PostLoginURL),
	})
}

// HandleValidateEmail godoc
//
//	@Summary		Check an email address
//	@Tags			Account
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ssosdk.ValidateEmailRequest	true	"Address to check"
//	@Success		200		{object}	ssosdk.ValidateEmailResponse
//	@Failure		400		{object}	ssosdk.ErrorResponse
//	@Router			/api/validate-email [post]
func (h *AccountHandler) HandleValidateEmail(w http.ResponseWriter, r *http.Request) {
	var req ssosdk.ValidateEmailRequest
	if err := httpx.DecodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}

	res := service.ValidateEmail(req.Email)
	httpx.WriteJSON(w, http.StatusOK, ssosdk.ValidateEmailResponse{
		Email:   res.Email,
		IsValid: res.IsValid,
		Message: res.Message,
	})
}

type loginPage struct {
	Title     string
	Error     string
	ReturnURL string
	Providers []string
}

// HandleLoginPage renders the sign-in form. A browser that already has a
// session goes straight on to return_url.
func (h *AccountHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	returnURL := localPath(q.Get("return_url"), "")

	access, refresh := readSession(r)
	if res, ok := h.Sessions.Resolve(r.Context(), access, refresh); ok {
		if res.Update != nil {
			h.Cookies.applySession(w, *res.Update)
		}
		http.Redirect(w, r, localPath(returnURL, h.PostLoginURL), http.StatusFound)
		return
	}

	names := make([]string, 0, len(h.Providers))
	for name := range h.Providers {
		names = append(names, string(name))
	}
	slices.Sort(names)

	renderPage(w, r, http.StatusOK, "login.html", loginPage{
		Title:     "Sign in",
		Error:     q.Get("error"),
		ReturnURL: returnURL,
		Providers: names,
	})
}

type profilePage struct {
	Title string
	User  domain.User
}

// HandleProfilePage shows the signed-in user.
func (h *AccountHandler) HandleProfilePage(w http.ResponseWriter, r *http.Request) {
	access, refresh := readSession(r)
	res, ok := h.Sessions.Resolve(r.Context(), access, refresh)
	if !ok {
		h.redirectToLogin(w, r, r.URL.Path)
		return
	}
	if res.Update != nil {
		h.Cookies.applySession(w, *res.Update)
	}

	u, err := h.Users.Get(r.Context(), res.Claims.Subject)
	if errors.Is(err, service.ErrUserNotFound) {
		h.Cookies.applySession(w, h.Sessions.Terminate())
		h.redirectToLogin(w, r, r.URL.Path)
		return
	}
	if err != nil {
		renderError(w, r, http.StatusInternalServerError, "Profile unavailable",
			"Something went wrong. Please try again.")
		return
	}

	renderPage(w, r, http.StatusOK, "profile.html", profilePage{Title: u.Name, User: u})
}

// HandleLogout ends the first-party session and returns to the sign-in page.
func (h *AccountHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.Cookies.applySession(w, h.Sessions.Terminate())
	http.Redirect(w, r, h.LoginURL, http.StatusSeeOther)
}

func (h *AccountHandler) redirectToLogin(w http.ResponseWriter, r *http.Request, returnURL string) {
	http.Redirect(w, r, h.LoginURL+"?return_url="+url.QueryEscape(returnURL), http.StatusFound)
}
