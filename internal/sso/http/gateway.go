package http

import (
	"errors"
	"net/http"

	"github.com/Yousuf-Basir/sso-server/internal/sso/service"
	"github.com/Yousuf-Basir/sso-server/pkg/httpx"
	"github.com/Yousuf-Basir/sso-server/pkg/ssosdk"
)

// GatewayHandler serves the session API that registered client applications
// call cross-origin with X-Client-Id.
type GatewayHandler struct {
	Gateway *service.Gateway
	Cookies CookieConfig
}

// gatewayRequest collects the caller identity and every credential source.
func gatewayRequest(r *http.Request) service.GatewayRequest {
	access, refresh := readSession(r)
	return service.GatewayRequest{
		ClientID:      r.Header.Get(ssosdk.ClientIDHeader),
		Origin:        r.Header.Get("Origin"),
		Bearer:        httpx.BearerToken(r),
		AccessCookie:  access,
		RefreshCookie: refresh,
	}
}

// decodeAfterAuthorize decodes the JSON body into v. A malformed body is
// only reported once the client itself has been accepted.
func (h *GatewayHandler) decodeAfterAuthorize(r *http.Request, req service.GatewayRequest, v any) error {
	err := httpx.DecodeJSON(r, v, true)
	if err == nil {
		return nil
	}
	if aerr := h.Gateway.Authorize(r.Context(), req.ClientID, req.Origin); aerr != nil {
		return aerr
	}
	return err
}

// HandleSession godoc
//
//	@Summary		Current session
//	@Description	Returns the signed-in user. An expired access token is replaced from the refresh cookie and the new cookie is set on the response.
//	@Tags			Session
//	@Produce		json
//	@Param			X-Client-Id	header		string	true	"Registered client id"
//	@Success		200			{object}	ssosdk.SessionResponse
//	@Failure		401			{object}	ssosdk.ErrorResponse	"missing or invalid credentials"
//	@Failure		403			{object}	ssosdk.ErrorResponse	"unknown client or origin"
//	@Security		BearerAuth
//	@Router			/api/session [get]
func (h *GatewayHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	res, err := h.Gateway.GetSession(r.Context(), gatewayRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if res.Update != nil {
		h.Cookies.applySession(w, *res.Update)
	}

	p := res.Principal()
	httpx.WriteJSON(w, http.StatusOK, ssosdk.SessionResponse{
		UserID:    p.Subject,
		Email:     p.Email,
		Name:      p.Name,
		ExpiresAt: res.ExpiresAt,
	})
}

// HandleRefresh godoc
//
//	@Summary		Rotate session tokens
//	@Description	Exchanges the refresh token from the body or the refreshToken cookie for a new access and refresh pair.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			X-Client-Id	header		string					true	"Registered client id"
//	@Param			request		body		ssosdk.RefreshRequest	false	"Refresh token, optional when the cookie is sent"
//	@Success		200			{object}	ssosdk.RefreshResponse
//	@Failure		400			{object}	ssosdk.ErrorResponse
//	@Failure		401			{object}	ssosdk.ErrorResponse
//	@Failure		403			{object}	ssosdk.ErrorResponse
//	@Router			/api/auth/refresh [post]
func (h *GatewayHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	req := gatewayRequest(r)

	var body ssosdk.RefreshRequest
	if err := h.decodeAfterAuthorize(r, req, &body); err != nil {
		writeError(w, r, err)
		return
	}

	upd, err := h.Gateway.Refresh(r.Context(), req, body.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if upd.Access == nil {
		writeError(w, r, errors.New("refresh produced no access token"))
		return
	}

	h.Cookies.applySession(w, upd)
	httpx.WriteJSON(w, http.StatusOK, ssosdk.RefreshResponse{
		AccessToken: upd.Access.Value,
		ExpiresAt:   upd.Access.ExpiresAt,
	})
}

// HandleSignOut godoc
//
//	@Summary		Sign out
//	@Description	Clears both session cookies. Succeeds without a session.
//	@Tags			Session
//	@Produce		json
//	@Param			X-Client-Id	header		string	true	"Registered client id"
//	@Success		200			{object}	ssosdk.SignOutResponse
//	@Failure		401			{object}	ssosdk.ErrorResponse
//	@Failure		403			{object}	ssosdk.ErrorResponse
//	@Router			/api/signout [post]
func (h *GatewayHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	upd, err := h.Gateway.SignOut(r.Context(), gatewayRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.Cookies.applySession(w, upd)
	httpx.WriteJSON(w, http.StatusOK, ssosdk.SignOutResponse{
		Success: true,
		Message: "Successfully signed out",
	})
}

// HandleValidateToken godoc
//
//	@Summary		Validate a token
//	@Description	Checks an access token or an SSO grant. A rejected token is reported in the body with status 200.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			X-Client-Id	header		string						true	"Registered client id"
//	@Param			request		body		ssosdk.ValidateTokenRequest	true	"Token to check"
//	@Success		200			{object}	ssosdk.ValidateTokenResponse
//	@Failure		400			{object}	ssosdk.ErrorResponse
//	@Failure		401			{object}	ssosdk.ErrorResponse	"no token supplied"
//	@Failure		403			{object}	ssosdk.ErrorResponse
//	@Router			/api/validate-token [post]
func (h *GatewayHandler) HandleValidateToken(w http.ResponseWriter, r *http.Request) {
	req := gatewayRequest(r)

	var body ssosdk.ValidateTokenRequest
	if err := h.decodeAfterAuthorize(r, req, &body); err != nil {
		writeError(w, r, err)
		return
	}

	v, err := h.Gateway.ValidateToken(r.Context(), req, body.Token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !v.Valid {
		httpx.WriteJSON(w, http.StatusOK, ssosdk.ValidateTokenResponse{
			Valid: false,
			Error: validationMessage(v.Reason),
		})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ssosdk.ValidateTokenResponse{Valid: true, UserID: v.UserID})
}
