package http

import (
	"net/http"

	"github.com/Yousuf-Basir/sso-server/internal/sso/service"
	"github.com/Yousuf-Basir/sso-server/pkg/httpx"
	"github.com/Yousuf-Basir/sso-server/pkg/ssosdk"
)

// UserHandler serves the signed-in user's profile to registered clients.
// Only a current access token is accepted; there is no implicit refresh.
type UserHandler struct {
	Gateway *service.Gateway
	Users   *service.UserService
}

// HandleGet godoc
//
//	@Summary		Current user profile
//	@Tags			User
//	@Produce		json
//	@Param			X-Client-Id	header		string	true	"Registered client id"
//	@Success		200			{object}	ssosdk.UserResponse
//	@Failure		401			{object}	ssosdk.ErrorResponse
//	@Failure		403			{object}	ssosdk.ErrorResponse
//	@Failure		404			{object}	ssosdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/user [get]
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	claims, err := h.Gateway.Authenticate(r.Context(), gatewayRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.Users.Get(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

// HandleUpdate godoc
//
//	@Summary		Update the current user
//	@Description	Changes name, email or password. Omitted or empty fields are left alone.
//	@Tags			User
//	@Accept			json
//	@Produce		json
//	@Param			X-Client-Id	header		string						true	"Registered client id"
//	@Param			request		body		ssosdk.UpdateUserRequest	true	"Fields to change"
//	@Success		200			{object}	ssosdk.UserResponse
//	@Failure		400			{object}	ssosdk.ErrorResponse
//	@Failure		401			{object}	ssosdk.ErrorResponse
//	@Failure		403			{object}	ssosdk.ErrorResponse
//	@Failure		409			{object}	ssosdk.ErrorResponse	"email already registered"
//	@Security		BearerAuth
//	@Router			/api/user/update [put]
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	claims, err := h.Gateway.Authenticate(r.Context(), gatewayRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req ssosdk.UpdateUserRequest
	if err := httpx.DecodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.Users.Update(r.Context(), claims.Subject, service.UpdateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
}
