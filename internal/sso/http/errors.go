package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Yousuf-Basir/sso-server/internal/sso/service"
	"github.com/Yousuf-Basir/sso-server/pkg/httpx"
	"github.com/Yousuf-Basir/sso-server/pkg/slogx"
	"github.com/Yousuf-Basir/sso-server/pkg/ssosdk"
)

// writeError maps a service error to its API error. Unknown errors are
// logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrMissingCredential):
		ssosdk.ErrMissingCredential.WriteError(w)
	case errors.Is(err, service.ErrInvalidClient):
		ssosdk.ErrInvalidClient.WriteError(w)
	case errors.Is(err, service.ErrTokenKindMismatch):
		ssosdk.ErrTokenKindMismatch.WriteError(w)
	case errors.Is(err, service.ErrTokenInvalid):
		ssosdk.ErrInvalidToken.WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		ssosdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrUserNotFound):
		ssosdk.ErrUserNotFound.WriteError(w)
	case errors.Is(err, service.ErrEmailTaken):
		ssosdk.ErrEmailTaken.WriteError(w)
	case errors.Is(err, service.ErrInvalidInput):
		ssosdk.ErrInvalidRequest.WithDescription(inputMessage(err)).WriteError(w)
	case errors.Is(err, httpx.ErrBadBody):
		ssosdk.ErrInvalidRequest.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
		ssosdk.ErrServerError.WriteError(w)
	}
}

// inputMessage strips the sentinel prefix from an ErrInvalidInput chain.
func inputMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, service.ErrInvalidInput.Error()+": "); i >= 0 {
		return msg[i+len(service.ErrInvalidInput.Error())+2:]
	}
	return ssosdk.ErrInvalidRequest.Description
}

// validationMessage is the client-visible reason a token check failed.
func validationMessage(reason error) string {
	switch {
	case errors.Is(reason, service.ErrTokenKindMismatch):
		return "Token kind not accepted"
	case errors.Is(reason, service.ErrInvalidClient):
		return "Token was issued to another client"
	case errors.Is(reason, service.ErrGrantRedeemed):
		return "Token already used"
	default:
		return "Invalid token"
	}
}
