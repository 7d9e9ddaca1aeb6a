package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Yousuf-Basir/sso-server/internal/sso/ledger"
	"github.com/Yousuf-Basir/sso-server/internal/sso/metrics"
	"github.com/Yousuf-Basir/sso-server/pkg/jwtx"
	"github.com/Yousuf-Basir/sso-server/pkg/slogx"
)

// GatewayRequest carries the caller identity and credentials of one
// cross-origin API call.
type GatewayRequest struct {
	ClientID string
	Origin   string

	Bearer        string
	AccessCookie  string
	RefreshCookie string
}

// accessToken prefers the bearer token over the cookie.
func (r GatewayRequest) accessToken() string {
	if r.Bearer != "" {
		return r.Bearer
	}
	return r.AccessCookie
}

// Validation is the answer to a lightweight token check. A rejected token is
// a normal result, not an error.
type Validation struct {
	Valid  bool
	UserID string
	Kind   jwtx.Kind

	// Reason is set when Valid is false.
	Reason error
}

// Gateway serves session operations to downstream clients. Every operation
// checks the client id and origin before it looks at any token.
type Gateway struct {
	Clients  ClientDirectory
	Sessions *SessionService
	Metrics  metrics.Recorder

	// Ledger makes SSO grants single-use when set.
	Ledger ledger.Ledger
}

// Authorize fails closed unless clientID is registered and origin is on its
// allowlist.
func (g *Gateway) Authorize(ctx context.Context, clientID, origin string) error {
	if clientID == "" {
		return ErrMissingCredential
	}
	if !g.Clients.ValidateClient(clientID, origin) {
		slogx.FromContext(ctx).Info("client rejected",
			slog.String("client_id", clientID), slog.String("origin", origin))
		return ErrInvalidClient
	}
	return nil
}

// GetSession resolves the caller's session, refreshing the access token
// from the refresh cookie when needed.
func (g *Gateway) GetSession(ctx context.Context, req GatewayRequest) (Resolution, error) {
	if err := g.Authorize(ctx, req.ClientID, req.Origin); err != nil {
		return Resolution{}, err
	}

	access := req.accessToken()
	if access == "" && req.RefreshCookie == "" {
		return Resolution{}, ErrMissingCredential
	}

	res, ok := g.Sessions.Resolve(ctx, access, req.RefreshCookie)
	if !ok {
		return Resolution{}, ErrTokenInvalid
	}
	return res, nil
}

// Authenticate verifies the caller's access token without any implicit
// refresh.
func (g *Gateway) Authenticate(ctx context.Context, req GatewayRequest) (jwtx.Claims, error) {
	if err := g.Authorize(ctx, req.ClientID, req.Origin); err != nil {
		return jwtx.Claims{}, err
	}

	access := req.accessToken()
	if access == "" {
		return jwtx.Claims{}, ErrMissingCredential
	}
	return g.Sessions.verify(ctx, access, jwtx.KindAccess)
}

// Refresh rotates the session. refresh is the refresh token taken from the
// cookie or the request body.
func (g *Gateway) Refresh(ctx context.Context, req GatewayRequest, refresh string) (SessionUpdate, error) {
	if err := g.Authorize(ctx, req.ClientID, req.Origin); err != nil {
		return SessionUpdate{}, err
	}
	if refresh == "" {
		refresh = req.RefreshCookie
	}

	upd, claims, err := g.Sessions.RotateRefresh(ctx, refresh)
	if err != nil {
		return SessionUpdate{}, err
	}
	slogx.FromContext(ctx).Debug("session rotated", slog.String("sub", claims.Subject))
	return upd, nil
}

// SignOut ends the caller's session. Signing out twice is not an error.
func (g *Gateway) SignOut(ctx context.Context, req GatewayRequest) (SessionUpdate, error) {
	if err := g.Authorize(ctx, req.ClientID, req.Origin); err != nil {
		return SessionUpdate{}, err
	}
	return g.Sessions.Terminate(), nil
}

// ValidateToken checks an access token or an SSO grant. Grants only validate
// for the client they were minted for, and only once when a ledger is set.
// The returned error is reserved for authorization and upstream failures.
func (g *Gateway) ValidateToken(ctx context.Context, req GatewayRequest, token string) (Validation, error) {
	if err := g.Authorize(ctx, req.ClientID, req.Origin); err != nil {
		return Validation{}, err
	}
	if token == "" {
		return Validation{}, ErrMissingCredential
	}

	l := slogx.FromContext(ctx)
	claims, err := g.Sessions.Codec.Verify(token)
	if err != nil {
		g.Metrics.RecordTokenVerification("any", ErrTokenInvalid.Error())
		l.Debug("token rejected", slog.Any("error", err))
		return Validation{Reason: ErrTokenInvalid}, nil
	}

	switch claims.Kind {
	case jwtx.KindAccess:
	case jwtx.KindGrant:
		if claims.ClientID != req.ClientID {
			l.Info("grant presented by another client",
				slog.String("grant_client_id", claims.ClientID), slog.String("client_id", req.ClientID))
			g.Metrics.RecordTokenVerification(string(claims.Kind), ErrInvalidClient.Error())
			return Validation{Kind: claims.Kind, Reason: ErrInvalidClient}, nil
		}
		if g.Ledger != nil {
			first, err := g.Ledger.Redeem(ctx, claims.ID, claims.ExpiresAtTime())
			if err != nil {
				g.Metrics.RecordGrantRedemption("error")
				return Validation{}, errors.Join(ErrUpstreamFailure, err)
			}
			if !first {
				g.Metrics.RecordGrantRedemption("replay")
				l.Info("grant replayed", slog.String("jti", claims.ID))
				return Validation{Kind: claims.Kind, Reason: ErrGrantRedeemed}, nil
			}
			g.Metrics.RecordGrantRedemption("first")
		}
	default:
		g.Metrics.RecordTokenVerification(string(claims.Kind), ErrTokenKindMismatch.Error())
		return Validation{Kind: claims.Kind, Reason: ErrTokenKindMismatch}, nil
	}

	g.Metrics.RecordTokenVerification(string(claims.Kind), "valid")
	return Validation{Valid: true, UserID: claims.Subject, Kind: claims.Kind}, nil
}
