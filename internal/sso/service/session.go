package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Yousuf-Basir/sso-server/internal/sso/domain"
	"github.com/Yousuf-Basir/sso-server/internal/sso/metrics"
	"github.com/Yousuf-Basir/sso-server/pkg/jwtx"
	"github.com/Yousuf-Basir/sso-server/pkg/slogx"
)

// IssuedToken is a freshly signed token and the instant it stops verifying.
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// SessionUpdate tells the HTTP boundary which session cookies to write.
// A nil token leaves that cookie untouched; Clear removes both.
type SessionUpdate struct {
	Access  *IssuedToken
	Refresh *IssuedToken
	Clear   bool
}

// Empty reports whether applying u would change nothing.
func (u SessionUpdate) Empty() bool {
	return u.Access == nil && u.Refresh == nil && !u.Clear
}

// Resolution is the outcome of resolving a caller's session.
type Resolution struct {
	Claims jwtx.Claims

	// ExpiresAt is the expiry of the access credential now in effect.
	ExpiresAt time.Time

	// Update is set when resolving minted a new access token from the
	// refresh token. The caller must persist it.
	Update *SessionUpdate
}

// Principal returns the identity carried by the resolved claims.
func (r Resolution) Principal() domain.Principal {
	return domain.Principal{Subject: r.Claims.Subject, Email: r.Claims.Email, Name: r.Claims.Name}
}

// SessionService manages the access/refresh token pair a browser holds as
// cookies. It performs no I/O; cookie writes happen at the HTTP boundary.
type SessionService struct {
	Codec   TokenCodec
	Metrics metrics.Recorder
}

// Establish mints both session tokens for p after primary authentication.
func (s *SessionService) Establish(ctx context.Context, p domain.Principal) (SessionUpdate, error) {
	if p.Subject == "" {
		return SessionUpdate{}, fmt.Errorf("%w: empty subject", ErrInvalidInput)
	}

	access, err := s.issue(jwtx.NewClaims(jwtx.KindAccess, p.Subject, p.Email, p.Name))
	if err != nil {
		return SessionUpdate{}, err
	}
	refresh, err := s.issue(jwtx.NewClaims(jwtx.KindRefresh, p.Subject, p.Email, p.Name))
	if err != nil {
		return SessionUpdate{}, err
	}

	slogx.FromContext(ctx).Debug("session established", slog.String("sub", p.Subject))
	return SessionUpdate{Access: &access, Refresh: &refresh}, nil
}

// Resolve returns the caller's claims from the access token, or from the
// refresh token when the access token is absent or no longer verifies. In
// the second case Resolution.Update carries the replacement access token.
// The bool is false when neither token verifies.
func (s *SessionService) Resolve(ctx context.Context, access, refresh string) (Resolution, bool) {
	if access != "" {
		if claims, err := s.verify(ctx, access, jwtx.KindAccess); err == nil {
			return Resolution{Claims: claims, ExpiresAt: claims.ExpiresAtTime()}, true
		}
	}

	if refresh == "" {
		return Resolution{}, false
	}
	claims, err := s.verify(ctx, refresh, jwtx.KindRefresh)
	if err != nil {
		return Resolution{}, false
	}

	res := Resolution{Claims: claims}
	next, err := s.issue(claims.WithKind(jwtx.KindAccess))
	if err != nil {
		// The refresh token still proves the session; the next request
		// will try to mint again.
		slogx.FromContext(ctx).Error("implicit refresh failed", slog.Any("error", err))
		return res, true
	}
	res.ExpiresAt = next.ExpiresAt
	res.Update = &SessionUpdate{Access: &next}
	return res, true
}

// RotateRefresh exchanges a refresh token for a new access and refresh pair.
// The presented refresh token is not revoked and stays valid until it expires.
func (s *SessionService) RotateRefresh(ctx context.Context, refresh string) (SessionUpdate, jwtx.Claims, error) {
	if refresh == "" {
		return SessionUpdate{}, jwtx.Claims{}, ErrMissingCredential
	}

	claims, err := s.verify(ctx, refresh, jwtx.KindRefresh)
	if err != nil {
		return SessionUpdate{}, jwtx.Claims{}, err
	}

	access, err := s.issue(claims.WithKind(jwtx.KindAccess))
	if err != nil {
		return SessionUpdate{}, jwtx.Claims{}, err
	}
	next, err := s.issue(claims.WithKind(jwtx.KindRefresh))
	if err != nil {
		return SessionUpdate{}, jwtx.Claims{}, err
	}
	return SessionUpdate{Access: &access, Refresh: &next}, claims, nil
}

// Terminate ends the session. It is safe to call without a session.
func (s *SessionService) Terminate() SessionUpdate {
	return SessionUpdate{Clear: true}
}

// MintGrant signs a short-lived SSO grant for clientID on behalf of the
// subject in claims.
func (s *SessionService) MintGrant(claims jwtx.Claims, clientID string) (IssuedToken, error) {
	if clientID == "" {
		return IssuedToken{}, fmt.Errorf("%w: empty client id", ErrInvalidInput)
	}
	grant := claims.WithKind(jwtx.KindGrant)
	grant.ClientID = clientID
	return s.issue(grant)
}

func (s *SessionService) issue(claims jwtx.Claims) (IssuedToken, error) {
	tok, err := s.Codec.Sign(claims)
	if err != nil {
		return IssuedToken{}, errors.Join(ErrUpstreamFailure, err)
	}
	s.Metrics.RecordTokenIssued(string(claims.Kind))
	return IssuedToken{Value: tok.Raw, ExpiresAt: tok.ExpiresAt()}, nil
}

func (s *SessionService) verify(ctx context.Context, raw string, kind jwtx.Kind) (jwtx.Claims, error) {
	claims, err := s.Codec.VerifyKind(raw, kind)
	if err != nil {
		err = tokenError(err)
		s.Metrics.RecordTokenVerification(string(kind), err.Error())
		slogx.FromContext(ctx).Debug("token rejected", slog.String("kind", string(kind)), slog.Any("error", err))
		return jwtx.Claims{}, err
	}
	s.Metrics.RecordTokenVerification(string(kind), "valid")
	return claims, nil
}
