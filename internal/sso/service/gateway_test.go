package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Yousuf-Basir/sso-server/internal/sso/ledger"
	"github.com/Yousuf-Basir/sso-server/internal/sso/metrics"
	"github.com/Yousuf-Basir/sso-server/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newGateway(t *testing.T, clk *clock) *Gateway {
	t.Helper()
	return &Gateway{
		Clients:  newClients(t),
		Sessions: newSessions(t, clk),
		Metrics:  metrics.NewNoop(),
	}
}

func acmeRequest() GatewayRequest {
	return GatewayRequest{ClientID: "acme", Origin: "https://acme.example"}
}

func TestGateway_ClientCheckedBeforeToken(t *testing.T) {
	ctx := context.Background()
	g := newGateway(t, newClock())

	tests := []struct {
		name string
		req  GatewayRequest
		want error
	}{
		{"no client id", GatewayRequest{Origin: "https://acme.example", Bearer: "garbage"}, ErrMissingCredential},
		{"unknown client", GatewayRequest{ClientID: "nobody", Origin: "https://acme.example", Bearer: "garbage"}, ErrInvalidClient},
		{"origin not allowed", GatewayRequest{ClientID: "acme", Origin: "https://blog.example", Bearer: "garbage"}, ErrInvalidClient},
		{"origin missing", GatewayRequest{ClientID: "acme", Bearer: "garbage"}, ErrInvalidClient},
		{"origin prefix", GatewayRequest{ClientID: "acme", Origin: "https://acme.example.evil", Bearer: "garbage"}, ErrInvalidClient},
		{"no credential", acmeRequest(), ErrMissingCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.GetSession(ctx, tt.req)
			require.ErrorIs(t, err, tt.want)

			_, err = g.ValidateToken(ctx, tt.req, tt.req.Bearer)
			require.ErrorIs(t, err, tt.want)

			_, err = g.Refresh(ctx, tt.req, tt.req.Bearer)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGateway_GetSession(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	g := newGateway(t, clk)

	sess, err := g.Sessions.Establish(ctx, alice)
	require.NoError(t, err)

	t.Run("bearer", func(t *testing.T) {
		req := acmeRequest()
		req.Bearer = sess.Access.Value

		res, err := g.GetSession(ctx, req)
		require.NoError(t, err)
		require.Equal(t, alice.Subject, res.Claims.Subject)
		require.Nil(t, res.Update)
	})

	t.Run("implicit refresh after sixteen minutes", func(t *testing.T) {
		clk := newClock()
		g := newGateway(t, clk)
		sess, err := g.Sessions.Establish(ctx, alice)
		require.NoError(t, err)

		clk.Advance(16 * time.Minute)

		req := acmeRequest()
		req.AccessCookie = sess.Access.Value
		req.RefreshCookie = sess.Refresh.Value

		res, err := g.GetSession(ctx, req)
		require.NoError(t, err)
		require.Equal(t, alice.Subject, res.Claims.Subject)
		require.NotNil(t, res.Update)
		require.NotNil(t, res.Update.Access)
	})

	t.Run("invalid", func(t *testing.T) {
		req := acmeRequest()
		req.Bearer = sess.Refresh.Value

		_, err := g.GetSession(ctx, req)
		require.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestGateway_Authenticate(t *testing.T) {
	ctx := context.Background()
	g := newGateway(t, newClock())

	sess, err := g.Sessions.Establish(ctx, alice)
	require.NoError(t, err)

	req := acmeRequest()
	req.Bearer = sess.Access.Value
	claims, err := g.Authenticate(ctx, req)
	require.NoError(t, err)
	require.Equal(t, alice.Subject, claims.Subject)

	req.Bearer = sess.Refresh.Value
	_, err = g.Authenticate(ctx, req)
	require.ErrorIs(t, err, ErrTokenKindMismatch)

	_, err = g.Authenticate(ctx, acmeRequest())
	require.ErrorIs(t, err, ErrMissingCredential)
}

func TestGateway_Refresh(t *testing.T) {
	ctx := context.Background()
	g := newGateway(t, newClock())

	sess, err := g.Sessions.Establish(ctx, alice)
	require.NoError(t, err)

	t.Run("from cookie", func(t *testing.T) {
		req := acmeRequest()
		req.RefreshCookie = sess.Refresh.Value

		upd, err := g.Refresh(ctx, req, "")
		require.NoError(t, err)
		require.NotNil(t, upd.Access)
		require.NotNil(t, upd.Refresh)
	})

	t.Run("body wins over cookie", func(t *testing.T) {
		req := acmeRequest()
		req.RefreshCookie = "garbage"

		_, err := g.Refresh(ctx, req, sess.Refresh.Value)
		require.NoError(t, err)
	})

	t.Run("access token in refresh slot", func(t *testing.T) {
		upd, err := g.Refresh(ctx, acmeRequest(), sess.Access.Value)
		require.ErrorIs(t, err, ErrTokenKindMismatch)
		require.True(t, upd.Empty())
	})
}

func TestGateway_SignOut(t *testing.T) {
	ctx := context.Background()
	g := newGateway(t, newClock())

	for range 2 {
		upd, err := g.SignOut(ctx, acmeRequest())
		require.NoError(t, err)
		require.True(t, upd.Clear)
	}

	_, err := g.SignOut(ctx, GatewayRequest{ClientID: "acme", Origin: "https://evil.example"})
	require.ErrorIs(t, err, ErrInvalidClient)
}

func TestGateway_ValidateToken(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	g := newGateway(t, clk)

	sess, err := g.Sessions.Establish(ctx, alice)
	require.NoError(t, err)
	claims := jwtx.NewClaims(jwtx.KindAccess, alice.Subject, alice.Email, alice.Name)
	acmeGrant, err := g.Sessions.MintGrant(claims, "acme")
	require.NoError(t, err)
	blogGrant, err := g.Sessions.MintGrant(claims, "blog")
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		valid  bool
		reason error
	}{
		{"access token", sess.Access.Value, true, nil},
		{"own grant", acmeGrant.Value, true, nil},
		{"refresh token", sess.Refresh.Value, false, ErrTokenKindMismatch},
		{"grant for another client", blogGrant.Value, false, ErrInvalidClient},
		{"garbage", "a.b.c", false, ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := g.ValidateToken(ctx, acmeRequest(), tt.token)
			require.NoError(t, err)
			require.Equal(t, tt.valid, v.Valid)
			if tt.valid {
				require.Equal(t, alice.Subject, v.UserID)
				require.Nil(t, v.Reason)
			} else {
				require.Empty(t, v.UserID)
				require.ErrorIs(t, v.Reason, tt.reason)
			}
		})
	}

	t.Run("expired", func(t *testing.T) {
		clk.Advance(jwtx.DefaultAccessTokenTTL)
		v, err := g.ValidateToken(ctx, acmeRequest(), sess.Access.Value)
		require.NoError(t, err)
		require.False(t, v.Valid)
		require.ErrorIs(t, v.Reason, ErrTokenInvalid)
	})
}

func TestGateway_SingleUseGrants(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	g := newGateway(t, clk)
	g.Ledger = ledger.NewMemory(ledger.WithClock(clk.Now))

	grant, err := g.Sessions.MintGrant(jwtx.NewClaims(jwtx.KindAccess, alice.Subject, "", ""), "acme")
	require.NoError(t, err)

	v, err := g.ValidateToken(ctx, acmeRequest(), grant.Value)
	require.NoError(t, err)
	require.True(t, v.Valid)

	v, err = g.ValidateToken(ctx, acmeRequest(), grant.Value)
	require.NoError(t, err)
	require.False(t, v.Valid)
	require.ErrorIs(t, v.Reason, ErrGrantRedeemed)

	sess, err := g.Sessions.Establish(ctx, alice)
	require.NoError(t, err)
	for range 2 {
		v, err = g.ValidateToken(ctx, acmeRequest(), sess.Access.Value)
		require.NoError(t, err)
		require.True(t, v.Valid, "access tokens are not single-use")
	}

	clk.Advance(jwtx.DefaultGrantTokenTTL - time.Second)
	v, err = g.ValidateToken(ctx, acmeRequest(), grant.Value)
	require.NoError(t, err)
	require.False(t, v.Valid, "still refused until the grant expires")
	require.ErrorIs(t, v.Reason, ErrGrantRedeemed)
}

type brokenLedger struct{}

func (brokenLedger) Redeem(context.Context, string, time.Time) (bool, error) {
	return false, errors.New("connection refused")
}

func (brokenLedger) Ping(context.Context) error { return errors.New("connection refused") }

func TestGateway_LedgerFailureIsUpstream(t *testing.T) {
	ctx := context.Background()
	g := newGateway(t, newClock())
	g.Ledger = brokenLedger{}

	grant, err := g.Sessions.MintGrant(jwtx.NewClaims(jwtx.KindAccess, alice.Subject, "", ""), "acme")
	require.NoError(t, err)

	_, err = g.ValidateToken(ctx, acmeRequest(), grant.Value)
	require.ErrorIs(t, err, ErrUpstreamFailure)
}
