package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/Yousuf-Basir/sso-server/internal/sso/domain"
	"github.com/Yousuf-Basir/sso-server/internal/sso/metrics"
	"github.com/Yousuf-Basir/sso-server/pkg/slogx"
)

// DefaultEntryPath is where the SSO handoff starts. Deferred attempts
// re-enter here after the user signs in.
const DefaultEntryPath = "/sso/login"

// DelegationState is a step of an SSO handoff.
type DelegationState string

const (
	StateStart                 DelegationState = "START"
	StateValidatingParams      DelegationState = "VALIDATING_PARAMS"
	StateValidatingRedirect    DelegationState = "VALIDATING_REDIRECT"
	StateCheckingSession       DelegationState = "CHECKING_SESSION"
	StateMintingAndRedirecting DelegationState = "MINTING_AND_REDIRECTING"
	StateDeferringToLogin      DelegationState = "DEFERRING_TO_LOGIN"
	StateError                 DelegationState = "ERROR"
)

// DelegationRequest is one SSO attempt as received from the browser.
type DelegationRequest struct {
	ClientID     string
	RedirectURL  string
	AccessToken  string
	RefreshToken string
}

// DelegationOutcome is where an SSO attempt ended.
type DelegationOutcome struct {
	State DelegationState

	// Trace lists every state visited, terminal state last.
	Trace []DelegationState

	// Location is the redirect target on both success paths.
	Location string

	// Err is ErrMissingParams, ErrInvalidRedirect or ErrUpstreamFailure
	// when State is StateError.
	Err error

	Client domain.Client
	Grant  *IssuedToken

	// Session is set when checking the session refreshed the access token.
	Session *SessionUpdate
}

// Redirects reports whether the outcome navigates the browser elsewhere.
func (o DelegationOutcome) Redirects() bool { return o.Location != "" }

// DelegationFlow runs the browser-driven SSO handoff: validate the client's
// redirect target, then either mint a client-scoped grant from the existing
// session or send the user to sign in first.
type DelegationFlow struct {
	Clients  ClientDirectory
	Sessions *SessionService
	Metrics  metrics.Recorder

	// LoginURL is the primary sign-in page.
	LoginURL string

	// EntryPath defaults to DefaultEntryPath.
	EntryPath string
}

type delegationRun struct {
	out DelegationOutcome
}

func (r *delegationRun) enter(s DelegationState) {
	r.out.State = s
	r.out.Trace = append(r.out.Trace, s)
}

func (r *delegationRun) fail(err error) DelegationOutcome {
	r.enter(StateError)
	r.out.Err = err
	return r.out
}

// Run drives one attempt to a terminal state.
func (f *DelegationFlow) Run(ctx context.Context, req DelegationRequest) DelegationOutcome {
	out := f.run(ctx, req)
	f.Metrics.RecordSSOOutcome(outcomeLabel(out))

	l := slogx.FromContext(ctx).With(
		slog.String("client_id", req.ClientID),
		slog.String("state", string(out.State)),
	)
	if out.Err != nil {
		l.Info("sso attempt failed", slog.Any("error", out.Err))
	} else {
		l.Debug("sso attempt finished")
	}
	return out
}

func (f *DelegationFlow) run(ctx context.Context, req DelegationRequest) DelegationOutcome {
	var r delegationRun
	r.enter(StateStart)

	r.enter(StateValidatingParams)
	clientID, redirectURL := req.ClientID, req.RedirectURL
	if strings.TrimSpace(clientID) == "" || strings.TrimSpace(redirectURL) == "" {
		return r.fail(ErrMissingParams)
	}

	r.enter(StateValidatingRedirect)
	if !f.Clients.ValidateRedirect(clientID, redirectURL) {
		return r.fail(ErrInvalidRedirect)
	}
	client, ok := f.Clients.Resolve(clientID)
	if !ok {
		return r.fail(ErrInvalidRedirect)
	}
	r.out.Client = client

	r.enter(StateCheckingSession)
	res, ok := f.Sessions.Resolve(ctx, req.AccessToken, req.RefreshToken)
	if !ok {
		r.enter(StateDeferringToLogin)
		r.out.Location = f.loginLocation(clientID, redirectURL)
		return r.out
	}
	r.out.Session = res.Update

	r.enter(StateMintingAndRedirecting)
	grant, err := f.Sessions.MintGrant(res.Claims, client.ID)
	if err != nil {
		return r.fail(err)
	}
	loc, err := grantLocation(redirectURL, grant.Value, client.Name)
	if err != nil {
		return r.fail(ErrInvalidRedirect)
	}
	r.out.Grant = &grant
	r.out.Location = loc
	return r.out
}

// ReturnPath is the local URL that re-enters the handoff for clientID.
func (f *DelegationFlow) ReturnPath(clientID, redirectURL string) string {
	entry := f.EntryPath
	if entry == "" {
		entry = DefaultEntryPath
	}
	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("redirect_url", redirectURL)
	return entry + "?" + q.Encode()
}

func (f *DelegationFlow) loginLocation(clientID, redirectURL string) string {
	return appendQuery(f.LoginURL, "return_url="+url.QueryEscape(f.ReturnPath(clientID, redirectURL)))
}

// grantLocation keeps any query already on the registered redirect URL and
// appends token and client after it.
func grantLocation(redirectURL, grant, clientName string) (string, error) {
	if _, err := url.Parse(redirectURL); err != nil {
		return "", err
	}
	return appendQuery(redirectURL,
		"token="+url.QueryEscape(grant)+"&client="+url.QueryEscape(clientName)), nil
}

func appendQuery(base, query string) string {
	switch {
	case strings.HasSuffix(base, "?") || strings.HasSuffix(base, "&"):
		return base + query
	case strings.Contains(base, "?"):
		return base + "&" + query
	default:
		return base + "?" + query
	}
}

func outcomeLabel(o DelegationOutcome) string {
	for _, e := range []error{ErrMissingParams, ErrInvalidRedirect, ErrUpstreamFailure} {
		if errors.Is(o.Err, e) {
			return e.Error()
		}
	}
	return string(o.State)
}
