// Package provider signs users in through external OAuth2 identity
// providers. What a provider reports is untrusted input until the session
// layer wraps it in a token of our own.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Yousuf-Basir/sso-server/internal/sso/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	googleUserInfoURL   = "https://www.googleapis.com/oauth2/v2/userinfo"
	facebookUserInfoURL = "https://graph.facebook.com/v18.0/me?fields=id,name,email,picture"

	defaultTimeout  = 10 * time.Second
	maxUserInfoBody = 1 << 20
)

var (
	ErrUnknownProvider = errors.New("provider: unknown provider")
	ErrNoEmail         = errors.New("provider: account has no email address")
)

// Config configures one provider. Endpoint and UserInfoURL override the
// provider defaults and are mostly useful in tests.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	Endpoint    oauth2.Endpoint
	UserInfoURL string
	HTTPClient  *http.Client
}

// Enabled reports whether credentials were supplied.
func (c Config) Enabled() bool { return c.ClientID != "" && c.ClientSecret != "" }

// Provider runs the authorization code flow against one identity provider.
type Provider struct {
	name        domain.Provider
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
	decode      func(io.Reader) (domain.ProviderIdentity, error)
}

// NewGoogle builds the Google provider.
func NewGoogle(cfg Config) *Provider {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		}
	}
	return newProvider(domain.ProviderGoogle, cfg, endpoints.Google, googleUserInfoURL, decodeGoogle)
}

// NewFacebook builds the Facebook provider.
func NewFacebook(cfg Config) *Provider {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"email", "public_profile"}
	}
	return newProvider(domain.ProviderFacebook, cfg, endpoints.Facebook, facebookUserInfoURL, decodeFacebook)
}

func newProvider(
	name domain.Provider,
	cfg Config,
	endpoint oauth2.Endpoint,
	userInfoURL string,
	decode func(io.Reader) (domain.ProviderIdentity, error),
) *Provider {
	if cfg.Endpoint.AuthURL != "" {
		endpoint = cfg.Endpoint
	}
	if cfg.UserInfoURL != "" {
		userInfoURL = cfg.UserInfoURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Provider{
		name: name,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
		userInfoURL: userInfoURL,
		httpClient:  hc,
		decode:      decode,
	}
}

func (p *Provider) Name() domain.Provider { return p.name }

// AuthCodeURL returns the consent page URL carrying state.
func (p *Provider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Authenticate exchanges code for a provider token and fetches the user's
// profile with it.
func (p *Provider) Authenticate(ctx context.Context, code string) (domain.ProviderIdentity, error) {
	if code == "" {
		return domain.ProviderIdentity{}, errors.New("provider: no authorization code received")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return domain.ProviderIdentity{}, fmt.Errorf("provider: exchange %s code: %w", p.name, err)
	}
	return p.identity(ctx, tok)
}

func (p *Provider) identity(ctx context.Context, tok *oauth2.Token) (domain.ProviderIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return domain.ProviderIdentity{}, fmt.Errorf("provider: build userinfo request: %w", err)
	}

	resp, err := p.config.Client(ctx, tok).Do(req)
	if err != nil {
		return domain.ProviderIdentity{}, fmt.Errorf("provider: %s userinfo: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ProviderIdentity{}, fmt.Errorf("provider: %s userinfo: %s", p.name, resp.Status)
	}

	ident, err := p.decode(io.LimitReader(resp.Body, maxUserInfoBody))
	if err != nil {
		return domain.ProviderIdentity{}, fmt.Errorf("provider: decode %s userinfo: %w", p.name, err)
	}
	ident.Provider = p.name
	ident.Email = strings.TrimSpace(ident.Email)
	if ident.Subject == "" {
		return domain.ProviderIdentity{}, fmt.Errorf("provider: %s userinfo has no id", p.name)
	}
	if ident.Email == "" {
		return domain.ProviderIdentity{}, ErrNoEmail
	}
	return ident, nil
}

type googleUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func decodeGoogle(r io.Reader) (domain.ProviderIdentity, error) {
	var u googleUser
	if err := json.NewDecoder(r).Decode(&u); err != nil {
		return domain.ProviderIdentity{}, err
	}
	return domain.ProviderIdentity{Subject: u.ID, Email: u.Email, Name: u.Name, Picture: u.Picture}, nil
}

type facebookUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

func decodeFacebook(r io.Reader) (domain.ProviderIdentity, error) {
	var u facebookUser
	if err := json.NewDecoder(r).Decode(&u); err != nil {
		return domain.ProviderIdentity{}, err
	}
	return domain.ProviderIdentity{Subject: u.ID, Email: u.Email, Name: u.Name, Picture: u.Picture.Data.URL}, nil
}

// Set holds the configured providers by name.
type Set map[domain.Provider]*Provider

// NewSet builds the providers that have credentials. baseURL is the public
// URL of this service; callbacks land on /api/auth/{provider}/callback.
func NewSet(baseURL string, google, facebook Config) Set {
	set := Set{}
	base := strings.TrimRight(baseURL, "/")
	if google.Enabled() {
		if google.RedirectURL == "" {
			google.RedirectURL = base + "/api/auth/google/callback"
		}
		set[domain.ProviderGoogle] = NewGoogle(google)
	}
	if facebook.Enabled() {
		if facebook.RedirectURL == "" {
			facebook.RedirectURL = base + "/api/auth/facebook/callback"
		}
		set[domain.ProviderFacebook] = NewFacebook(facebook)
	}
	return set
}

// Lookup finds a configured provider by its path name.
func (s Set) Lookup(name string) (*Provider, error) {
	p, ok := s[domain.Provider(strings.ToLower(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}
