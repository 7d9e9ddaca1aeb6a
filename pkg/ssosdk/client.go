package ssosdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// ClientIDHeader identifies the calling application.
	ClientIDHeader = "X-Client-Id"

	maxResponseBody = 1 << 20
)

// Client calls the session API as one registered application. Origin must
// be one of the application's allowed origins; browsers set it themselves,
// server-side callers have to supply it.
type Client struct {
	BaseURL    string
	ClientID   string
	Origin     string
	HTTPClient *http.Client
}

// NewClient returns a Client with a 10 second timeout.
func NewClient(baseURL, clientID, origin string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		ClientID:   clientID,
		Origin:     origin,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Session resolves accessToken to the signed-in user.
func (c *Client) Session(ctx context.Context, accessToken string) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.do(ctx, http.MethodGet, "/api/session", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges refreshToken for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	var out RefreshResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", "", RefreshRequest{RefreshToken: refreshToken}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignOut clears the session cookies held by the caller's user agent.
func (c *Client) SignOut(ctx context.Context) (*SignOutResponse, error) {
	var out SignOutResponse
	if err := c.do(ctx, http.MethodPost, "/api/signout", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateToken checks an access token or an SSO grant issued to this
// client. A rejected token is reported through Valid, not as an error.
func (c *Client) ValidateToken(ctx context.Context, token string) (*ValidateTokenResponse, error) {
	var out ValidateTokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/validate-token", "", ValidateTokenRequest{Token: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// User fetches the profile of the user owning accessToken.
func (c *Client) User(ctx context.Context, accessToken string) (*UserResponse, error) {
	var out UserResponse
	if err := c.do(ctx, http.MethodGet, "/api/user", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUser changes the profile of the user owning accessToken.
func (c *Client) UpdateUser(ctx context.Context, accessToken string, req UpdateUserRequest) (*UserResponse, error) {
	var out UserResponse
	if err := c.do(ctx, http.MethodPut, "/api/user/update", accessToken, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Livez checks that the service is running.
func (c *Client) Livez(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/livez", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Readyz checks that the service and its dependencies are ready.
func (c *Client) Readyz(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/readyz", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body, target any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.ClientID != "" {
		req.Header.Set(ClientIDHeader, c.ClientID)
	}
	if c.Origin != "" {
		req.Header.Set("Origin", c.Origin)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if err := parseErrorResponse(resp, data); err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
