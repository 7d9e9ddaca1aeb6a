// Package registry holds the set of downstream clients allowed to take part
// in SSO. A Snapshot is immutable; a Registry publishes the current snapshot
// and swaps it atomically on reload.
package registry

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/Yousuf-Basir/sso-server/internal/sso/domain"
)

var (
	ErrInvalidClient = errors.New("registry: invalid client definition")
	ErrDuplicateID   = errors.New("registry: duplicate client id")
)

// Snapshot is a validated, read-only view of the registered clients.
type Snapshot struct {
	order   []string
	clients map[string]domain.Client
	origins map[string]struct{}
}

// NewSnapshot validates clients and builds a snapshot. A single bad entry
// rejects the whole set.
func NewSnapshot(clients []domain.Client) (*Snapshot, error) {
	s := &Snapshot{
		order:   make([]string, 0, len(clients)),
		clients: make(map[string]domain.Client, len(clients)),
		origins: make(map[string]struct{}),
	}

	for i, c := range clients {
		if err := validateClient(c); err != nil {
			return nil, fmt.Errorf("client %d (%q): %w", i, c.ID, err)
		}
		if _, dup := s.clients[c.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, c.ID)
		}

		c.RedirectURLs = slices.Clone(c.RedirectURLs)
		c.AllowedOrigins = slices.Clone(c.AllowedOrigins)
		s.clients[c.ID] = c
		s.order = append(s.order, c.ID)
		for _, o := range c.AllowedOrigins {
			s.origins[o] = struct{}{}
		}
	}
	return s, nil
}

// Empty returns a snapshot with no clients. Every lookup fails closed.
func Empty() *Snapshot {
	s, _ := NewSnapshot(nil)
	return s
}

// Resolve returns a copy of the client registered under id.
func (s *Snapshot) Resolve(id string) (domain.Client, bool) {
	if id == "" {
		return domain.Client{}, false
	}
	c, ok := s.clients[id]
	if !ok {
		return domain.Client{}, false
	}
	c.RedirectURLs = slices.Clone(c.RedirectURLs)
	c.AllowedOrigins = slices.Clone(c.AllowedOrigins)
	return c, true
}

// ValidateClient is true iff id exists and origin is one of its allowed
// origins, compared exactly.
func (s *Snapshot) ValidateClient(id, origin string) bool {
	if id == "" || origin == "" {
		return false
	}
	c, ok := s.clients[id]
	return ok && slices.Contains(c.AllowedOrigins, origin)
}

// ValidateRedirect is true iff redirectURL is exactly one of the client's
// registered redirect URLs.
func (s *Snapshot) ValidateRedirect(id, redirectURL string) bool {
	if id == "" || redirectURL == "" {
		return false
	}
	c, ok := s.clients[id]
	return ok && slices.Contains(c.RedirectURLs, redirectURL)
}

// AllowsOrigin reports whether any client lists origin.
func (s *Snapshot) AllowsOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	_, ok := s.origins[origin]
	return ok
}

// Clients returns the clients in file order.
func (s *Snapshot) Clients() []domain.Client {
	out := make([]domain.Client, 0, len(s.order))
	for _, id := range s.order {
		c, _ := s.Resolve(id)
		out = append(out, c)
	}
	return out
}

func (s *Snapshot) Len() int { return len(s.order) }

func validateClient(c domain.Client) error {
	if strings.TrimSpace(c.ID) == "" || c.ID != strings.TrimSpace(c.ID) {
		return fmt.Errorf("%w: clientId must be non-empty without surrounding spaces", ErrInvalidClient)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidClient)
	}
	if len(c.RedirectURLs) == 0 {
		return fmt.Errorf("%w: at least one redirect URL is required", ErrInvalidClient)
	}
	for _, raw := range c.RedirectURLs {
		if err := validateRedirectURL(raw); err != nil {
			return err
		}
	}
	for _, o := range c.AllowedOrigins {
		if err := validateOrigin(o); err != nil {
			return err
		}
	}
	return nil
}

func validateRedirectURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: redirect URL %q: %v", ErrInvalidClient, raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: redirect URL %q must be an absolute http(s) URL", ErrInvalidClient, raw)
	}
	if u.Fragment != "" {
		return fmt.Errorf("%w: redirect URL %q must not carry a fragment", ErrInvalidClient, raw)
	}
	return nil
}

// validateOrigin accepts scheme://host[:port] exactly as browsers send it.
func validateOrigin(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: origin %q: %v", ErrInvalidClient, raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: origin %q must be scheme://host[:port]", ErrInvalidClient, raw)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" || u.User != nil {
		return fmt.Errorf("%w: origin %q must not carry a path, query or credentials", ErrInvalidClient, raw)
	}
	return nil
}
