package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default token TTLs. Each kind of token has its own lifetime and the
// lifetime is never taken from the caller.
const (
	// DefaultAccessTokenTTL is the lifetime of the short-lived access credential.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the lifetime of the refresh credential.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour

	// DefaultGrantTokenTTL is the lifetime of an SSO grant handed to a
	// downstream client through a browser redirect.
	DefaultGrantTokenTTL = 5 * time.Minute
)

// Kind separates the token families. A token of one kind never verifies as
// another.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
	KindGrant   Kind = "sso_grant"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindAccess, KindRefresh, KindGrant:
		return true
	default:
		return false
	}
}

// Claims are the payload of every token the broker issues.
type Claims struct {
	jwt.RegisteredClaims

	// Kind is enforced on every verify.
	Kind Kind `json:"kind"`

	// ClientID scopes an SSO grant to one downstream client.
	ClientID string `json:"client_id,omitempty"`

	// Profile claims copied from the authenticated principal.
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// NewClaims builds claims for subject without any time fields; those are
// stamped by the Codec at signing time.
func NewClaims(kind Kind, subject, email, name string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		Kind:             kind,
		Email:            email,
		Name:             name,
	}
}

// WithKind returns a copy of c carrying kind and no registered time fields,
// ready to be signed as a fresh token for the same subject.
func (c Claims) WithKind(kind Kind) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: c.Subject},
		Kind:             kind,
		ClientID:         c.ClientID,
		Email:            c.Email,
		Name:             c.Name,
	}
}

// ExpiresAtTime returns the expiry in UTC, or the zero time when unset.
func (c Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time.UTC()
}

// NewJTI returns a unique token identifier for the "jti" claim.
func NewJTI() string {
	return uuid.NewString()
}
