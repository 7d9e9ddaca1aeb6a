package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers every reason a token fails to verify. Callers
	// can't tell an expired token from a forged one.
	ErrInvalidToken = errors.New("jwtx: invalid token")

	// ErrKindMismatch is returned by VerifyKind for a valid token of the
	// wrong kind.
	ErrKindMismatch = errors.New("jwtx: token kind mismatch")
)

// Policy maps each token kind to its lifetime.
type Policy struct {
	Access  time.Duration
	Refresh time.Duration
	Grant   time.Duration
}

// DefaultPolicy returns the standard lifetimes.
func DefaultPolicy() Policy {
	return Policy{
		Access:  DefaultAccessTokenTTL,
		Refresh: DefaultRefreshTokenTTL,
		Grant:   DefaultGrantTokenTTL,
	}
}

// TTL returns the lifetime for kind, zero for unknown kinds.
func (p Policy) TTL(k Kind) time.Duration {
	switch k {
	case KindAccess:
		return p.Access
	case KindRefresh:
		return p.Refresh
	case KindGrant:
		return p.Grant
	default:
		return 0
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.Access <= 0 {
		p.Access = d.Access
	}
	if p.Refresh <= 0 {
		p.Refresh = d.Refresh
	}
	if p.Grant <= 0 {
		p.Grant = d.Grant
	}
	return p
}

// Token is a signed token and the claims it carries.
type Token struct {
	Raw    string
	Claims Claims
}

// ExpiresAt returns the token expiry.
func (t Token) ExpiresAt() time.Time { return t.Claims.ExpiresAtTime() }

// CodecOptions configures a Codec.
type CodecOptions struct {
	// Keys supplies the signing and verification secrets.
	Keys Keyring

	// Issuer is stamped on every token and required on verify.
	Issuer string

	// Policy sets the lifetime of each kind. Zero fields use the defaults.
	Policy Policy

	// Now overrides the clock, mostly for tests.
	Now func() time.Time
}

// Codec signs and verifies HS256 tokens.
type Codec struct {
	keys   Keyring
	issuer string
	policy Policy
	now    func() time.Time
}

// NewCodec builds a Codec from opts.
func NewCodec(opts CodecOptions) (*Codec, error) {
	if opts.Keys == nil {
		return nil, errors.New("jwtx: Keys is required")
	}
	if opts.Issuer == "" {
		return nil, errors.New("jwtx: Issuer is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Codec{
		keys:   opts.Keys,
		issuer: opts.Issuer,
		policy: opts.Policy.withDefaults(),
		now:    now,
	}, nil
}

// Policy returns the effective token lifetimes.
func (c *Codec) Policy() Policy { return c.policy }

// Sign stamps iss, iat, nbf, exp and jti onto claims and signs them with
// the current key. The lifetime comes from the policy for claims.Kind.
func (c *Codec) Sign(claims Claims) (Token, error) {
	if !claims.Kind.Valid() {
		return Token{}, fmt.Errorf("jwtx: unknown token kind %q", claims.Kind)
	}
	if claims.Subject == "" {
		return Token{}, errors.New("jwtx: subject is required")
	}

	// NumericDate has second precision; truncating here keeps exp exactly
	// iat + ttl after a round trip.
	now := c.now().UTC().Truncate(time.Second)
	claims.Issuer = c.issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.NotBefore = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.policy.TTL(claims.Kind)))
	if claims.ID == "" {
		claims.ID = NewJTI()
	}

	key := c.keys.CurrentKey()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["kid"] = key.ID

	raw, err := t.SignedString(key.Secret)
	if err != nil {
		return Token{}, fmt.Errorf("jwtx: sign: %w", err)
	}
	return Token{Raw: raw, Claims: claims}, nil
}

// Verify checks signature, issuer and validity window of raw and returns
// its claims. Any failure is reported as ErrInvalidToken.
func (c *Codec) Verify(raw string) (Claims, error) {
	claims, err := c.parse(raw)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// VerifyKind is Verify plus a kind check.
func (c *Codec) VerifyKind(raw string, want Kind) (Claims, error) {
	claims, err := c.Verify(raw)
	if err != nil {
		return Claims{}, err
	}
	if claims.Kind != want {
		return Claims{}, ErrKindMismatch
	}
	return claims, nil
}

func (c *Codec) parse(raw string) (Claims, error) {
	if raw == "" {
		return Claims{}, errors.New("jwtx: empty token")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("jwtx: missing kid")
		}
		key, err := lookup(c.keys, kid)
		if err != nil {
			return nil, fmt.Errorf("jwtx: unknown kid %q: %w", kid, err)
		}
		return key.Secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("jwtx: parse or verify: %w", err)
	}

	if !claims.Kind.Valid() {
		return Claims{}, fmt.Errorf("jwtx: unknown token kind %q", claims.Kind)
	}
	if claims.Subject == "" {
		return Claims{}, errors.New("jwtx: missing subject")
	}
	return claims, nil
}
