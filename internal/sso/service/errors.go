package service

import (
	"errors"

	"github.com/Yousuf-Basir/sso-server/internal/sso/domain"
	"github.com/Yousuf-Basir/sso-server/pkg/jwtx"
)

// Client-caused failures are returned as these values and never logged above
// debug. Anything else reaching a handler is an UpstreamFailure.
var (
	ErrMissingCredential = errors.New("missing_credential")
	ErrInvalidClient     = errors.New("invalid_client")
	ErrInvalidRedirect   = errors.New("invalid_redirect")
	ErrMissingParams     = errors.New("missing_params")
	ErrTokenInvalid      = errors.New("token_invalid")
	ErrTokenKindMismatch = errors.New("token_kind_mismatch")
	ErrUpstreamFailure   = errors.New("upstream_failure")
	ErrGrantRedeemed     = errors.New("grant_already_redeemed")

	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrEmailTaken         = errors.New("email_taken")
	ErrInvalidInput       = errors.New("invalid_input")
)

// ClientDirectory is the read side of the client registry.
type ClientDirectory interface {
	Resolve(id string) (domain.Client, bool)
	ValidateClient(id, origin string) bool
	ValidateRedirect(id, redirectURL string) bool
}

// TokenCodec signs and verifies session tokens.
type TokenCodec interface {
	Sign(claims jwtx.Claims) (jwtx.Token, error)
	Verify(raw string) (jwtx.Claims, error)
	VerifyKind(raw string, want jwtx.Kind) (jwtx.Claims, error)
}

// tokenError folds codec errors into the service taxonomy.
func tokenError(err error) error {
	if errors.Is(err, jwtx.ErrKindMismatch) {
		return ErrTokenKindMismatch
	}
	return ErrTokenInvalid
}
