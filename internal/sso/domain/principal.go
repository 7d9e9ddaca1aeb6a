package domain

// Principal is an authenticated identity as seen by the token engine.
type Principal struct {
	Subject string
	Email   string
	Name    string
}

// Provider names an external identity provider.
type Provider string

const (
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
)

// ProviderIdentity is what an identity provider reported about the user.
// It is untrusted until it has been matched to a local user.
type ProviderIdentity struct {
	Provider Provider
	Subject  string // provider-side user id
	Email    string
	Name     string
	Picture  string
}
