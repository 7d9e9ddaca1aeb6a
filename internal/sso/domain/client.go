package domain

// Client is a downstream application registered for SSO. Entries are
// loaded from the clients file and never mutated at runtime.
type Client struct {
	ID             string
	Secret         string // reserved, no current flow checks it
	Name           string
	RedirectURLs   []string
	AllowedOrigins []string
}
