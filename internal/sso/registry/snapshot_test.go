package registry_test

import (
	"sync"
	"testing"

	"github.com/Yousuf-Basir/sso-server/internal/sso/domain"
	"github.com/Yousuf-Basir/sso-server/internal/sso/registry"
	"github.com/stretchr/testify/require"
)

func acme() domain.Client {
	return domain.Client{
		ID:             "acme",
		Secret:         "s3cret",
		Name:           "Acme",
		RedirectURLs:   []string{"https://acme.example/cb"},
		AllowedOrigins: []string{"https://acme.example"},
	}
}

func blog() domain.Client {
	return domain.Client{
		ID:             "blog",
		Name:           "Blog",
		RedirectURLs:   []string{"https://blog.example/sso/callback", "http://localhost:3001/sso/callback"},
		AllowedOrigins: []string{"https://blog.example", "http://localhost:3001"},
	}
}

func mustSnapshot(t *testing.T, clients ...domain.Client) *registry.Snapshot {
	t.Helper()
	snap, err := registry.NewSnapshot(clients)
	require.NoError(t, err)
	return snap
}

func TestSnapshot_ValidateClient(t *testing.T) {
	snap := mustSnapshot(t, acme(), blog())

	tests := []struct {
		name   string
		id     string
		origin string
		want   bool
	}{
		{"registered origin", "acme", "https://acme.example", true},
		{"second client", "blog", "http://localhost:3001", true},
		{"other client's origin", "acme", "https://blog.example", false},
		{"trailing slash", "acme", "https://acme.example/", false},
		{"scheme differs", "acme", "http://acme.example", false},
		{"port differs", "acme", "https://acme.example:8443", false},
		{"prefix", "acme", "https://acme.exam", false},
		{"suffix host", "acme", "https://acme.example.evil.test", false},
		{"case differs", "acme", "https://ACME.example", false},
		{"empty origin", "acme", "", false},
		{"unknown client", "nope", "https://acme.example", false},
		{"empty client", "", "https://acme.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, snap.ValidateClient(tt.id, tt.origin))
		})
	}
}

func TestSnapshot_ValidateRedirect(t *testing.T) {
	snap := mustSnapshot(t, acme(), blog())

	tests := []struct {
		name string
		id   string
		url  string
		want bool
	}{
		{"exact", "acme", "https://acme.example/cb", true},
		{"proper prefix", "acme", "https://acme.example/c", false},
		{"extension", "acme", "https://acme.example/cb/evil", false},
		{"extra query", "acme", "https://acme.example/cb?next=https://evil.example", false},
		{"suffix of allowed", "acme", "acme.example/cb", false},
		{"evil host", "acme", "https://evil.example/cb", false},
		{"other client's url", "acme", "https://blog.example/sso/callback", false},
		{"trailing slash", "acme", "https://acme.example/cb/", false},
		{"empty url", "acme", "", false},
		{"unknown client", "ghost", "https://acme.example/cb", false},
		{"empty client", "", "https://acme.example/cb", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, snap.ValidateRedirect(tt.id, tt.url))
		})
	}
}

func TestSnapshot_Resolve(t *testing.T) {
	snap := mustSnapshot(t, acme())

	c, ok := snap.Resolve("acme")
	require.True(t, ok)
	require.Equal(t, "Acme", c.Name)

	// Mutating the returned copy does not leak into the snapshot.
	c.RedirectURLs[0] = "https://evil.example/cb"
	require.True(t, snap.ValidateRedirect("acme", "https://acme.example/cb"))
	require.False(t, snap.ValidateRedirect("acme", "https://evil.example/cb"))

	_, ok = snap.Resolve("")
	require.False(t, ok)
	_, ok = snap.Resolve("ghost")
	require.False(t, ok)
}

func TestSnapshot_InputIsCopied(t *testing.T) {
	c := acme()
	snap := mustSnapshot(t, c)

	c.AllowedOrigins[0] = "https://evil.example"
	require.True(t, snap.ValidateClient("acme", "https://acme.example"))
	require.False(t, snap.AllowsOrigin("https://evil.example"))
}

func TestSnapshot_AllowsOrigin(t *testing.T) {
	snap := mustSnapshot(t, acme(), blog())

	require.True(t, snap.AllowsOrigin("https://acme.example"))
	require.True(t, snap.AllowsOrigin("http://localhost:3001"))
	require.False(t, snap.AllowsOrigin("https://evil.example"))
	require.False(t, snap.AllowsOrigin(""))
}

func TestNewSnapshot_Rejects(t *testing.T) {
	mutate := func(f func(c *domain.Client)) domain.Client {
		c := acme()
		f(&c)
		return c
	}

	tests := []struct {
		name    string
		clients []domain.Client
	}{
		{"empty id", []domain.Client{mutate(func(c *domain.Client) { c.ID = "" })}},
		{"padded id", []domain.Client{mutate(func(c *domain.Client) { c.ID = " acme" })}},
		{"no name", []domain.Client{mutate(func(c *domain.Client) { c.Name = "  " })}},
		{"no redirects", []domain.Client{mutate(func(c *domain.Client) { c.RedirectURLs = nil })}},
		{"relative redirect", []domain.Client{mutate(func(c *domain.Client) { c.RedirectURLs = []string{"/cb"} })}},
		{"javascript redirect", []domain.Client{mutate(func(c *domain.Client) { c.RedirectURLs = []string{"javascript:alert(1)"} })}},
		{"fragment redirect", []domain.Client{mutate(func(c *domain.Client) { c.RedirectURLs = []string{"https://acme.example/cb#x"} })}},
		{"origin with path", []domain.Client{mutate(func(c *domain.Client) { c.AllowedOrigins = []string{"https://acme.example/"} })}},
		{"origin without scheme", []domain.Client{mutate(func(c *domain.Client) { c.AllowedOrigins = []string{"acme.example"} })}},
		{"duplicate id", []domain.Client{acme(), acme()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registry.NewSnapshot(tt.clients)
			require.Error(t, err)
		})
	}
}

func TestRegistry_SwapIsAtomic(t *testing.T) {
	oldSet := mustSnapshot(t, acme())
	newSet := mustSnapshot(t, blog())
	reg := registry.New(oldSet)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				// A reader sees exactly one of the two sets, never a mix.
				snap := reg.Snapshot()
				_, hasAcme := snap.Resolve("acme")
				_, hasBlog := snap.Resolve("blog")
				if hasAcme == hasBlog {
					t.Errorf("observed a partial registry: acme=%v blog=%v", hasAcme, hasBlog)
					return
				}
			}
		}()
	}

	for i := range 1000 {
		if i%2 == 0 {
			reg.Swap(newSet)
		} else {
			reg.Swap(oldSet)
		}
	}
	close(stop)
	wg.Wait()
}

func TestRegistry_NilServesEmpty(t *testing.T) {
	reg := registry.New(nil)
	require.False(t, reg.IsReady())
	require.False(t, reg.ValidateClient("acme", "https://acme.example"))

	reg.Swap(mustSnapshot(t, acme()))
	require.True(t, reg.IsReady())
	require.True(t, reg.ValidateRedirect("acme", "https://acme.example/cb"))
	require.False(t, reg.LoadedAt().IsZero())
}
