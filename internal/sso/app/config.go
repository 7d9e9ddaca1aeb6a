package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Yousuf-Basir/sso-server/pkg/httpx"
	"github.com/Yousuf-Basir/sso-server/pkg/jwtx"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// ErrInvalidConfig wraps every startup configuration failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Grant ledger backends.
const (
	LedgerMemory = "memory"
	LedgerRedis  = "redis"
)

// Config is read from environment variables. Each koanf tag is the
// lower-cased variable name.
type Config struct {
	Env                  string        `koanf:"env"`                   // dev, staging, prod (default: dev)
	LogLevel             string        `koanf:"log_level"`             // debug, info, warn, error (default: info)
	LogFormat            string        `koanf:"log_format"`            // json, text (default: json)
	Port                 int           `koanf:"port"`                  // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration `koanf:"shutdown_grace_period"` // default: 10s
	HousekeepingInterval time.Duration `koanf:"housekeeping_interval"` // default: 1m

	Issuer    string `koanf:"sso_issuer"`     // iss claim (default: sso-server)
	PublicURL string `koanf:"sso_public_url"` // external base URL, used for provider callbacks

	JWTSecretKey          string   `koanf:"jwt_secret_key"` // Required outside dev
	JWTPreviousSecretKeys []string `koanf:"-"`              // JWT_PREVIOUS_SECRET_KEYS, comma separated, verify only

	AccessTTL  time.Duration `koanf:"sso_access_ttl"`  // default: 15m
	RefreshTTL time.Duration `koanf:"sso_refresh_ttl"` // default: 168h
	GrantTTL   time.Duration `koanf:"sso_grant_ttl"`   // default: 5m

	ClientsFile  string `koanf:"sso_clients_file"`  // JSON or YAML (default: clients.json)
	WatchClients bool   `koanf:"sso_watch_clients"` // reload the clients file on change (default: true)

	LoginURL     string `koanf:"sso_login_url"`      // default: /login
	PostLoginURL string `koanf:"sso_post_login_url"` // default: /profile

	DatabaseFile string `koanf:"sso_database_file"` // default: sso.db
	PepperFile   string `koanf:"sso_pepper_file"`   // default: pepper

	SingleUseGrants bool   `koanf:"sso_single_use_grants"` // default: false
	GrantLedger     string `koanf:"sso_grant_ledger"`      // memory or redis (default: memory)
	RedisAddr       string `koanf:"redis_addr"`
	RedisPassword   string `koanf:"redis_password"`
	RedisDB         int    `koanf:"redis_db"`

	MetricsEnabled bool `koanf:"metrics_enabled"` // default: true

	GoogleClientID       string `koanf:"google_client_id"`
	GoogleClientSecret   string `koanf:"google_client_secret"`
	FacebookClientID     string `koanf:"facebook_client_id"`
	FacebookClientSecret string `koanf:"facebook_client_secret"`

	// RateLimits holds RATELIMIT_{PROFILE}_{REQUESTS,WINDOW,BURST}
	// overrides keyed by profile name. Zero fields keep the stock value.
	RateLimits map[string]httpx.RateLimitConfig `koanf:"-"`
}

func defaults() Config {
	return Config{
		Env:                  "dev",
		LogLevel:             "info",
		LogFormat:            "json",
		Port:                 8080,
		ShutdownGracePeriod:  10 * time.Second,
		HousekeepingInterval: time.Minute,
		Issuer:               "sso-server",
		PublicURL:            "http://localhost:8080",
		AccessTTL:            jwtx.DefaultAccessTokenTTL,
		RefreshTTL:           jwtx.DefaultRefreshTokenTTL,
		GrantTTL:             jwtx.DefaultGrantTokenTTL,
		ClientsFile:          "clients.json",
		WatchClients:         true,
		LoginURL:             "/login",
		PostLoginURL:         "/profile",
		DatabaseFile:         "sso.db",
		PepperFile:           "pepper",
		GrantLedger:          LedgerMemory,
		MetricsEnabled:       true,
	}
}

var rateLimitProfiles = []string{"strict", "moderate", "lenient", "public"}

// LoadConfig reads the environment over the compiled defaults. It does not
// validate; call Validate before using the result.
func LoadConfig() (Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return Config{}, fmt.Errorf("load env vars: %w", err)
	}

	cfg := defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	// The env provider yields one string; koanf won't split it into a slice.
	cfg.JWTPreviousSecretKeys = compact(strings.Split(k.String("jwt_previous_secret_keys"), ","))

	cfg.RateLimits = make(map[string]httpx.RateLimitConfig)
	for _, p := range rateLimitProfiles {
		prefix := "ratelimit_" + p + "_"
		o := httpx.RateLimitConfig{
			RequestsPerWindow: k.Int(prefix + "requests"),
			Window:            k.Duration(prefix + "window"),
			Burst:             k.Int(prefix + "burst"),
		}
		if o != (httpx.RateLimitConfig{}) {
			cfg.RateLimits[p] = o
		}
	}
	return cfg, nil
}

// IsProd reports whether the service runs in production.
func (c Config) IsProd() bool { return c.Env == "prod" }

// Validate fails closed on settings the service can't run safely with.
func (c Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	switch c.Env {
	case "dev", "staging", "prod":
	default:
		fail("ENV must be dev, staging or prod, got %q", c.Env)
	}
	if c.Port <= 0 || c.Port > 65535 {
		fail("PORT out of range: %d", c.Port)
	}
	if c.Issuer == "" {
		fail("SSO_ISSUER is required")
	}

	if c.Env != "dev" && c.JWTSecretKey == "" {
		fail("JWT_SECRET_KEY is required outside dev")
	}
	if c.JWTSecretKey != "" && len(c.JWTSecretKey) < jwtx.MinSecretSize {
		fail("JWT_SECRET_KEY must be at least %d bytes", jwtx.MinSecretSize)
	}
	for i, k := range c.JWTPreviousSecretKeys {
		if len(k) < jwtx.MinSecretSize {
			fail("JWT_PREVIOUS_SECRET_KEYS entry %d must be at least %d bytes", i, jwtx.MinSecretSize)
		}
	}

	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 || c.GrantTTL <= 0 {
		fail("token TTLs must be positive")
	}
	if c.GrantTTL > c.AccessTTL {
		fail("SSO_GRANT_TTL (%s) must not exceed SSO_ACCESS_TTL (%s)", c.GrantTTL, c.AccessTTL)
	}

	if c.ClientsFile == "" {
		fail("SSO_CLIENTS_FILE is required")
	}
	if c.LoginURL == "" {
		fail("SSO_LOGIN_URL is required")
	}

	switch c.GrantLedger {
	case LedgerMemory:
	case LedgerRedis:
		if c.SingleUseGrants && c.RedisAddr == "" {
			fail("REDIS_ADDR is required for the redis grant ledger")
		}
	default:
		fail("SSO_GRANT_LEDGER must be memory or redis, got %q", c.GrantLedger)
	}

	for name, o := range c.RateLimits {
		if o.RequestsPerWindow < 0 || o.Window < 0 || o.Burst < 0 {
			fail("rate limit %s overrides must not be negative", name)
		}
	}

	return errors.Join(errs...)
}

// Policy returns the token lifetimes.
func (c Config) Policy() jwtx.Policy {
	return jwtx.Policy{Access: c.AccessTTL, Refresh: c.RefreshTTL, Grant: c.GrantTTL}
}

// ApplyRateLimits writes the overrides onto the shared httpx profiles.
// It must run before routes are registered.
func (c Config) ApplyRateLimits() {
	targets := map[string]*httpx.RateLimitConfig{
		"strict":   &httpx.StrictLimit,
		"moderate": &httpx.ModerateLimit,
		"lenient":  &httpx.LenientLimit,
		"public":   &httpx.PublicLimit,
	}
	for name, o := range c.RateLimits {
		t, ok := targets[name]
		if !ok {
			continue
		}
		if o.RequestsPerWindow > 0 {
			t.RequestsPerWindow = o.RequestsPerWindow
		}
		if o.Window > 0 {
			t.Window = o.Window
		}
		if o.Burst > 0 {
			t.Burst = o.Burst
		}
	}
}

func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
