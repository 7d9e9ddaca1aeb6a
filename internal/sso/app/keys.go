package app

import (
	"fmt"
	"log/slog"

	"github.com/Yousuf-Basir/sso-server/pkg/cryptox"
	"github.com/Yousuf-Basir/sso-server/pkg/jwtx"
)

// InitKeys builds the HS256 key set from JWT_SECRET_KEY and
// JWT_PREVIOUS_SECRET_KEYS.
//
// In dev an unset JWT_SECRET_KEY is replaced by a random secret generated
// at startup. Every token becomes invalid when the process restarts.
func InitKeys(cfg Config, logger *slog.Logger) (*jwtx.KeySet, error) {
	secret := cfg.JWTSecretKey
	if secret == "" {
		if cfg.IsProd() {
			return nil, fmt.Errorf("%w: JWT_SECRET_KEY is required", ErrInvalidConfig)
		}
		generated, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return nil, fmt.Errorf("generate ephemeral secret: %w", err)
		}
		secret = generated
		logger.Warn("JWT_SECRET_KEY not set, using an ephemeral secret; sessions will not survive a restart")
	}

	current := jwtx.NewKey([]byte(secret))
	previous := make([]jwtx.Key, 0, len(cfg.JWTPreviousSecretKeys))
	for _, s := range cfg.JWTPreviousSecretKeys {
		previous = append(previous, jwtx.NewKey([]byte(s)))
	}

	keys, err := jwtx.NewKeySet(current, previous...)
	if err != nil {
		return nil, fmt.Errorf("load signing keys: %w", err)
	}

	logger.Info("signing keys loaded",
		"kid", current.ID,
		"previous", len(previous),
	)
	return keys, nil
}
