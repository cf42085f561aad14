package app

import (
	"fmt"
	"log/slog"

	"github.com/maratshchur/django-auth-template/pkg/cryptox"
	"github.com/maratshchur/django-auth-template/pkg/jwtx"
)

// InitSigningSecret returns the HS256 secret. A configured secret must be at
// least jwtx.MinSecretLength bytes. Without one, a random secret is generated
// and every token becomes invalid when the process restarts.
func InitSigningSecret(cfg Config, logger *slog.Logger) ([]byte, error) {
	if cfg.SecretKey != "" {
		if len(cfg.SecretKey) < jwtx.MinSecretLength {
			return nil, fmt.Errorf("AUTH_SECRET_KEY: %w", jwtx.ErrWeakSecret)
		}
		return []byte(cfg.SecretKey), nil
	}

	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, fmt.Errorf("generate signing secret: %w", err)
	}
	logger.Warn("AUTH_SECRET_KEY not set, using an ephemeral signing secret; tokens will not survive a restart")
	return []byte(secret), nil
}
