package session

import (
	"context"
	"fmt"

	"reviewharvest/internal/config"
	"reviewharvest/internal/logging"
	"reviewharvest/pkg/models"
)

// Store persists browser cookies between runs so logins and cleared
// challenges survive process restarts. Load returns an empty slice when
// nothing has been saved yet.
type Store interface {
	Load(ctx context.Context) ([]models.Cookie, error)
	Save(ctx context.Context, cookies []models.Cookie) error
	Close() error
}

// New builds the store for the configured session backend.
func New(cfg *config.Config, logger logging.Logger) (Store, error) {
	switch cfg.Session.Backend {
	case "file":
		return NewFileStore(cfg, logger), nil
	case "redis":
		return NewRedisStore(cfg, logger), nil
	case "none":
		return NewNullStore(), nil
	default:
		return nil, fmt.Errorf("unknown session backend: %s", cfg.Session.Backend)
	}
}
