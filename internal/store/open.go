package store

import (
	"context"
	"fmt"

	"github.com/mobil-koeln/tickets/internal/config"
)

// Open returns the collection selected by cfg.
func Open(ctx context.Context, cfg config.StoreConfig) (Collection, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemory(), nil
	case config.BackendSQLite:
		return OpenSQLite(ctx, cfg.SQLite.Path, cfg.Collection, cfg.SQLite.PollInterval)
	case config.BackendRedis:
		return OpenRedis(ctx, RedisOptions{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.RedisPrefix(),
		})
	case config.BackendFirestore:
		return OpenFirestore(ctx, FirestoreOptions{
			ProjectID:       cfg.Firestore.ProjectID,
			CredentialsFile: cfg.Firestore.CredentialsFile,
			Collection:      cfg.Collection,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
