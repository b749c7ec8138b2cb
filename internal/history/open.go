package history

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/clif-c-of-mcp-server/internal/database"
	"github.com/clif-c-of-mcp-server/internal/domain"
)

// OpenStorage creates the Storage selected by cfg.Backend. Remote backends
// are wrapped in a circuit breaker; PostgreSQL is migrated before use.
func OpenStorage(ctx context.Context, cfg domain.HistoryConfig, logger *logrus.Logger) (Storage, error) {
	switch cfg.Backend {
	case domain.BackendMemory:
		return NewMemoryStorage(), nil

	case domain.BackendSQLite, "":
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("history.sqlite_path is required for the sqlite backend")
		}
		storage, err := NewSQLiteStorage(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.WithField("path", storage.Path()).Debug("Opened SQLite history storage")
		return storage, nil

	case domain.BackendPostgres:
		db, err := database.Open(ctx, cfg.PostgresURL, logger)
		if err != nil {
			return nil, err
		}
		runner, err := database.NewMigrationRunner(cfg.PostgresURL, logger)
		if err != nil {
			db.Close()
			return nil, err
		}
		err = runner.Up(ctx)
		if cerr := runner.Close(); cerr != nil {
			logger.WithError(cerr).Warn("Failed to close migration runner")
		}
		if err != nil {
			db.Close()
			return nil, err
		}
		storage, err := NewPostgresStorage(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return NewBreakerStorage("history-postgres", storage, defaultBreakerConfig(cfg.Breaker), logger), nil

	case domain.BackendRedis:
		storage, err := NewRedisStorage(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return NewBreakerStorage("history-redis", storage, defaultBreakerConfig(cfg.Breaker), logger), nil

	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}

// Open creates the configured storage and a Store over it, with the
// persisted entries loaded.
func Open(ctx context.Context, cfg domain.HistoryConfig, logger *logrus.Logger) (*Store, error) {
	storage, err := OpenStorage(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s history storage: %w", cfg.Backend, err)
	}

	store := NewStore(storage, Options{
		Key:        cfg.Key,
		MaxEntries: cfg.MaxEntries,
		Timeout:    cfg.Timeout,
	}, logger)
	store.Load(ctx)

	logger.WithFields(logrus.Fields{
		"backend": cfg.Backend,
		"entries": store.Len(),
	}).Debug("History store opened")

	return store, nil
}
