// Package repository selects the store backend named in the configuration.
package repository

import (
	"fmt"

	"tutor-app/internal/config"
	"tutor-app/internal/logger"
	"tutor-app/internal/repository/db"
	"tutor-app/internal/repository/memory"
	"tutor-app/internal/repository/postgres"
	"tutor-app/internal/repository/redis"
	"tutor-app/internal/repository/sqlite"
)

// Open connects to the configured backend
func Open(cfg *config.AppConfig) (db.Database, error) {
	logger.Log.WithField("backend", cfg.Storage.Backend).Info("Opening store")

	switch cfg.Storage.Backend {
	case config.StorageMemory, "":
		return memory.NewMemoryDB(), nil
	case config.StoragePostgres:
		return postgres.NewPostgresDB(cfg.Database)
	case config.StorageRedis:
		return redis.NewRedisDB(cfg.Redis)
	case config.StorageSQLite:
		return sqlite.NewSQLiteDB(cfg.SQLite)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
