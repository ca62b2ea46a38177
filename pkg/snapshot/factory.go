package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Yukaii/vibers-goal/pkg/config"
)

// Open picks the backend named by cfg.StorageDriver.
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.StorageDriver {
	case "memory":
		return NewMemoryBackend(), nil
	case "", "file":
		return NewFileBackend(cfg.DataDir)
	case "sqlite":
		dsn := cfg.DatabaseDSN
		if dsn == "" {
			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return nil, err
			}
			dsn = filepath.Join(cfg.DataDir, "vibers.db")
		}
		return NewGormBackend("sqlite", dsn)
	case "postgres", "mysql":
		if cfg.DatabaseDSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for %s storage", cfg.StorageDriver)
		}
		return NewGormBackend(cfg.StorageDriver, cfg.DatabaseDSN)
	case "redis":
		return NewRedisBackend(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
