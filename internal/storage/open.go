package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and locates the backing database
type Config struct {
	Driver string // sqlite or postgres
	DSN    string // file path for sqlite, connection URL for postgres
}

// Open returns the Storage selected by cfg. A postgres:// or postgresql://
// DSN selects PostgreSQL even when Driver is empty.
func Open(ctx context.Context, cfg Config) (Storage, error) {
	driver := strings.ToLower(cfg.Driver)
	if driver == "" {
		driver = DriverSQLite
		if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
			driver = DriverPostgres
		}
	}

	switch driver {
	case DriverSQLite, "sqlite3":
		if cfg.DSN != ":memory:" && !strings.HasPrefix(cfg.DSN, "file:") {
			if dir := filepath.Dir(cfg.DSN); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("failed to create database directory: %w", err)
				}
			}
		}
		return NewSQLiteStorage(cfg.DSN)
	case DriverPostgres, "postgresql", "pgx":
		return NewPostgresStorage(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
