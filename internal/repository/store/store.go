// Package store opens the repository backend selected by configuration.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sakif/snippetshare/internal/config"
	"github.com/sakif/snippetshare/internal/repository"
	"github.com/sakif/snippetshare/internal/repository/postgres"
	"github.com/sakif/snippetshare/internal/repository/sqlite"
)

// Open connects to the configured database and migrates its schema.
// For sqlite the parent directory of the database file is created first.
func Open(ctx context.Context, cfg config.DatabaseConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.Path); cfg.Path != ":memory:" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("store: creating data directory: %w", err)
			}
		}
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("store: unknown database driver %q", cfg.Driver)
	}
}
