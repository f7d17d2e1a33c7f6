// Package db persists import outcomes in PostgreSQL or an embedded SQLite file.
// Extraction itself never touches storage; callers save what they receive.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Store saves and reads import outcomes.
type Store interface {
	SaveImport(ctx context.Context, imp *Import) error
	GetImport(ctx context.Context, id uuid.UUID) (*Import, error)
	ListImports(ctx context.Context, userID *uuid.UUID, limit int) ([]Import, error)
	Close()
}

// Open connects to databaseURL and applies migrations. URLs starting with
// "sqlite:" or "file:" open an embedded SQLite database; anything else is
// treated as a PostgreSQL connection string.
func Open(ctx context.Context, databaseURL string) (Store, error) {
	switch {
	case strings.HasPrefix(databaseURL, "sqlite:"):
		return OpenSQLite(ctx, strings.TrimPrefix(databaseURL, "sqlite:"))
	case strings.HasPrefix(databaseURL, "file:"):
		return OpenSQLite(ctx, databaseURL)
	case databaseURL == "":
		return nil, fmt.Errorf("database URL is empty")
	default:
		return Connect(ctx, databaseURL)
	}
}

// migrate runs the embedded migrations for dialect from dir.
func migrate(ctx context.Context, sqlDB *sql.DB, dialect goose.Dialect, dir string) error {
	fsys, err := fs.Sub(migrationsFS, "migrations/"+dir)
	if err != nil {
		return fmt.Errorf("failed to open %s migrations: %w", dir, err)
	}
	provider, err := goose.NewProvider(dialect, sqlDB, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to apply %s migrations: %w", dir, err)
	}
	return nil
}
