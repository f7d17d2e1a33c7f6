package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/jonathan/resume-importer/internal/types"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database and migrates it.
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer func() { _ = sqlDB.Close() }()
	if err := migrate(ctx, sqlDB, goose.DialectPostgres, "postgres"); err != nil {
		pool.Close()
		return nil, err
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// SaveImport inserts an import, assigning its ID and timestamp when unset.
func (db *DB) SaveImport(ctx context.Context, imp *Import) error {
	imp.prepare()
	record, err := json.Marshal(imp.Record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO imports (id, user_id, source, reference, route, capability, classification, fallback, success, error, record, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		imp.ID, imp.UserID, imp.Source, imp.Reference, imp.Route, imp.Capability,
		imp.Classification, imp.Fallback, imp.Success, imp.Error, record, imp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save import: %w", err)
	}
	return nil
}

const selectImport = `SELECT id, user_id, source, reference, route, capability, classification, fallback, success, error, record, created_at FROM imports`

// GetImport returns an import by ID, or ErrNotFound.
func (db *DB) GetImport(ctx context.Context, id uuid.UUID) (*Import, error) {
	imp, err := scanPgImport(db.pool.QueryRow(ctx, selectImport+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get import: %w", err)
	}
	return imp, nil
}

// ListImports returns the newest imports, optionally for one user.
func (db *DB) ListImports(ctx context.Context, userID *uuid.UUID, limit int) ([]Import, error) {
	query := selectImport + ` WHERE ($1::uuid IS NULL OR user_id = $1) ORDER BY created_at DESC LIMIT $2`
	rows, err := db.pool.Query(ctx, query, userID, listLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}
	defer rows.Close()

	var imports []Import
	for rows.Next() {
		imp, err := scanPgImport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import: %w", err)
		}
		imports = append(imports, *imp)
	}
	return imports, rows.Err()
}

func scanPgImport(row pgx.Row) (*Import, error) {
	var imp Import
	var record []byte
	err := row.Scan(&imp.ID, &imp.UserID, &imp.Source, &imp.Reference, &imp.Route, &imp.Capability,
		&imp.Classification, &imp.Fallback, &imp.Success, &imp.Error, &record, &imp.CreatedAt)
	if err != nil {
		return nil, err
	}
	imp.Record = types.NewResumeRecord()
	if err := json.Unmarshal(record, imp.Record); err != nil {
		return nil, fmt.Errorf("failed to decode stored record: %w", err)
	}
	imp.Record.Normalize()
	return &imp, nil
}
