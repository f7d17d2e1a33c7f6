package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/jonathan/resume-importer/internal/types"
)

// sqliteTimeLayout is fixed width so text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore keeps imports in an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and migrates it.
// ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1) // SQLite: single writer; also keeps :memory: on one connection

	if err := migrate(ctx, sqlDB, goose.DialectSQLite3, "sqlite"); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return &SQLiteStore{db: sqlDB}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() {
	_ = s.db.Close()
}

// SaveImport inserts an import, assigning its ID and timestamp when unset.
func (s *SQLiteStore) SaveImport(ctx context.Context, imp *Import) error {
	imp.prepare()
	record, err := json.Marshal(imp.Record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO imports (id, user_id, source, reference, route, capability, classification, fallback, success, error, record, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		imp.ID.String(), nullableUUID(imp.UserID), imp.Source, imp.Reference, imp.Route, imp.Capability,
		imp.Classification, imp.Fallback, imp.Success, imp.Error, string(record), imp.CreatedAt.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save import: %w", err)
	}
	return nil
}

// GetImport returns an import by ID, or ErrNotFound.
func (s *SQLiteStore) GetImport(ctx context.Context, id uuid.UUID) (*Import, error) {
	imp, err := scanSQLiteImport(s.db.QueryRowContext(ctx, selectImport+` WHERE id = ?`, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get import: %w", err)
	}
	return imp, nil
}

// ListImports returns the newest imports, optionally for one user.
func (s *SQLiteStore) ListImports(ctx context.Context, userID *uuid.UUID, limit int) ([]Import, error) {
	user := nullableUUID(userID)
	rows, err := s.db.QueryContext(ctx,
		selectImport+` WHERE (? IS NULL OR user_id = ?) ORDER BY created_at DESC LIMIT ?`,
		user, user, listLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var imports []Import
	for rows.Next() {
		imp, err := scanSQLiteImport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import: %w", err)
		}
		imports = append(imports, *imp)
	}
	return imports, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteImport(row scanner) (*Import, error) {
	var (
		imp               Import
		id, record, stamp string
		userID            sql.NullString
	)
	err := row.Scan(&id, &userID, &imp.Source, &imp.Reference, &imp.Route, &imp.Capability,
		&imp.Classification, &imp.Fallback, &imp.Success, &imp.Error, &record, &stamp)
	if err != nil {
		return nil, err
	}

	if imp.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid stored id %q: %w", id, err)
	}
	if userID.Valid {
		uid, err := uuid.Parse(userID.String)
		if err != nil {
			return nil, fmt.Errorf("invalid stored user id %q: %w", userID.String, err)
		}
		imp.UserID = &uid
	}
	if imp.CreatedAt, err = time.Parse(sqliteTimeLayout, stamp); err != nil {
		return nil, fmt.Errorf("invalid stored timestamp %q: %w", stamp, err)
	}

	imp.Record = types.NewResumeRecord()
	if err := json.Unmarshal([]byte(record), imp.Record); err != nil {
		return nil, fmt.Errorf("failed to decode stored record: %w", err)
	}
	imp.Record.Normalize()
	return &imp, nil
}

func nullableUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}
