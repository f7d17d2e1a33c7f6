package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-importer/internal/types"
)

func setupSQLite(t *testing.T) Store {
	t.Helper()
	store, err := Open(context.Background(), "sqlite:"+filepath.Join(t.TempDir(), "imports.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func sampleImport(userID *uuid.UUID, name string, at time.Time) *Import {
	record := types.NewResumeRecord()
	record.Personal.Name = name
	record.Skills = []string{"Go"}
	return &Import{
		UserID:         userID,
		Source:         SourceUpload,
		Reference:      name + ".pdf",
		Route:          "generic",
		Capability:     "generic",
		Classification: "usable",
		Success:        true,
		Record:         record,
		CreatedAt:      at,
	}
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()
	user := uuid.New()

	imp := sampleImport(&user, "Jane Doe", time.Time{})
	imp.Fallback = true
	require.NoError(t, store.SaveImport(ctx, imp))
	assert.NotEqual(t, uuid.Nil, imp.ID, "ID is assigned on save")
	assert.False(t, imp.CreatedAt.IsZero())

	got, err := store.GetImport(ctx, imp.ID)
	require.NoError(t, err)
	assert.Equal(t, imp.ID, got.ID)
	require.NotNil(t, got.UserID)
	assert.Equal(t, user, *got.UserID)
	assert.Equal(t, "Jane Doe.pdf", got.Reference)
	assert.True(t, got.Fallback)
	assert.True(t, got.Success)
	assert.Equal(t, "Jane Doe", got.Record.Personal.Name)
	assert.Equal(t, []string{"Go"}, got.Record.Skills)
	assert.NotNil(t, got.Record.Education)
	assert.WithinDuration(t, imp.CreatedAt, got.CreatedAt, time.Millisecond)
}

func TestSQLiteStore_FailedImportWithoutUser(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()

	imp := &Import{Source: SourceProfile, Reference: "https://example.com/x", Error: "Invalid LinkedIn URL"}
	require.NoError(t, store.SaveImport(ctx, imp))

	got, err := store.GetImport(ctx, imp.ID)
	require.NoError(t, err)
	assert.Nil(t, got.UserID)
	assert.False(t, got.Success)
	assert.Equal(t, "Invalid LinkedIn URL", got.Error)
	assert.True(t, got.Record.IsEmpty())
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	store := setupSQLite(t)

	_, err := store.GetImport(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_ListImports(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveImport(ctx, sampleImport(&alice, "first", base)))
	require.NoError(t, store.SaveImport(ctx, sampleImport(&alice, "second", base.Add(time.Hour))))
	require.NoError(t, store.SaveImport(ctx, sampleImport(&bob, "other", base.Add(2*time.Hour))))

	mine, err := store.ListImports(ctx, &alice, 10)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "second", mine[0].Record.Personal.Name, "newest first")
	assert.Equal(t, "first", mine[1].Record.Personal.Name)

	all, err := store.ListImports(ctx, nil, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := store.ListImports(ctx, nil, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "other", limited[0].Record.Personal.Name)
}

func TestSQLiteStore_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imports.db")
	ctx := context.Background()

	first, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	imp := sampleImport(nil, "kept", time.Time{})
	require.NoError(t, first.SaveImport(ctx, imp))
	first.Close()

	second, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer second.Close()
	got, err := second.GetImport(ctx, imp.ID)
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Record.Personal.Name)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)

	_, err = OpenSQLite(context.Background(), "")
	assert.Error(t, err)
}
