package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// exerciseKV runs the shared KV contract against one backend.
func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)

	require.NoError(t, kv.Set(ctx, "a", "1"))
	require.NoError(t, kv.Set(ctx, "a", "2"))
	require.NoError(t, kv.Set(ctx, "b", `{"x":1}`))
	v, err := kv.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	require.NoError(t, kv.Delete(ctx, "a", "b", "never-set"))
	_, err = kv.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, kv.Delete(ctx))
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, NewMemoryKV())
}

func TestSQLiteKV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quest.db")
	kv, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	defer kv.Close()
	exerciseKV(t, kv)
}

func TestSQLiteKVSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "quest.db")
	kv, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "matrix_user_id", "user_1_abc"))
	require.NoError(t, kv.Close())

	again, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer again.Close()
	v, err := again.Get(ctx, "matrix_user_id")
	require.NoError(t, err)
	assert.Equal(t, "user_1_abc", v)
}

func TestRedisKV(t *testing.T) {
	mr := miniredis.RunT(t)
	kv, err := OpenRedis(context.Background(), "redis://"+mr.Addr()+"/0", zap.NewNop())
	require.NoError(t, err)
	defer kv.Close()
	exerciseKV(t, kv)
}

func TestOpenRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err := OpenRedis(context.Background(), "redis://"+addr+"/0", zap.NewNop())
	assert.Error(t, err)
}

func TestPostgresKV(t *testing.T) {
	dsn := os.Getenv("QUEST_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("QUEST_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	mig, err := NewMigrator("postgres", dsn)
	require.NoError(t, err)
	if err := mig.Up(ctx); err != nil && !errors.Is(err, ErrNoChange) {
		t.Fatalf("migrate: %v", err)
	}
	db, err := Open(ctx, dsn)
	require.NoError(t, err)
	kv := NewPostgresKV(db)
	defer kv.Close()
	exerciseKV(t, kv)
}

func TestNewMigratorValidation(t *testing.T) {
	_, err := NewMigrator("postgres", "")
	assert.Error(t, err)
	_, err = NewMigrator("oracle", "x")
	assert.Error(t, err)
}

func TestSQLiteMigrationsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "m.db")
	mig, err := NewMigrator("sqlite", path)
	require.NoError(t, err)
	require.NoError(t, mig.Up(ctx))
	assert.ErrorIs(t, mig.Up(ctx), ErrNoChange)

	v, dirty, err := mig.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)

	require.NoError(t, mig.Down(ctx))
	v, _, err = mig.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(0), v)
}
