package gorm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	libgorm "gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *libgorm.DB {
	t.Helper()

	db, err := libgorm.Open(sqlite.Open("file::memory:"), &libgorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func TestTokenRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewTokenRepository(newTestDB(t))

	for _, tk := range []string{"t1", "t2", "t3"} {
		require.NoError(t, repo.Add(ctx, 1, tk))
	}
	require.NoError(t, repo.Add(ctx, 2, "u2"))

	tokens, err := repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2", "t3"}, tokens)

	ok, err := repo.Exists(ctx, 1, "t2")
	require.NoError(t, err)
	assert.True(t, ok)

	// A token is bound to the user it was issued to.
	ok, err = repo.Exists(ctx, 2, "t2")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Remove(ctx, 1, "t2"))
	tokens, err = repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t3"}, tokens)

	require.NoError(t, repo.RemoveAll(ctx, 1))
	tokens, err = repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, tokens)

	tokens, err = repo.List(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, tokens)
}
