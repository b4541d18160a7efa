package cmd_test

import (
	"context"
	"testing"
	"time"

	"github.com/angelospk/tmdb-go/pkg/core/cache"
	"github.com/angelospk/tmdb-go/pkg/core/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachePurgeCommand(t *testing.T) {
	dsn := testEnv(t, new(MockClient))

	db, err := store.Open(store.Config{Driver: store.DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	ctx := context.Background()
	entries := cache.NewGormStore(db)
	entries.SetClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	require.NoError(t, entries.Set(ctx, "tmdb_expired", []byte(`{}`), time.Hour))
	entries.SetClock(time.Now)
	require.NoError(t, entries.Set(ctx, "tmdb_fresh", []byte(`{}`), time.Hour))

	output, err := executeCommand(t, "", "cache", "purge")
	require.NoError(t, err)
	assert.Equal(t, "Removed 1 cache entries.\n", output)

	_, ok, err := entries.Get(ctx, "tmdb_fresh")
	require.NoError(t, err)
	assert.True(t, ok, "unexpired entries survive a purge")

	output, err = executeCommand(t, "", "cache", "purge", "--all")
	require.NoError(t, err)
	assert.Equal(t, "Removed 1 cache entries.\n", output)

	_, ok, err = entries.Get(ctx, "tmdb_fresh")
	require.NoError(t, err)
	assert.False(t, ok)
}
