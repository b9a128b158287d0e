package database

import (
	"context"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gau-id-api/internal/models"
)

func TestConnectSQLiteAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idview.db")
	db, err := Connect("sqlite://"+path, false)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	require.True(t, db.Migrator().HasTable(&models.Application{}))
	require.True(t, db.Migrator().HasTable(&models.AdminActivity{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func TestConnectRejectsEmptyDSN(t *testing.T) {
	_, err := Connect("", false)
	require.Error(t, err)
}

func TestConnectRedis(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	ctx := context.Background()
	client, err := ConnectRedis(ctx, "redis://"+server.Addr(), "")
	require.NoError(t, err)
	require.NoError(t, client.Set(ctx, "probe", "1", 0).Err())
	server.CheckGet(t, "probe", "1")
	require.NoError(t, client.Close())

	_, err = ConnectRedis(ctx, "", "")
	require.ErrorIs(t, err, ErrRedisURLMissing)

	_, err = ConnectRedis(ctx, "://bad", "")
	require.Error(t, err)
}
