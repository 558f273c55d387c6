package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storepages/app/internal/cms"
	"storepages/app/internal/config"
	applog "storepages/app/internal/log"
)

func TestBuildWiresSQLiteStack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	result, err := Build(ctx, Dependencies{
		Config: config.Config{
			DBDriver: config.DriverSQLite,
			DBPath:   filepath.Join(t.TempDir(), "bootstrap.db"),
			CacheTTL: time.Minute,
		},
		Logger: applog.Discard(),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, result.Cleanup())
	})

	store, err := result.Stores.Resolve(ctx, cms.DefaultStoreID)
	require.NoError(t, err)
	assert.Equal(t, "admin", store.Code)

	page := &cms.Page{Identifier: "home", Title: "Home", IsActive: true}
	require.NoError(t, result.Pages.Save(ctx, page))

	id, found, err := result.Pages.CheckIdentifier(ctx, "home", 3)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, page.ID, id)
}

func TestBuildIsRepeatable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := config.Config{DBDriver: config.DriverSQLite, DBPath: filepath.Join(t.TempDir(), "again.db")}

	for i := 0; i < 2; i++ {
		result, err := Build(ctx, Dependencies{Config: cfg, Logger: applog.Discard()})
		require.NoError(t, err)
		require.NoError(t, result.Cleanup())
	}
}

func TestBuildFailsWithoutPath(t *testing.T) {
	t.Parallel()

	_, err := Build(context.Background(), Dependencies{Config: config.Config{DBDriver: config.DriverSQLite}})
	require.Error(t, err)
}
