package main

import (
	"context"
	"path/filepath"
	"testing"

	appdb "storepages/app/internal/db"
)

func TestRunAppliesSchemaAndSeedsDefaultStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", path)
	t.Setenv("DB_DSN", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("SENTRY_DSN", "")
	t.Setenv("LOG_LEVEL", "error")

	for i := 0; i < 2; i++ {
		if err := run(context.Background()); err != nil {
			t.Fatalf("run returned error on pass %d: %v", i+1, err)
		}
	}

	db, err := appdb.Open(appdb.Options{Path: path})
	if err != nil {
		t.Fatalf("opening migrated database: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := appdb.Close(db); closeErr != nil {
			t.Errorf("closing database failed: %v", closeErr)
		}
	})

	var stores int64
	if err := db.Table("cms_store").Count(&stores).Error; err != nil {
		t.Fatalf("counting stores: %v", err)
	}
	if stores != 1 {
		t.Fatalf("expected exactly the default store, got %d rows", stores)
	}
}
