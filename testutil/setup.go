package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jasonknight/space-mmo-sub002/cache"
	"github.com/jasonknight/space-mmo-sub002/config"
	dbadapter "github.com/jasonknight/space-mmo-sub002/db"
	"github.com/jasonknight/space-mmo-sub002/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// TestDatabase is the database name used in tests.
const TestDatabase = "space_mmo_test"

// SetupTestDB creates a private in-memory SQLite DB and migrates it.
// It requires no external services and is safe to use in parallel tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode:       dbadapter.ModeSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.Migrate(db, TestDatabase), "SetupTestDB: Migrate")
	t.Cleanup(func() { _ = dbadapter.Close(db) })
	return db
}

// SetupTestPubSub creates an in-process PubSub (no Redis required).
func SetupTestPubSub(t *testing.T) cache.PubSub {
	t.Helper()
	ps, err := cache.NewPubSub(cache.Config{})
	require.NoError(t, err, "SetupTestPubSub: NewPubSub")
	return ps
}
