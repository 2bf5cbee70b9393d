package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Mode)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "space_mmo", cfg.Database.Database)
	assert.Equal(t, 9090, cfg.Services.Inventory.Port)
	assert.Equal(t, 9091, cfg.Services.Item.Port)
	assert.Equal(t, 9092, cfg.Services.Player.Port)
	assert.True(t, cfg.Services.Item.Enabled)
	assert.Equal(t, 128, cfg.Services.Player.CacheSize)
	assert.Zero(t, cfg.Services.Player.IdleTimeout)
	assert.Equal(t, int64(100), cfg.Catalog.RefinedStackSize)
	assert.Equal(t, 8080, cfg.Admin.Port)
	assert.Equal(t, 5*time.Second, cfg.Launcher.Grace)
	assert.False(t, cfg.Log.Debug)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
database:
  mode: sqlite
  sqlite_path: /tmp/x.db
services:
  item:
    port: 7001
    cache_size: 16
  inventory:
    enabled: false
launcher:
  grace: 250ms
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Mode)
	assert.Equal(t, "/tmp/x.db", cfg.Database.SQLitePath)
	assert.Equal(t, 7001, cfg.Services.Item.Port)
	assert.Equal(t, 16, cfg.Services.Item.CacheSize)
	assert.False(t, cfg.Services.Inventory.Enabled)
	assert.Equal(t, 9092, cfg.Services.Player.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Launcher.Grace)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_DATABASE", "other")
	t.Setenv("SPACEMMO_SERVICES_PLAYER_PORT", "6000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 3307, cfg.Database.Port)
	assert.Equal(t, "other", cfg.Database.Database)
	assert.Equal(t, 6000, cfg.Services.Player.Port)
}

func TestServicesConfig_Get(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	for _, name := range cfg.Services.Names() {
		sc, ok := cfg.Services.Get(name)
		assert.True(t, ok, name)
		assert.NotZero(t, sc.Port, name)
	}
	_, ok := cfg.Services.Get("nope")
	assert.False(t, ok)
}
