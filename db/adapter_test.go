package db

import (
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jasonknight/space-mmo-sub002/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host: "db", Port: 3306, User: "u", Password: "p", Database: "space_mmo",
	}

	parsed, err := mysql.ParseDSN(DSN(cfg, true))
	require.NoError(t, err)
	assert.Equal(t, "u", parsed.User)
	assert.Equal(t, "p", parsed.Passwd)
	assert.Equal(t, "db:3306", parsed.Addr)
	assert.Equal(t, "space_mmo", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, time.UTC, parsed.Loc)
	assert.Equal(t, "utf8mb4", parsed.Params["charset"])

	server, err := mysql.ParseDSN(DSN(cfg, false))
	require.NoError(t, err)
	assert.Empty(t, server.DBName)
	assert.Equal(t, "db:3306", server.Addr)
}

func TestOpen_UnknownMode(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Mode: "oracle"})
	assert.Error(t, err)
}

func TestOpen_SQLite(t *testing.T) {
	gdb, err := Open(config.DatabaseConfig{Mode: ModeSQLite, SQLitePath: "file::memory:"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", gdb.Dialector.Name())
	require.NoError(t, gdb.Exec("SELECT 1").Error)
	assert.NoError(t, Close(gdb))
}

func TestOpenServer_SQLiteFallsBackToOpen(t *testing.T) {
	gdb, err := OpenServer(config.DatabaseConfig{Mode: ModeSQLite, SQLitePath: "file::memory:"})
	require.NoError(t, err)
	assert.NoError(t, Close(gdb))
}
