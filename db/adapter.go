package db

import (
	"fmt"

	"github.com/jasonknight/space-mmo-sub002/config"
	dbmysql "github.com/jasonknight/space-mmo-sub002/db/mysql"
	dbsqlite "github.com/jasonknight/space-mmo-sub002/db/sqlite"
	"gorm.io/gorm"
)

const (
	ModeSQLite = "sqlite"
	ModeMySQL  = "mysql"
)

// Open returns a *gorm.DB for the configured database mode.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Mode {
	case ModeSQLite:
		return dbsqlite.Open(cfg.SQLitePath)
	case ModeMySQL:
		return dbmysql.Open(DSN(cfg, true), dbmysql.Pool{
			MaxOpen: cfg.MaxOpen,
			MaxIdle: cfg.MaxIdle,
			MaxLife: cfg.MaxLife,
		})
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}

// OpenServer connects without selecting a database, for bootstrap. SQLite has
// no server level so it is the same as Open.
func OpenServer(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.Mode != ModeMySQL {
		return Open(cfg)
	}
	return dbmysql.Open(DSN(cfg, false), dbmysql.Pool{MaxOpen: 1, MaxIdle: 1, MaxLife: cfg.MaxLife})
}

// DSN builds the MySQL data source name. withDB selects cfg.Database.
func DSN(cfg config.DatabaseConfig, withDB bool) string {
	name := ""
	if withDB {
		name = cfg.Database
	}
	return dbmysql.DSN(cfg.User, cfg.Password, cfg.Host, cfg.Port, name)
}

// Close releases the pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
