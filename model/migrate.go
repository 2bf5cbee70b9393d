package model

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate creates every table in db. MySQL runs the DDL from Schema; other
// dialects (sqlite in tests and local runs) auto-migrate the row structs
// into the same table names.
func Migrate(db *gorm.DB, database string) error {
	if db.Dialector.Name() == "mysql" {
		for _, stmt := range Schema(database) {
			if err := db.Exec(stmt).Error; err != nil {
				return fmt.Errorf("model: migrate: %w", err)
			}
		}
		return nil
	}
	for _, d := range tableDefs() {
		if err := db.Table(d.name).AutoMigrate(d.row); err != nil {
			return fmt.Errorf("model: migrate %s: %w", d.name, err)
		}
	}
	return nil
}
