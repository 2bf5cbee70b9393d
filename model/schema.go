package model

import "fmt"

// CreateDatabase returns the statement creating the database itself.
func CreateDatabase(database string) string {
	return fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci", database)
}

// Schema returns every CREATE TABLE IF NOT EXISTS statement for database, in
// dependency order. It is the single source of truth for the MySQL layout.
func Schema(database string) []string {
	q := func(table string) string { return fmt.Sprintf("`%s`.`%s`", database, table) }
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id BIGINT NOT NULL AUTO_INCREMENT,
    full_name VARCHAR(255) NOT NULL,
    what_we_call_you VARCHAR(255) NOT NULL,
    security_token VARCHAR(255) NOT NULL,
    over_13 BOOLEAN NOT NULL,
    year_of_birth BIGINT NOT NULL,
    email VARCHAR(255) NOT NULL,
    PRIMARY KEY (id)
) ENGINE=InnoDB`, q(TablePlayers)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id BIGINT NOT NULL AUTO_INCREMENT,
    mobile_type VARCHAR(50) NOT NULL,
    what_we_call_you VARCHAR(255) NOT NULL,
    owner_player_id BIGINT NULL,
    owner_mobile_id BIGINT NULL,
    owner_item_id BIGINT NULL,
    owner_asset_id BIGINT NULL,
    PRIMARY KEY (id),
    INDEX idx_mobiles_owner_player (owner_player_id),
    FOREIGN KEY (owner_player_id) REFERENCES %s(id)
) ENGINE=InnoDB`, q(TableMobiles), q(TablePlayers)),
	}

	stmts = append(stmts, attributeSchema(q, DefaultAttributeTables)...)
	stmts = append(stmts, itemGraphSchema(q, ItemTables)...)
	stmts = append(stmts, itemGraphSchema(q, MobileItemTables)...)
	stmts = append(stmts, attributeSchema(q, MobileItemTables.Attributes)...)

	stmts = append(stmts,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id BIGINT NOT NULL AUTO_INCREMENT,
    max_entries BIGINT NOT NULL,
    max_volume DOUBLE NOT NULL,
    last_calculated_volume DOUBLE NOT NULL,
    PRIMARY KEY (id)
) ENGINE=InnoDB`, q(TableInventories)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id BIGINT NOT NULL AUTO_INCREMENT,
    inventory_id BIGINT NOT NULL,
    item_id BIGINT NOT NULL,
    quantity DOUBLE NOT NULL,
    is_max_stacked BOOLEAN NOT NULL,
    mobile_item_id BIGINT NULL,
    PRIMARY KEY (id),
    INDEX idx_inventory_entries_inventory (inventory_id),
    FOREIGN KEY (inventory_id) REFERENCES %s(id)
) ENGINE=InnoDB`, q(TableInventoryEntries), q(TableInventories)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id BIGINT NOT NULL AUTO_INCREMENT,
    inventory_id BIGINT NOT NULL,
    player_id BIGINT NULL,
    mobile_id BIGINT NULL,
    item_id BIGINT NULL,
    asset_id BIGINT NULL,
    PRIMARY KEY (id),
    INDEX idx_inventory_owners_inventory (inventory_id),
    FOREIGN KEY (inventory_id) REFERENCES %s(id)
) ENGINE=InnoDB`, q(TableInventoryOwners), q(TableInventories)),
	)
	return stmts
}

func attributeSchema(q func(string) string, t AttributeTables) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id BIGINT NOT NULL AUTO_INCREMENT,
    internal_name VARCHAR(255) NOT NULL,
    visible BOOLEAN NOT NULL,
    attribute_type VARCHAR(50) NOT NULL,
    bool_value BOOLEAN NULL,
    double_value DOUBLE NULL,
    vector3_x DOUBLE NULL,
    vector3_y DOUBLE NULL,
    vector3_z DOUBLE NULL,
    asset_id BIGINT NULL,
    PRIMARY KEY (id)
) ENGINE=InnoDB`, q(t.Attributes)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id BIGINT NOT NULL AUTO_INCREMENT,
    attribute_id BIGINT NOT NULL,
    player_id BIGINT NULL,
    mobile_id BIGINT NULL,
    item_id BIGINT NULL,
    asset_id BIGINT NULL,
    PRIMARY KEY (id),
    INDEX idx_%s_attribute (attribute_id),
    INDEX idx_%s_mobile (mobile_id),
    INDEX idx_%s_item (item_id),
    FOREIGN KEY (attribute_id) REFERENCES %s(id)
) ENGINE=InnoDB`, q(t.Owners), t.Owners, t.Owners, t.Owners, q(t.Attributes)),
	}
}

func itemGraphSchema(q func(string) string, t TableSet) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id BIGINT NOT NULL AUTO_INCREMENT,
    bake_time_ms BIGINT NOT NULL,
    PRIMARY KEY (id)
) ENGINE=InnoDB`, q(t.Blueprints)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id BIGINT NOT NULL AUTO_INCREMENT,
    internal_name VARCHAR(255) NOT NULL,
    max_stack_size BIGINT NULL,
    item_type VARCHAR(50) NOT NULL,
    blueprint_id BIGINT NULL,
    PRIMARY KEY (id),
    FOREIGN KEY (blueprint_id) REFERENCES %s(id)
) ENGINE=InnoDB`, q(t.Items), q(t.Blueprints)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id BIGINT NOT NULL AUTO_INCREMENT,
    item_blueprint_id BIGINT NOT NULL,
    component_item_id BIGINT NOT NULL,
    ratio DOUBLE NOT NULL,
    PRIMARY KEY (id),
    INDEX idx_%s_blueprint (item_blueprint_id),
    FOREIGN KEY (item_blueprint_id) REFERENCES %s(id)
) ENGINE=InnoDB`, q(t.Components), t.Components, q(t.Blueprints)),
	}
}
