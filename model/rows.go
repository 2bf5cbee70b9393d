package model

// Row structs mirror the tables in schema.go column for column. The item
// graph rows are reused for the mobile_* tables through TableSet, so they
// carry no index tags; indexes for those live in the DDL only.

// PlayerRow is a row of players.
type PlayerRow struct {
	ID            int64  `gorm:"column:id;primaryKey;autoIncrement"`
	FullName      string `gorm:"column:full_name;size:255;not null"`
	WhatWeCallYou string `gorm:"column:what_we_call_you;size:255;not null"`
	SecurityToken string `gorm:"column:security_token;size:255;not null"`
	Over13        bool   `gorm:"column:over_13;not null"`
	YearOfBirth   int64  `gorm:"column:year_of_birth;not null"`
	Email         string `gorm:"column:email;size:255;not null"`
}

func (PlayerRow) TableName() string { return TablePlayers }

// MobileRow is a row of mobiles. The owner link is four nullable columns.
type MobileRow struct {
	ID            int64  `gorm:"column:id;primaryKey;autoIncrement"`
	MobileType    string `gorm:"column:mobile_type;size:50;not null"`
	WhatWeCallYou string `gorm:"column:what_we_call_you;size:255;not null"`
	OwnerPlayerID *int64 `gorm:"column:owner_player_id;index"`
	OwnerMobileID *int64 `gorm:"column:owner_mobile_id"`
	OwnerItemID   *int64 `gorm:"column:owner_item_id"`
	OwnerAssetID  *int64 `gorm:"column:owner_asset_id"`
}

func (MobileRow) TableName() string { return TableMobiles }

// AttributeRow is a row of attributes or mobile_item_attributes. Exactly one
// value column group is non-null.
type AttributeRow struct {
	ID            int64    `gorm:"column:id;primaryKey;autoIncrement"`
	InternalName  string   `gorm:"column:internal_name;size:255;not null"`
	Visible       bool     `gorm:"column:visible;not null"`
	AttributeType string   `gorm:"column:attribute_type;size:50;not null"`
	BoolValue     *bool    `gorm:"column:bool_value"`
	DoubleValue   *float64 `gorm:"column:double_value"`
	Vector3X      *float64 `gorm:"column:vector3_x"`
	Vector3Y      *float64 `gorm:"column:vector3_y"`
	Vector3Z      *float64 `gorm:"column:vector3_z"`
	AssetID       *int64   `gorm:"column:asset_id"`
}

// AttributeOwnerRow links an attribute to its owner.
type AttributeOwnerRow struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	AttributeID int64  `gorm:"column:attribute_id;not null"`
	PlayerID    *int64 `gorm:"column:player_id"`
	MobileID    *int64 `gorm:"column:mobile_id"`
	ItemID      *int64 `gorm:"column:item_id"`
	AssetID     *int64 `gorm:"column:asset_id"`
}

// ItemRow is a row of items or mobile_items.
type ItemRow struct {
	ID           int64  `gorm:"column:id;primaryKey;autoIncrement"`
	InternalName string `gorm:"column:internal_name;size:255;not null"`
	MaxStackSize *int64 `gorm:"column:max_stack_size"`
	ItemType     string `gorm:"column:item_type;size:50;not null"`
	BlueprintID  *int64 `gorm:"column:blueprint_id"`
}

// BlueprintRow is a row of item_blueprints or mobile_item_blueprints.
type BlueprintRow struct {
	ID         int64 `gorm:"column:id;primaryKey;autoIncrement"`
	BakeTimeMs int64 `gorm:"column:bake_time_ms;not null"`
}

// BlueprintComponentRow is one ingredient of a blueprint.
type BlueprintComponentRow struct {
	ID              int64   `gorm:"column:id;primaryKey;autoIncrement"`
	ItemBlueprintID int64   `gorm:"column:item_blueprint_id;not null"`
	ComponentItemID int64   `gorm:"column:component_item_id;not null"`
	Ratio           float64 `gorm:"column:ratio;not null"`
}

// InventoryRow is a row of inventories.
type InventoryRow struct {
	ID                   int64   `gorm:"column:id;primaryKey;autoIncrement"`
	MaxEntries           int64   `gorm:"column:max_entries;not null"`
	MaxVolume            float64 `gorm:"column:max_volume;not null"`
	LastCalculatedVolume float64 `gorm:"column:last_calculated_volume;not null"`
}

func (InventoryRow) TableName() string { return TableInventories }

// InventoryEntryRow is one slot of an inventory.
type InventoryEntryRow struct {
	ID           int64   `gorm:"column:id;primaryKey;autoIncrement"`
	InventoryID  int64   `gorm:"column:inventory_id;not null;index"`
	ItemID       int64   `gorm:"column:item_id;not null"`
	Quantity     float64 `gorm:"column:quantity;not null"`
	IsMaxStacked bool    `gorm:"column:is_max_stacked;not null"`
	MobileItemID *int64  `gorm:"column:mobile_item_id"`
}

func (InventoryEntryRow) TableName() string { return TableInventoryEntries }

// InventoryOwnerRow links an inventory to its owner.
type InventoryOwnerRow struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	InventoryID int64  `gorm:"column:inventory_id;not null;index"`
	PlayerID    *int64 `gorm:"column:player_id"`
	MobileID    *int64 `gorm:"column:mobile_id"`
	ItemID      *int64 `gorm:"column:item_id"`
	AssetID     *int64 `gorm:"column:asset_id"`
}

func (InventoryOwnerRow) TableName() string { return TableInventoryOwners }
