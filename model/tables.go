package model

import (
	"fmt"

	"github.com/jasonknight/space-mmo-sub002/game/entity"
)

// Table names.
const (
	TablePlayers                       = "players"
	TableMobiles                       = "mobiles"
	TableAttributes                    = "attributes"
	TableAttributeOwners               = "attribute_owners"
	TableItems                         = "items"
	TableItemBlueprints                = "item_blueprints"
	TableItemBlueprintComponents       = "item_blueprint_components"
	TableMobileItems                   = "mobile_items"
	TableMobileItemBlueprints          = "mobile_item_blueprints"
	TableMobileItemBlueprintComponents = "mobile_item_blueprint_components"
	TableMobileItemAttributes          = "mobile_item_attributes"
	TableMobileItemAttributeOwners     = "mobile_item_attribute_owners"
	TableInventories                   = "inventories"
	TableInventoryEntries              = "inventory_entries"
	TableInventoryOwners               = "inventory_owners"
)

// AttributeTables names an attribute table and its owner table.
type AttributeTables struct {
	Attributes string
	Owners     string
}

// DefaultAttributeTables serves mobiles, catalog items and free attributes.
var DefaultAttributeTables = AttributeTables{
	Attributes: TableAttributes,
	Owners:     TableAttributeOwners,
}

// TableSet names the physical tables of one item namespace.
type TableSet struct {
	Backing    entity.BackingTable
	Items      string
	Blueprints string
	Components string
	Attributes AttributeTables
}

var (
	// ItemTables is the global catalog namespace.
	ItemTables = TableSet{
		Backing:    entity.BackingItems,
		Items:      TableItems,
		Blueprints: TableItemBlueprints,
		Components: TableItemBlueprintComponents,
		Attributes: DefaultAttributeTables,
	}

	// MobileItemTables holds items living inside a mobile's inventory.
	MobileItemTables = TableSet{
		Backing:    entity.BackingMobileItems,
		Items:      TableMobileItems,
		Blueprints: TableMobileItemBlueprints,
		Components: TableMobileItemBlueprintComponents,
		Attributes: AttributeTables{
			Attributes: TableMobileItemAttributes,
			Owners:     TableMobileItemAttributeOwners,
		},
	}
)

// TablesFor maps a backing table tag to its TableSet.
func TablesFor(b entity.BackingTable) (TableSet, error) {
	switch b {
	case entity.BackingItems:
		return ItemTables, nil
	case entity.BackingMobileItems:
		return MobileItemTables, nil
	default:
		return TableSet{}, fmt.Errorf("model: unknown backing table %q", b)
	}
}

type tableDef struct {
	name string
	row  interface{}
}

// tableDefs lists every table in creation order: parents before children.
func tableDefs() []tableDef {
	return []tableDef{
		{TablePlayers, &PlayerRow{}},
		{TableMobiles, &MobileRow{}},
		{TableAttributes, &AttributeRow{}},
		{TableAttributeOwners, &AttributeOwnerRow{}},
		{TableItemBlueprints, &BlueprintRow{}},
		{TableItems, &ItemRow{}},
		{TableItemBlueprintComponents, &BlueprintComponentRow{}},
		{TableMobileItemBlueprints, &BlueprintRow{}},
		{TableMobileItems, &ItemRow{}},
		{TableMobileItemBlueprintComponents, &BlueprintComponentRow{}},
		{TableMobileItemAttributes, &AttributeRow{}},
		{TableMobileItemAttributeOwners, &AttributeOwnerRow{}},
		{TableInventories, &InventoryRow{}},
		{TableInventoryEntries, &InventoryEntryRow{}},
		{TableInventoryOwners, &InventoryOwnerRow{}},
	}
}

// TableNames lists every table in creation order.
func TableNames() []string {
	defs := tableDefs()
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.name
	}
	return out
}
