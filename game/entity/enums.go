package entity

import "fmt"

// ItemType classifies items in the catalog.
type ItemType string

const (
	ItemRawMaterial     ItemType = "RAWMATERIAL"
	ItemRefinedMaterial ItemType = "REFINEDMATERIAL"
	ItemManufactured    ItemType = "MANUFACTURED"
	ItemContainer       ItemType = "CONTAINER"
	ItemVirtual         ItemType = "VIRTUAL"
)

// MobileType classifies mobiles.
type MobileType string

const (
	MobilePlayer  MobileType = "PLAYER"
	MobileNPC     MobileType = "NPC"
	MobileMonster MobileType = "MONSTER"
)

// AttributeType is the closed catalog of attribute keys.
type AttributeType string

const (
	AttrTranslatedName        AttributeType = "TRANSLATED_NAME"
	AttrTranslatedDescription AttributeType = "TRANSLATED_DESCRIPTION"
	AttrQuantity              AttributeType = "QUANTITY"
	AttrVolume                AttributeType = "VOLUME"
	AttrWeight                AttributeType = "WEIGHT"
	AttrPurity                AttributeType = "PURITY"
	AttrStrength              AttributeType = "STRENGTH"
	AttrLuck                  AttributeType = "LUCK"
	AttrConstitution          AttributeType = "CONSTITUTION"
	AttrDexterity             AttributeType = "DEXTERITY"
	AttrArcana                AttributeType = "ARCANA"
	AttrOperations            AttributeType = "OPERATIONS"
	AttrLocalPosition         AttributeType = "LOCAL_POSITION"
)

// OwnerKind names the arm of an Owner link.
type OwnerKind string

const (
	OwnerNone   OwnerKind = ""
	OwnerPlayer OwnerKind = "PLAYER"
	OwnerMobile OwnerKind = "MOBILE"
	OwnerItem   OwnerKind = "ITEM"
	OwnerAsset  OwnerKind = "ASSET"
)

// BackingTable selects the physical namespace an item graph lives in.
type BackingTable string

const (
	BackingItems       BackingTable = "ITEMS"
	BackingMobileItems BackingTable = "MOBILE_ITEMS"
)

// The tag tables below are shared by readers and writers; the declaration
// order is the order reported by Values().
var (
	itemTypes = []ItemType{
		ItemRawMaterial, ItemRefinedMaterial, ItemManufactured, ItemContainer, ItemVirtual,
	}
	mobileTypes = []MobileType{MobilePlayer, MobileNPC, MobileMonster}

	attributeTypes = []AttributeType{
		AttrTranslatedName, AttrTranslatedDescription, AttrQuantity, AttrVolume, AttrWeight,
		AttrPurity, AttrStrength, AttrLuck, AttrConstitution, AttrDexterity, AttrArcana,
		AttrOperations, AttrLocalPosition,
	}

	ownerKinds    = []OwnerKind{OwnerPlayer, OwnerMobile, OwnerItem, OwnerAsset}
	backingTables = []BackingTable{BackingItems, BackingMobileItems}
)

func parseTag[T ~string](kind, s string, table []T) (T, error) {
	for _, v := range table {
		if string(v) == s {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown %s tag %q", kind, s)
}

func tagStrings[T ~string](table []T) []string {
	out := make([]string, len(table))
	for i, v := range table {
		out[i] = string(v)
	}
	return out
}

// ParseItemType maps a stored tag back to an ItemType.
func ParseItemType(s string) (ItemType, error) { return parseTag("item_type", s, itemTypes) }

// ParseMobileType maps a stored tag back to a MobileType.
func ParseMobileType(s string) (MobileType, error) { return parseTag("mobile_type", s, mobileTypes) }

// ParseAttributeType maps a stored tag back to an AttributeType.
func ParseAttributeType(s string) (AttributeType, error) {
	return parseTag("attribute_type", s, attributeTypes)
}

// ParseOwnerKind maps a stored tag back to an OwnerKind.
func ParseOwnerKind(s string) (OwnerKind, error) { return parseTag("owner_kind", s, ownerKinds) }

// ParseBackingTable maps a stored tag back to a BackingTable.
func ParseBackingTable(s string) (BackingTable, error) {
	return parseTag("backing_table", s, backingTables)
}

// ItemTypeValues lists every item type tag.
func ItemTypeValues() []string { return tagStrings(itemTypes) }

// MobileTypeValues lists every mobile type tag.
func MobileTypeValues() []string { return tagStrings(mobileTypes) }

// AttributeTypeValues lists every attribute type tag.
func AttributeTypeValues() []string { return tagStrings(attributeTypes) }

// OwnerKindValues lists every owner kind tag.
func OwnerKindValues() []string { return tagStrings(ownerKinds) }

// BackingTableValues lists every backing table tag.
func BackingTableValues() []string { return tagStrings(backingTables) }
