package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTags(t *testing.T) {
	it, err := ParseItemType("VIRTUAL")
	require.NoError(t, err)
	assert.Equal(t, ItemVirtual, it)

	_, err = ParseItemType("virtual")
	assert.Error(t, err)

	at, err := ParseAttributeType("LOCAL_POSITION")
	require.NoError(t, err)
	assert.Equal(t, AttrLocalPosition, at)

	_, err = ParseMobileType("DRAGON")
	assert.Error(t, err)

	bt, err := ParseBackingTable("MOBILE_ITEMS")
	require.NoError(t, err)
	assert.Equal(t, BackingMobileItems, bt)

	assert.Contains(t, AttributeTypeValues(), "PURITY")
	assert.Len(t, OwnerKindValues(), 4)
}

func TestAttributeValue_Validate(t *testing.T) {
	assert.NoError(t, BoolValue(true).Validate())
	assert.NoError(t, DoubleValue(1.5).Validate())
	assert.NoError(t, Vector3Value(1, 2, 3).Validate())
	assert.NoError(t, AssetIDValue(9).Validate())
	assert.Error(t, AttributeValue{}.Validate())

	both := DoubleValue(1)
	b := true
	both.Bool = &b
	assert.Error(t, both.Validate())
}

func TestAttributeValue_Kind(t *testing.T) {
	assert.Equal(t, ValueVector3, Vector3Value(0, 0, 0).Kind())
	assert.Equal(t, ValueAssetID, AssetIDValue(1).Kind())
	assert.Equal(t, ValueNone, AttributeValue{}.Kind())
}

func TestOwner(t *testing.T) {
	o := MobileOwner(4)
	assert.Equal(t, OwnerMobile, o.Kind())
	id, ok := o.ID()
	assert.True(t, ok)
	assert.Equal(t, int64(4), id)
	assert.NoError(t, o.Validate())

	assert.True(t, Owner{}.IsNone())

	bad := PlayerOwner(1)
	bad.ItemID = Int64(2)
	assert.Error(t, bad.Validate())
}

func TestOver13(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.False(t, Over13(2016, now))
	assert.True(t, Over13(2013, now))
	assert.True(t, Over13(1958, now))
}

func TestItemClone_IsDeep(t *testing.T) {
	it := &Item{
		ID:           Int64(1),
		InternalName: "steel",
		MaxStackSize: Int64(100),
		ItemType:     ItemRefinedMaterial,
		Attributes: map[AttributeType]*Attribute{
			AttrVolume: {AttributeType: AttrVolume, InternalName: "volume", Value: DoubleValue(3)},
		},
		Blueprint: &ItemBlueprint{
			BakeTimeMs: 3000,
			Components: map[int64]*ItemBlueprintComponent{2: {ItemID: 2, Ratio: 0.9}},
		},
	}
	c := it.Clone()
	*c.ID = 99
	*c.MaxStackSize = 1
	*c.Attributes[AttrVolume].Value.Double = 8
	c.Blueprint.Components[2].Ratio = 0.1

	assert.Equal(t, int64(1), *it.ID)
	assert.Equal(t, int64(100), *it.MaxStackSize)
	assert.Equal(t, 3.0, it.Volume())
	assert.Equal(t, 0.9, it.Blueprint.Components[2].Ratio)
}

func TestItemValidate(t *testing.T) {
	it := &Item{InternalName: "ore", ItemType: ItemRawMaterial}
	assert.NoError(t, it.Validate())

	it.Attributes = map[AttributeType]*Attribute{
		AttrPurity: {AttributeType: AttrVolume, Value: DoubleValue(1)},
	}
	assert.Error(t, it.Validate())

	it.Attributes = nil
	it.Blueprint = &ItemBlueprint{Components: map[int64]*ItemBlueprintComponent{1: {ItemID: 2}}}
	assert.Error(t, it.Validate())
}

func TestInventoryValidateAndClone(t *testing.T) {
	inv := &Inventory{MaxEntries: 1, MaxVolume: 10, Entries: []*InventoryEntry{{ItemID: 1, Quantity: 2}}}
	assert.NoError(t, inv.Validate())

	c := inv.Clone()
	c.Entries[0].Quantity = 50
	c.Entries = append(c.Entries, &InventoryEntry{ItemID: 2})
	assert.Equal(t, 2.0, inv.Entries[0].Quantity)
	assert.Len(t, inv.Entries, 1)
	assert.Error(t, c.Validate())

	inv.LastCalculatedVolume = 11
	assert.Error(t, inv.Validate())
}

func TestItemVolumeDefaultsToZero(t *testing.T) {
	assert.Equal(t, 0.0, (&Item{}).Volume())
	it := &Item{Attributes: map[AttributeType]*Attribute{AttrVolume: {Value: BoolValue(true)}}}
	assert.Equal(t, 0.0, it.Volume())
}
