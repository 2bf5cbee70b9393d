package inventory

import (
	"testing"

	"github.com/jasonknight/space-mmo-sub002/game/entity"
	"github.com/jasonknight/space-mmo-sub002/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func steel() *entity.Item {
	return &entity.Item{
		ID:           entity.Int64(10),
		InternalName: "steel",
		MaxStackSize: entity.Int64(100),
		ItemType:     entity.ItemRefinedMaterial,
		Attributes: map[entity.AttributeType]*entity.Attribute{
			entity.AttrVolume: {
				InternalName:  "volume",
				AttributeType: entity.AttrVolume,
				Value:         entity.DoubleValue(3.0),
			},
		},
	}
}

func newInv(maxEntries int64, maxVolume float64) *entity.Inventory {
	return &entity.Inventory{ID: entity.Int64(1), MaxEntries: maxEntries, MaxVolume: maxVolume}
}

func quantities(inv *entity.Inventory) []float64 {
	out := make([]float64, len(inv.Entries))
	for i, e := range inv.Entries {
		out[i] = e.Quantity
	}
	return out
}

func assertInvariants(t *testing.T, inv *entity.Inventory) {
	t.Helper()
	assert.LessOrEqual(t, int64(len(inv.Entries)), inv.MaxEntries)
	assert.LessOrEqual(t, inv.LastCalculatedVolume, inv.MaxVolume)
}

func TestAdd_StackSplitUnderCapacity(t *testing.T) {
	inv := newInv(5, 1000)
	r := Add(inv, steel(), 320)
	require.True(t, r.Succeeded(), r.Message)

	assert.Equal(t, []float64{100, 100, 100, 20}, quantities(inv))
	assert.Equal(t, 320.0, inv.TotalQuantity(10))
	assert.True(t, inv.Entries[0].IsMaxStacked)
	assert.True(t, inv.Entries[2].IsMaxStacked)
	assert.False(t, inv.Entries[3].IsMaxStacked)
	assert.Equal(t, 960.0, inv.LastCalculatedVolume)
	assertInvariants(t, inv)
}

func TestAdd_OverEntriesRejected(t *testing.T) {
	inv := newInv(3, 1000)
	r := Add(inv, steel(), 320)
	assert.False(t, r.Succeeded())
	assert.Equal(t, result.InventoryOpFailed, r.Code())
	assert.Equal(t, 300.0, inv.TotalQuantity(10))
	assert.Len(t, inv.Entries, 3)
	assert.Equal(t, 900.0, inv.LastCalculatedVolume)
	assertInvariants(t, inv)
}

func TestAdd_TopsUpOpenStackFirst(t *testing.T) {
	inv := newInv(2, 1000)
	require.True(t, Add(inv, steel(), 40).Succeeded())
	require.True(t, Add(inv, steel(), 70).Succeeded())
	assert.Equal(t, []float64{100, 10}, quantities(inv))
}

func TestAdd_VolumeRejected(t *testing.T) {
	inv := newInv(10, 30)
	r := Add(inv, steel(), 11)
	assert.False(t, r.Succeeded())
	assert.Empty(t, inv.Entries)
	assert.Equal(t, 0.0, inv.LastCalculatedVolume)
}

func TestAdd_NonStackableTakesOneEntryPerUnit(t *testing.T) {
	sword := &entity.Item{ID: entity.Int64(3), InternalName: "sword", ItemType: entity.ItemManufactured}
	inv := newInv(4, 100)
	require.True(t, Add(inv, sword, 3).Succeeded())
	assert.Equal(t, []float64{1, 1, 1}, quantities(inv))

	r := Add(inv, sword, 2)
	assert.False(t, r.Succeeded())
	assert.Len(t, inv.Entries, 4)
}

func TestAdd_VirtualBypassesCapacity(t *testing.T) {
	credit := &entity.Item{ID: entity.Int64(4), InternalName: "credit", ItemType: entity.ItemVirtual}
	inv := newInv(0, 0)
	assert.True(t, CanAdd(inv, credit, 1e6))
	assert.True(t, Add(inv, credit, 1e6).Succeeded())
	assert.Empty(t, inv.Entries)
	assert.Equal(t, 0.0, inv.LastCalculatedVolume)
}

func TestAdd_RejectsBadArgs(t *testing.T) {
	inv := newInv(1, 1)
	assert.Equal(t, result.InventoryOpFailed, Add(inv, steel(), 0).Code())
	assert.Equal(t, result.DBInvalidData, Add(inv, &entity.Item{}, 1).Code())
}

func TestSplitStack_EqualQuantityFails(t *testing.T) {
	inv := newInv(5, 100)
	inv.Entries = []*entity.InventoryEntry{{ItemID: 10, Quantity: 1}}
	r := SplitStack(inv, 0, 1)
	assert.False(t, r.Succeeded())
	assert.Len(t, inv.Entries, 1)
}

func TestSplitStack_LargerThanSourceFails(t *testing.T) {
	inv := newInv(5, 100)
	inv.Entries = []*entity.InventoryEntry{{ItemID: 10, Quantity: 2}}
	assert.False(t, SplitStack(inv, 0, 3).Succeeded())
	assert.Equal(t, 2.0, inv.Entries[0].Quantity)
}

func TestSplitStack_IndexAndSlotChecks(t *testing.T) {
	inv := newInv(1, 100)
	inv.Entries = []*entity.InventoryEntry{{ItemID: 10, Quantity: 5}}
	assert.False(t, SplitStack(inv, 1, 1).Succeeded())
	assert.False(t, SplitStack(inv, -1, 1).Succeeded())
	assert.False(t, SplitStack(inv, 0, 2).Succeeded(), "no free slot")
}

func TestSplitStack_Success(t *testing.T) {
	inv := newInv(3, 1000)
	require.True(t, Add(inv, steel(), 100).Succeeded())
	r := SplitStack(inv, 0, 30)
	require.True(t, r.Succeeded(), r.Message)
	assert.Equal(t, []float64{70, 30}, quantities(inv))
	assert.False(t, inv.Entries[0].IsMaxStacked)
	assert.Equal(t, int64(10), inv.Entries[1].ItemID)
	assert.Equal(t, 300.0, inv.LastCalculatedVolume)
}

func TestTransfer_MovesQuantityAndVolume(t *testing.T) {
	from := newInv(5, 1000)
	to := newInv(5, 1000)
	require.True(t, Add(from, steel(), 50).Succeeded())

	r := Transfer(from, to, steel(), 20)
	require.True(t, r.Succeeded(), r.Message)
	assert.Equal(t, 30.0, from.TotalQuantity(10))
	assert.Equal(t, 20.0, to.TotalQuantity(10))
	assert.Equal(t, 90.0, from.LastCalculatedVolume)
	assert.Equal(t, 60.0, to.LastCalculatedVolume)
}

func TestTransfer_RemovesEmptiedEntry(t *testing.T) {
	from := newInv(5, 1000)
	to := newInv(5, 1000)
	require.True(t, Add(from, steel(), 10).Succeeded())
	require.True(t, Transfer(from, to, steel(), 10).Succeeded())
	assert.Empty(t, from.Entries)
	assert.Equal(t, 0.0, from.LastCalculatedVolume)
}

func TestTransfer_FailureLeavesBothUntouched(t *testing.T) {
	from := newInv(5, 1000)
	require.True(t, Add(from, steel(), 100).Succeeded())
	to := newInv(0, 1000)

	assert.False(t, Transfer(from, to, steel(), 10).Succeeded())
	assert.Equal(t, 100.0, from.TotalQuantity(10))
	assert.Empty(t, to.Entries)

	assert.False(t, Transfer(from, newInv(5, 1000), steel(), 500).Succeeded(), "under-quantity")
	other := steel()
	other.ID = entity.Int64(77)
	assert.False(t, Transfer(from, newInv(5, 1000), other, 1).Succeeded(), "absent item")
}

func TestTransfer_PartialDestinationFillIsRestored(t *testing.T) {
	from := newInv(5, 1000)
	require.True(t, Add(from, steel(), 100).Succeeded())
	require.True(t, Add(from, steel(), 50).Succeeded())

	to := newInv(1, 1000)
	r := Transfer(from, to, steel(), 100)
	require.True(t, r.Succeeded(), r.Message)

	to = newInv(1, 1000)
	require.True(t, Add(to, steel(), 90).Succeeded())
	before := to.Clone()
	r = Transfer(from, to, steel(), 50)
	assert.False(t, r.Succeeded())
	assert.Equal(t, before, to)
	assert.Equal(t, 50.0, from.TotalQuantity(10))
}

func TestTransferToFirstAvailable(t *testing.T) {
	from := newInv(5, 1000)
	require.True(t, Add(from, steel(), 10).Succeeded())

	candidates := []*entity.Inventory{
		newInv(0, 1000),
		newInv(5, 0),
		newInv(5, 1000),
	}
	r, idx := TransferToFirstAvailable(from, candidates, steel(), 10)
	require.True(t, r.Succeeded(), r.Message)
	assert.Equal(t, 2, idx)
	assert.Equal(t, 10.0, candidates[2].TotalQuantity(10))
	assert.Empty(t, candidates[0].Entries)
	assert.Empty(t, candidates[1].Entries)
	assert.Empty(t, from.Entries)
	for _, c := range candidates {
		assertInvariants(t, c)
	}
}

func TestTransferToFirstAvailable_AllFail(t *testing.T) {
	from := newInv(5, 1000)
	require.True(t, Add(from, steel(), 10).Succeeded())
	r, idx := TransferToFirstAvailable(from, []*entity.Inventory{newInv(0, 0), nil}, steel(), 10)
	assert.False(t, r.Succeeded())
	assert.Equal(t, -1, idx)
	assert.Equal(t, 10.0, from.TotalQuantity(10))
}

func TestInvariantsHoldAcrossSequence(t *testing.T) {
	a := newInv(4, 500)
	b := newInv(2, 200)
	item := steel()
	ops := []func(){
		func() { Add(a, item, 120) },
		func() { SplitStack(a, 0, 40) },
		func() { Transfer(a, b, item, 60) },
		func() { Add(b, item, 500) },
		func() { Add(a, item, 90) },
		func() { SplitStack(b, 0, 10) },
		func() { Transfer(b, a, item, 10) },
	}
	for _, op := range ops {
		op()
		assertInvariants(t, a)
		assertInvariants(t, b)
	}
}
