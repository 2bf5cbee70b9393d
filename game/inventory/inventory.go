// Package inventory implements the in-memory inventory mutations: add,
// split, transfer and first-available transfer. Nothing here touches the
// database; callers persist the mutated inventories afterwards.
package inventory

import (
	"math"
	"strings"

	"github.com/jasonknight/space-mmo-sub002/game/entity"
	"github.com/jasonknight/space-mmo-sub002/result"
)

// CanAdd reports whether q units of item fit into inv by entry count and
// volume. A stack below max_stack_size lets the add start without a free slot.
func CanAdd(inv *entity.Inventory, item *entity.Item, q float64) bool {
	if item.IsVirtual() {
		return true
	}
	added := q * item.Volume()
	room := item.IsStackable() && openStack(inv, *item.ID) != nil
	if !room && int64(len(inv.Entries)) >= inv.MaxEntries {
		return false
	}
	return inv.LastCalculatedVolume+added <= inv.MaxVolume
}

// Add places q units of item into inv. Stackable items top up the first
// open stack and then open new entries; other items take one entry per unit.
// When the entry limit is hit mid-fill the placed units stay in the
// inventory and the result is a FAILURE naming the shortfall.
func Add(inv *entity.Inventory, item *entity.Item, q float64) result.Result {
	if r, ok := checkArgs(inv, item, q); !ok {
		return r
	}
	if !CanAdd(inv, item, q) {
		return result.Failf(result.InventoryOpFailed,
			"inventory cannot hold %g of %q", q, item.InternalName)
	}
	if item.IsVirtual() {
		return result.OKf("virtual item %q accepted", item.InternalName)
	}

	var remaining float64
	if item.IsStackable() {
		remaining = fillStacks(inv, *item.ID, float64(*item.MaxStackSize), q)
	} else {
		remaining = fillSingles(inv, *item.ID, q)
	}
	placed := q - remaining
	inv.LastCalculatedVolume += placed * item.Volume()

	if remaining > 0 {
		return result.Failf(result.InventoryOpFailed,
			"out of entries: placed %g of %g %q", placed, q, item.InternalName)
	}
	return result.OKf("added %g %q", q, item.InternalName)
}

func fillStacks(inv *entity.Inventory, itemID int64, max, q float64) float64 {
	remaining := q
	for remaining > 0 {
		e := openStack(inv, itemID)
		if e == nil {
			if int64(len(inv.Entries)) >= inv.MaxEntries {
				break
			}
			e = &entity.InventoryEntry{ItemID: itemID}
			inv.Entries = append(inv.Entries, e)
		}
		n := math.Min(max-e.Quantity, remaining)
		e.Quantity += n
		e.IsMaxStacked = e.Quantity >= max
		remaining -= n
	}
	return remaining
}

func fillSingles(inv *entity.Inventory, itemID int64, q float64) float64 {
	remaining := q
	for remaining > 0 && int64(len(inv.Entries)) < inv.MaxEntries {
		n := math.Min(1, remaining)
		inv.Entries = append(inv.Entries, &entity.InventoryEntry{
			ItemID:       itemID,
			Quantity:     n,
			IsMaxStacked: true,
		})
		remaining -= n
	}
	return remaining
}

// openStack returns the first entry of itemID below its stack limit.
func openStack(inv *entity.Inventory, itemID int64) *entity.InventoryEntry {
	for _, e := range inv.Entries {
		if e.ItemID == itemID && !e.IsMaxStacked {
			return e
		}
	}
	return nil
}

// SplitStack moves newQuantity out of the entry at index into a new entry
// appended to the inventory. The split must be strict and needs a free slot.
func SplitStack(inv *entity.Inventory, index int, newQuantity float64) result.Result {
	if inv == nil {
		return result.Fail(result.DBInvalidData, "inventory is required")
	}
	if index < 0 || index >= len(inv.Entries) {
		return result.Failf(result.InventoryOpFailed, "entry index %d out of range", index)
	}
	src := inv.Entries[index]
	if newQuantity <= 0 {
		return result.Failf(result.InventoryOpFailed, "split quantity %g must be positive", newQuantity)
	}
	if newQuantity >= src.Quantity {
		return result.Failf(result.InventoryOpFailed,
			"split quantity %g must be less than stack quantity %g", newQuantity, src.Quantity)
	}
	if int64(len(inv.Entries)) >= inv.MaxEntries {
		return result.Fail(result.InventoryOpFailed, "no free entry for split")
	}

	src.Quantity -= newQuantity
	src.IsMaxStacked = false
	inv.Entries = append(inv.Entries, &entity.InventoryEntry{
		ItemID:       src.ItemID,
		Quantity:     newQuantity,
		MobileItemID: entityClone(src.MobileItemID),
	})
	return result.OKf("split %g from entry %d", newQuantity, index)
}

// Transfer moves q units of item from one inventory to another. The move is
// atomic: the destination is restored on failure and the source is only
// decremented once the destination has accepted everything.
func Transfer(from, to *entity.Inventory, item *entity.Item, q float64) result.Result {
	if from == nil || to == nil {
		return result.Fail(result.DBInvalidData, "source and destination inventories are required")
	}
	if r, ok := checkArgs(to, item, q); !ok {
		return r
	}
	idx := -1
	for i, e := range from.Entries {
		if e.ItemID == *item.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return result.Failf(result.InventoryOpFailed, "item %q not in source inventory", item.InternalName)
	}
	src := from.Entries[idx]
	if src.Quantity < q {
		return result.Failf(result.InventoryOpFailed,
			"source holds %g of %q, %g requested", src.Quantity, item.InternalName, q)
	}

	snapshot := to.Clone()
	if r := Add(to, item, q); !r.Succeeded() {
		*to = *snapshot
		return r
	}

	src.Quantity -= q
	src.IsMaxStacked = false
	if src.Quantity == 0 {
		from.Entries = append(from.Entries[:idx], from.Entries[idx+1:]...)
	}
	if !item.IsVirtual() {
		from.LastCalculatedVolume -= q * item.Volume()
	}
	return result.OKf("transferred %g %q", q, item.InternalName)
}

// TransferToFirstAvailable tries each candidate in order and stops at the
// first that accepts the transfer. It returns the index of the receiving
// candidate, or -1 when every candidate refused.
func TransferToFirstAvailable(from *entity.Inventory, candidates []*entity.Inventory, item *entity.Item, q float64) (result.Result, int) {
	reasons := make([]string, 0, len(candidates))
	for i, to := range candidates {
		if to == nil {
			continue
		}
		r := Transfer(from, to, item, q)
		if r.Succeeded() {
			return r, i
		}
		reasons = append(reasons, r.Message)
	}
	msg := "no candidate inventory accepted the transfer"
	if len(reasons) > 0 {
		msg += ": " + strings.Join(reasons, "; ")
	}
	return result.Fail(result.InventoryOpFailed, msg), -1
}

func checkArgs(inv *entity.Inventory, item *entity.Item, q float64) (result.Result, bool) {
	if inv == nil || item == nil || item.ID == nil {
		return result.Fail(result.DBInvalidData, "inventory and a stored item are required"), false
	}
	if q <= 0 {
		return result.Failf(result.InventoryOpFailed, "quantity %g must be positive", q), false
	}
	return result.Result{}, true
}

func entityClone(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
