// Package entity holds the in-memory object graph persisted by the store
// package: players, mobiles, attributes, items with blueprints, and inventories.
package entity

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Over13Age is the age at which a player counts as over 13.
const Over13Age = 13

// Over13 derives the over_13 flag from a birth year and a reference time.
func Over13(yearOfBirth int64, now time.Time) bool {
	return int64(now.Year())-yearOfBirth >= Over13Age
}

// Player is an account-level identity. Over13 is derived at save time.
type Player struct {
	ID            *int64  `msgpack:"id,omitempty" json:"id,omitempty"`
	FullName      string  `msgpack:"full_name" json:"full_name"`
	WhatWeCallYou string  `msgpack:"what_we_call_you" json:"what_we_call_you"`
	SecurityToken string  `msgpack:"security_token" json:"security_token"`
	Over13        bool    `msgpack:"over_13" json:"over_13"`
	YearOfBirth   int64   `msgpack:"year_of_birth" json:"year_of_birth"`
	Email         string  `msgpack:"email" json:"email"`
	Mobile        *Mobile `msgpack:"mobile,omitempty" json:"mobile,omitempty"`
}

// Clone returns a deep copy of the player.
func (p *Player) Clone() *Player {
	if p == nil {
		return nil
	}
	out := *p
	out.ID = clonePtr(p.ID)
	out.Mobile = p.Mobile.Clone()
	return &out
}

// Mobile is a movable actor: a player avatar or an NPC.
type Mobile struct {
	ID            *int64                       `msgpack:"id,omitempty" json:"id,omitempty"`
	MobileType    MobileType                   `msgpack:"mobile_type" json:"mobile_type"`
	WhatWeCallYou string                       `msgpack:"what_we_call_you" json:"what_we_call_you"`
	Owner         Owner                        `msgpack:"owner" json:"owner"`
	Attributes    map[AttributeType]*Attribute `msgpack:"attributes" json:"attributes"`
}

// Clone returns a deep copy of the mobile.
func (m *Mobile) Clone() *Mobile {
	if m == nil {
		return nil
	}
	out := *m
	out.ID = clonePtr(m.ID)
	out.Owner = m.Owner.Clone()
	out.Attributes = cloneAttributes(m.Attributes)
	return &out
}

// Validate checks the owner link and the attribute map.
func (m *Mobile) Validate() error {
	if m.MobileType == "" {
		return errors.New("mobile_type is required")
	}
	if _, err := ParseMobileType(string(m.MobileType)); err != nil {
		return err
	}
	if err := m.Owner.Validate(); err != nil {
		return err
	}
	return validateAttributes(m.Attributes)
}

// Attribute is a typed, named property attached to an owner.
type Attribute struct {
	ID            *int64         `msgpack:"id,omitempty" json:"id,omitempty"`
	InternalName  string         `msgpack:"internal_name" json:"internal_name"`
	Visible       bool           `msgpack:"visible" json:"visible"`
	AttributeType AttributeType  `msgpack:"attribute_type" json:"attribute_type"`
	Value         AttributeValue `msgpack:"value" json:"value"`
	Owner         Owner          `msgpack:"owner" json:"owner"`
}

// Clone returns a deep copy of the attribute.
func (a *Attribute) Clone() *Attribute {
	if a == nil {
		return nil
	}
	out := *a
	out.ID = clonePtr(a.ID)
	out.Value = a.Value.Clone()
	out.Owner = a.Owner.Clone()
	return &out
}

// Validate checks the type tag, the value arm and the owner link.
func (a *Attribute) Validate() error {
	if _, err := ParseAttributeType(string(a.AttributeType)); err != nil {
		return err
	}
	if err := a.Value.Validate(); err != nil {
		return fmt.Errorf("attribute %q: %w", a.InternalName, err)
	}
	return a.Owner.Validate()
}

// Item is a catalog entry, optionally craftable through a blueprint.
type Item struct {
	ID           *int64                       `msgpack:"id,omitempty" json:"id,omitempty"`
	InternalName string                       `msgpack:"internal_name" json:"internal_name"`
	MaxStackSize *int64                       `msgpack:"max_stack_size,omitempty" json:"max_stack_size,omitempty"`
	ItemType     ItemType                     `msgpack:"item_type" json:"item_type"`
	Attributes   map[AttributeType]*Attribute `msgpack:"attributes" json:"attributes"`
	Blueprint    *ItemBlueprint               `msgpack:"blueprint,omitempty" json:"blueprint,omitempty"`
}

// Clone returns a deep copy of the item.
func (it *Item) Clone() *Item {
	if it == nil {
		return nil
	}
	out := *it
	out.ID = clonePtr(it.ID)
	out.MaxStackSize = clonePtr(it.MaxStackSize)
	out.Attributes = cloneAttributes(it.Attributes)
	out.Blueprint = it.Blueprint.Clone()
	return &out
}

// Validate checks the type tag, the attributes and the blueprint.
func (it *Item) Validate() error {
	if it.InternalName == "" {
		return errors.New("internal_name is required")
	}
	if _, err := ParseItemType(string(it.ItemType)); err != nil {
		return err
	}
	if it.MaxStackSize != nil && *it.MaxStackSize < 1 {
		return fmt.Errorf("max_stack_size %d must be positive", *it.MaxStackSize)
	}
	if err := validateAttributes(it.Attributes); err != nil {
		return err
	}
	if it.Blueprint != nil {
		return it.Blueprint.Validate()
	}
	return nil
}

// IsStackable reports whether several units can share one entry.
func (it *Item) IsStackable() bool {
	return it.MaxStackSize != nil && *it.MaxStackSize > 1
}

// IsVirtual reports whether the item bypasses inventory capacity.
func (it *Item) IsVirtual() bool { return it.ItemType == ItemVirtual }

// Volume returns the per-unit VOLUME attribute, or 0 when absent.
func (it *Item) Volume() float64 {
	a, ok := it.Attributes[AttrVolume]
	if !ok || a == nil {
		return 0
	}
	v, _ := a.Value.AsDouble()
	return v
}

// ItemBlueprint is the recipe of an item.
type ItemBlueprint struct {
	ID         *int64                            `msgpack:"id,omitempty" json:"id,omitempty"`
	BakeTimeMs int64                             `msgpack:"bake_time_ms" json:"bake_time_ms"`
	Components map[int64]*ItemBlueprintComponent `msgpack:"components" json:"components"`
}

// ItemBlueprintComponent is one ingredient of a blueprint.
type ItemBlueprintComponent struct {
	ItemID int64   `msgpack:"item_id" json:"item_id"`
	Ratio  float64 `msgpack:"ratio" json:"ratio"`
}

// Clone returns a deep copy of the blueprint.
func (b *ItemBlueprint) Clone() *ItemBlueprint {
	if b == nil {
		return nil
	}
	out := *b
	out.ID = clonePtr(b.ID)
	if b.Components != nil {
		out.Components = make(map[int64]*ItemBlueprintComponent, len(b.Components))
		for k, c := range b.Components {
			if c == nil {
				continue
			}
			cc := *c
			out.Components[k] = &cc
		}
	}
	return &out
}

// Validate checks that every component is keyed by its own item id.
func (b *ItemBlueprint) Validate() error {
	if b.BakeTimeMs < 0 {
		return fmt.Errorf("bake_time_ms %d is negative", b.BakeTimeMs)
	}
	for k, c := range b.Components {
		if c == nil {
			return fmt.Errorf("component %d is nil", k)
		}
		if c.ItemID != k {
			return fmt.Errorf("component keyed %d points at item %d", k, c.ItemID)
		}
	}
	return nil
}

// ComponentIDs returns the component item ids in ascending order.
func (b *ItemBlueprint) ComponentIDs() []int64 {
	ids := make([]int64, 0, len(b.Components))
	for id := range b.Components {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Inventory is an ordered list of entries bounded by entry count and volume.
type Inventory struct {
	ID                   *int64            `msgpack:"id,omitempty" json:"id,omitempty"`
	MaxEntries           int64             `msgpack:"max_entries" json:"max_entries"`
	MaxVolume            float64           `msgpack:"max_volume" json:"max_volume"`
	LastCalculatedVolume float64           `msgpack:"last_calculated_volume" json:"last_calculated_volume"`
	Entries              []*InventoryEntry `msgpack:"entries" json:"entries"`
	Owner                Owner             `msgpack:"owner" json:"owner"`
}

// InventoryEntry is one slot of an inventory.
type InventoryEntry struct {
	ID           *int64  `msgpack:"id,omitempty" json:"id,omitempty"`
	ItemID       int64   `msgpack:"item_id" json:"item_id"`
	Quantity     float64 `msgpack:"quantity" json:"quantity"`
	IsMaxStacked bool    `msgpack:"is_max_stacked" json:"is_max_stacked"`
	MobileItemID *int64  `msgpack:"mobile_item_id,omitempty" json:"mobile_item_id,omitempty"`
}

// Clone returns a deep copy of the entry.
func (e *InventoryEntry) Clone() *InventoryEntry {
	if e == nil {
		return nil
	}
	out := *e
	out.ID = clonePtr(e.ID)
	out.MobileItemID = clonePtr(e.MobileItemID)
	return &out
}

// Clone returns a deep copy of the inventory.
func (inv *Inventory) Clone() *Inventory {
	if inv == nil {
		return nil
	}
	out := *inv
	out.ID = clonePtr(inv.ID)
	out.Owner = inv.Owner.Clone()
	if inv.Entries != nil {
		out.Entries = make([]*InventoryEntry, len(inv.Entries))
		for i, e := range inv.Entries {
			out.Entries[i] = e.Clone()
		}
	}
	return &out
}

// Validate checks the capacity invariants and the owner link.
func (inv *Inventory) Validate() error {
	if inv.MaxEntries < 0 {
		return fmt.Errorf("max_entries %d is negative", inv.MaxEntries)
	}
	if int64(len(inv.Entries)) > inv.MaxEntries {
		return fmt.Errorf("%d entries exceed max_entries %d", len(inv.Entries), inv.MaxEntries)
	}
	if inv.LastCalculatedVolume > inv.MaxVolume {
		return fmt.Errorf("volume %g exceeds max_volume %g", inv.LastCalculatedVolume, inv.MaxVolume)
	}
	for i, e := range inv.Entries {
		if e == nil {
			return fmt.Errorf("entry %d is nil", i)
		}
		if e.Quantity < 0 {
			return fmt.Errorf("entry %d has negative quantity", i)
		}
	}
	return inv.Owner.Validate()
}

// TotalQuantity sums the quantity of every entry holding itemID.
func (inv *Inventory) TotalQuantity(itemID int64) float64 {
	var sum float64
	for _, e := range inv.Entries {
		if e.ItemID == itemID {
			sum += e.Quantity
		}
	}
	return sum
}

func cloneAttributes(in map[AttributeType]*Attribute) map[AttributeType]*Attribute {
	if in == nil {
		return nil
	}
	out := make(map[AttributeType]*Attribute, len(in))
	for k, a := range in {
		out[k] = a.Clone()
	}
	return out
}

func validateAttributes(attrs map[AttributeType]*Attribute) error {
	for k, a := range attrs {
		if a == nil {
			return fmt.Errorf("attribute %s is nil", k)
		}
		if a.AttributeType != k {
			return fmt.Errorf("attribute keyed %s has type %s", k, a.AttributeType)
		}
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SortedAttributeTypes returns the keys of attrs in the catalog order.
func SortedAttributeTypes(attrs map[AttributeType]*Attribute) []AttributeType {
	out := make([]AttributeType, 0, len(attrs))
	for _, t := range attributeTypes {
		if _, ok := attrs[t]; ok {
			out = append(out, t)
		}
	}
	return out
}
