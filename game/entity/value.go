package entity

import (
	"errors"
	"fmt"
)

// Vector3 is a point or direction in local space.
type Vector3 struct {
	X float64 `msgpack:"x" json:"x"`
	Y float64 `msgpack:"y" json:"y"`
	Z float64 `msgpack:"z" json:"z"`
}

// ValueKind names the populated arm of an AttributeValue.
type ValueKind string

const (
	ValueNone    ValueKind = ""
	ValueBool    ValueKind = "BOOL"
	ValueDouble  ValueKind = "DOUBLE"
	ValueVector3 ValueKind = "VECTOR3"
	ValueAssetID ValueKind = "ASSET_ID"
)

// AttributeValue is a tagged variant; exactly one arm is set.
type AttributeValue struct {
	Bool    *bool    `msgpack:"bool,omitempty" json:"bool,omitempty"`
	Double  *float64 `msgpack:"double,omitempty" json:"double,omitempty"`
	Vector3 *Vector3 `msgpack:"vector3,omitempty" json:"vector3,omitempty"`
	AssetID *int64   `msgpack:"asset_id,omitempty" json:"asset_id,omitempty"`
}

// BoolValue sets the Bool arm.
func BoolValue(b bool) AttributeValue { return AttributeValue{Bool: &b} }

// DoubleValue sets the Double arm.
func DoubleValue(d float64) AttributeValue { return AttributeValue{Double: &d} }

// Vector3Value sets the Vector3 arm.
func Vector3Value(x, y, z float64) AttributeValue {
	return AttributeValue{Vector3: &Vector3{X: x, Y: y, Z: z}}
}

// AssetIDValue sets the AssetID arm.
func AssetIDValue(id int64) AttributeValue { return AttributeValue{AssetID: &id} }

func (v AttributeValue) arms() int {
	n := 0
	if v.Bool != nil {
		n++
	}
	if v.Double != nil {
		n++
	}
	if v.Vector3 != nil {
		n++
	}
	if v.AssetID != nil {
		n++
	}
	return n
}

// Kind reports the populated arm. With more than one arm set the first in
// declaration order wins; Validate rejects that state.
func (v AttributeValue) Kind() ValueKind {
	switch {
	case v.Bool != nil:
		return ValueBool
	case v.Double != nil:
		return ValueDouble
	case v.Vector3 != nil:
		return ValueVector3
	case v.AssetID != nil:
		return ValueAssetID
	default:
		return ValueNone
	}
}

// Validate checks that exactly one arm is set.
func (v AttributeValue) Validate() error {
	switch n := v.arms(); n {
	case 1:
		return nil
	case 0:
		return errors.New("attribute value has no arm set")
	default:
		return fmt.Errorf("attribute value has %d arms set", n)
	}
}

// AsDouble returns the double arm, or 0 and false.
func (v AttributeValue) AsDouble() (float64, bool) {
	if v.Double == nil {
		return 0, false
	}
	return *v.Double, true
}

// Clone deep-copies the populated arm.
func (v AttributeValue) Clone() AttributeValue {
	var out AttributeValue
	if v.Bool != nil {
		b := *v.Bool
		out.Bool = &b
	}
	if v.Double != nil {
		d := *v.Double
		out.Double = &d
	}
	if v.Vector3 != nil {
		vec := *v.Vector3
		out.Vector3 = &vec
	}
	if v.AssetID != nil {
		id := *v.AssetID
		out.AssetID = &id
	}
	return out
}

// Equal compares the populated arms by value.
func (v AttributeValue) Equal(o AttributeValue) bool {
	return eqPtr(v.Bool, o.Bool) && eqPtr(v.Double, o.Double) &&
		eqPtr(v.Vector3, o.Vector3) && eqPtr(v.AssetID, o.AssetID)
}

// Owner is a tagged link to the owning entity. At most one id is set; none
// set means unowned.
type Owner struct {
	PlayerID *int64 `msgpack:"player_id,omitempty" json:"player_id,omitempty"`
	MobileID *int64 `msgpack:"mobile_id,omitempty" json:"mobile_id,omitempty"`
	ItemID   *int64 `msgpack:"item_id,omitempty" json:"item_id,omitempty"`
	AssetID  *int64 `msgpack:"asset_id,omitempty" json:"asset_id,omitempty"`
}

// PlayerOwner links to a player.
func PlayerOwner(id int64) Owner { return Owner{PlayerID: &id} }

// MobileOwner links to a mobile.
func MobileOwner(id int64) Owner { return Owner{MobileID: &id} }

// ItemOwner links to an item.
func ItemOwner(id int64) Owner { return Owner{ItemID: &id} }

// AssetOwner links to an asset.
func AssetOwner(id int64) Owner { return Owner{AssetID: &id} }

// Kind reports which link is set.
func (o Owner) Kind() OwnerKind {
	switch {
	case o.PlayerID != nil:
		return OwnerPlayer
	case o.MobileID != nil:
		return OwnerMobile
	case o.ItemID != nil:
		return OwnerItem
	case o.AssetID != nil:
		return OwnerAsset
	default:
		return OwnerNone
	}
}

// ID returns the id of the set link.
func (o Owner) ID() (int64, bool) {
	for _, p := range []*int64{o.PlayerID, o.MobileID, o.ItemID, o.AssetID} {
		if p != nil {
			return *p, true
		}
	}
	return 0, false
}

// IsNone reports an unowned link.
func (o Owner) IsNone() bool { return o.Kind() == OwnerNone }

// Validate rejects links with more than one id set.
func (o Owner) Validate() error {
	n := 0
	for _, p := range []*int64{o.PlayerID, o.MobileID, o.ItemID, o.AssetID} {
		if p != nil {
			n++
		}
	}
	if n > 1 {
		return fmt.Errorf("owner has %d links set", n)
	}
	return nil
}

// Clone returns a deep copy of the owner.
func (o Owner) Clone() Owner {
	return Owner{
		PlayerID: clonePtr(o.PlayerID),
		MobileID: clonePtr(o.MobileID),
		ItemID:   clonePtr(o.ItemID),
		AssetID:  clonePtr(o.AssetID),
	}
}

// Equal reports whether both owners name the same target.
func (o Owner) Equal(x Owner) bool {
	return eqPtr(o.PlayerID, x.PlayerID) && eqPtr(o.MobileID, x.MobileID) &&
		eqPtr(o.ItemID, x.ItemID) && eqPtr(o.AssetID, x.AssetID)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }
