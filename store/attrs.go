package store

import (
	"github.com/jasonknight/space-mmo-sub002/game/entity"
	"github.com/jasonknight/space-mmo-sub002/model"
	"github.com/jasonknight/space-mmo-sub002/result"
	"gorm.io/gorm"
)

// Owner link columns of attribute_owners, inventory_owners and friends.
const (
	colPlayerID = "player_id"
	colMobileID = "mobile_id"
	colItemID   = "item_id"
)

func attributeToRow(a *entity.Attribute) model.AttributeRow {
	row := model.AttributeRow{
		InternalName:  a.InternalName,
		Visible:       a.Visible,
		AttributeType: string(a.AttributeType),
	}
	v := a.Value
	switch v.Kind() {
	case entity.ValueBool:
		b := *v.Bool
		row.BoolValue = &b
	case entity.ValueDouble:
		d := *v.Double
		row.DoubleValue = &d
	case entity.ValueVector3:
		x, y, z := v.Vector3.X, v.Vector3.Y, v.Vector3.Z
		row.Vector3X, row.Vector3Y, row.Vector3Z = &x, &y, &z
	case entity.ValueAssetID:
		id := *v.AssetID
		row.AssetID = &id
	}
	return row
}

// rowToValue picks the non-null column group.
func rowToValue(row model.AttributeRow) (entity.AttributeValue, error) {
	switch {
	case row.BoolValue != nil:
		return entity.BoolValue(*row.BoolValue), nil
	case row.DoubleValue != nil:
		return entity.DoubleValue(*row.DoubleValue), nil
	case row.Vector3X != nil && row.Vector3Y != nil && row.Vector3Z != nil:
		return entity.Vector3Value(*row.Vector3X, *row.Vector3Y, *row.Vector3Z), nil
	case row.AssetID != nil:
		return entity.AssetIDValue(*row.AssetID), nil
	}
	return entity.AttributeValue{}, result.Errorf(result.DBInvalidData, "attribute %d has no value", row.ID)
}

func rowToAttribute(row model.AttributeRow, owner entity.Owner) (*entity.Attribute, error) {
	t, err := entity.ParseAttributeType(row.AttributeType)
	if err != nil {
		return nil, result.Errorf(result.DBInvalidData, "attribute %d: %v", row.ID, err)
	}
	v, err := rowToValue(row)
	if err != nil {
		return nil, err
	}
	return &entity.Attribute{
		ID:            entity.Int64(row.ID),
		InternalName:  row.InternalName,
		Visible:       row.Visible,
		AttributeType: t,
		Value:         v,
		Owner:         owner,
	}, nil
}

func ownerRow(attrID int64, o entity.Owner) model.AttributeOwnerRow {
	o = o.Clone()
	return model.AttributeOwnerRow{
		AttributeID: attrID,
		PlayerID:    o.PlayerID,
		MobileID:    o.MobileID,
		ItemID:      o.ItemID,
		AssetID:     o.AssetID,
	}
}

func ownerFromColumns(player, mobile, item, asset *int64) entity.Owner {
	return entity.Owner{PlayerID: player, MobileID: mobile, ItemID: item, AssetID: asset}.Clone()
}

// insertAttribute writes a and its owner link, then stamps a with the new id
// and owner.
func insertAttribute(tx *gorm.DB, t model.AttributeTables, a *entity.Attribute, owner entity.Owner) error {
	if err := a.Validate(); err != nil {
		return invalid("attribute %q: %v", a.InternalName, err)
	}
	row := attributeToRow(a)
	if err := tx.Table(t.Attributes).Create(&row).Error; err != nil {
		return dbErr(result.DBInsertFailed, err, "insert attribute %q", a.InternalName)
	}
	if !owner.IsNone() {
		link := ownerRow(row.ID, owner)
		if err := tx.Table(t.Owners).Create(&link).Error; err != nil {
			return dbErr(result.DBInsertFailed, err, "insert owner of attribute %d", row.ID)
		}
	}
	a.ID = entity.Int64(row.ID)
	a.Owner = owner.Clone()
	return nil
}

// insertAttributes writes every attribute of attrs in catalog order.
func insertAttributes(tx *gorm.DB, t model.AttributeTables, attrs map[entity.AttributeType]*entity.Attribute, owner entity.Owner) error {
	for _, k := range entity.SortedAttributeTypes(attrs) {
		if err := insertAttribute(tx, t, attrs[k], owner); err != nil {
			return err
		}
	}
	return nil
}

func ownedAttributeIDs(tx *gorm.DB, t model.AttributeTables, col string, id int64) ([]int64, error) {
	var ids []int64
	if err := tx.Table(t.Owners).Where(col+" = ?", id).Order("attribute_id").Pluck("attribute_id", &ids).Error; err != nil {
		return nil, dbErr(result.DBQueryFailed, err, "list attributes of %s %d", col, id)
	}
	return ids, nil
}

// loadOwnedAttributes fetches the attributes linked through col = id, keyed
// by type.
func loadOwnedAttributes(tx *gorm.DB, t model.AttributeTables, col string, id int64, owner entity.Owner) (map[entity.AttributeType]*entity.Attribute, error) {
	out := make(map[entity.AttributeType]*entity.Attribute)
	ids, err := ownedAttributeIDs(tx, t, col, id)
	if err != nil || len(ids) == 0 {
		return out, err
	}
	var rows []model.AttributeRow
	if err := tx.Table(t.Attributes).Where("id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
		return nil, dbErr(result.DBQueryFailed, err, "load attributes of %s %d", col, id)
	}
	for _, row := range rows {
		a, err := rowToAttribute(row, owner)
		if err != nil {
			return nil, err
		}
		out[a.AttributeType] = a
	}
	return out, nil
}

// deleteOwnedAttributes removes the owner links through col = id and the
// attributes they pointed at.
func deleteOwnedAttributes(tx *gorm.DB, t model.AttributeTables, col string, id int64) error {
	ids, err := ownedAttributeIDs(tx, t, col, id)
	if err != nil {
		return err
	}
	if err := tx.Table(t.Owners).Where(col+" = ?", id).Delete(&model.AttributeOwnerRow{}).Error; err != nil {
		return dbErr(result.DBDeleteFailed, err, "delete attribute owners of %s %d", col, id)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Table(t.Attributes).Where("id IN ?", ids).Delete(&model.AttributeRow{}).Error; err != nil {
		return dbErr(result.DBDeleteFailed, err, "delete attributes of %s %d", col, id)
	}
	return nil
}
