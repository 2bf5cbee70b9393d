package store

import (
	"context"
	"errors"

	"github.com/jasonknight/space-mmo-sub002/game/entity"
	"github.com/jasonknight/space-mmo-sub002/model"
	"github.com/jasonknight/space-mmo-sub002/result"
	"gorm.io/gorm"
)

// AttributeModel persists free-standing attributes and their owner link.
type AttributeModel struct {
	*Base
	tables model.AttributeTables
}

// NewAttributeModel returns a model over b.
func NewAttributeModel(b *Base, tables model.AttributeTables) *AttributeModel {
	return &AttributeModel{Base: b, tables: tables}
}

// Create inserts the attribute and its children. The id must be unset.
func (m *AttributeModel) Create(ctx context.Context, a *entity.Attribute) []result.Result {
	if a == nil || a.ID != nil {
		return []result.Result{result.Fail(result.DBInvalidData, "create attribute: id must be unset")}
	}
	work := a.Clone()
	return m.write(ctx, "attribute.create", result.DBInsertFailed, func(tx *gorm.DB) error {
		return insertAttribute(tx, m.tables, work, work.Owner)
	}, func() []string {
		*a = *work
		return []string{"created attribute " + idString(a.ID)}
	})
}

// Load reads the attribute with id.
func (m *AttributeModel) Load(ctx context.Context, id int64) (result.Result, *entity.Attribute) {
	return load(ctx, m.Base, "attribute.load", id, m.loadTx)
}

func (m *AttributeModel) loadTx(tx *gorm.DB, id int64) (*entity.Attribute, error) {
	var row model.AttributeRow
	if err := tx.Table(m.tables.Attributes).Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("attribute", id)
		}
		return nil, dbErr(result.DBQueryFailed, err, "load attribute %d", id)
	}
	var links []model.AttributeOwnerRow
	if err := tx.Table(m.tables.Owners).Where("attribute_id = ?", id).Order("id").Limit(1).Find(&links).Error; err != nil {
		return nil, dbErr(result.DBQueryFailed, err, "load owner of attribute %d", id)
	}
	var owner entity.Owner
	if len(links) > 0 {
		l := links[0]
		owner = ownerFromColumns(l.PlayerID, l.MobileID, l.ItemID, l.AssetID)
	}
	return rowToAttribute(row, owner)
}

// Update rewrites the attribute row and replaces its children.
func (m *AttributeModel) Update(ctx context.Context, a *entity.Attribute) []result.Result {
	if a == nil || a.ID == nil {
		return []result.Result{result.Fail(result.DBInvalidData, "update attribute: id is required")}
	}
	id := *a.ID
	return m.write(ctx, "attribute.update", result.DBUpdateFailed, func(tx *gorm.DB) error {
		if err := a.Validate(); err != nil {
			return invalid("attribute %d: %v", id, err)
		}
		if err := requireRow(tx, m.tables.Attributes, "attribute", id); err != nil {
			return err
		}
		row := attributeToRow(a)
		err := tx.Table(m.tables.Attributes).Where("id = ?", id).Updates(map[string]interface{}{
			"internal_name":  row.InternalName,
			"visible":        row.Visible,
			"attribute_type": row.AttributeType,
			"bool_value":     row.BoolValue,
			"double_value":   row.DoubleValue,
			"vector3_x":      row.Vector3X,
			"vector3_y":      row.Vector3Y,
			"vector3_z":      row.Vector3Z,
			"asset_id":       row.AssetID,
		}).Error
		if err != nil {
			return dbErr(result.DBUpdateFailed, err, "update attribute %d", id)
		}
		if err := tx.Table(m.tables.Owners).Where("attribute_id = ?", id).Delete(&model.AttributeOwnerRow{}).Error; err != nil {
			return dbErr(result.DBUpdateFailed, err, "clear owner of attribute %d", id)
		}
		if a.Owner.IsNone() {
			return nil
		}
		link := ownerRow(id, a.Owner)
		if err := tx.Table(m.tables.Owners).Create(&link).Error; err != nil {
			return dbErr(result.DBUpdateFailed, err, "write owner of attribute %d", id)
		}
		return nil
	}, func() []string { return []string{"updated attribute " + idString(a.ID)} })
}

// Save updates when the id is set and creates otherwise.
func (m *AttributeModel) Save(ctx context.Context, a *entity.Attribute) []result.Result {
	if a != nil && a.ID != nil {
		return m.Update(ctx, a)
	}
	return m.Create(ctx, a)
}

// Destroy deletes the attribute with id and its owner link.
func (m *AttributeModel) Destroy(ctx context.Context, id int64) []result.Result {
	return m.write(ctx, "attribute.destroy", result.DBDeleteFailed, func(tx *gorm.DB) error {
		if err := tx.Table(m.tables.Owners).Where("attribute_id = ?", id).Delete(&model.AttributeOwnerRow{}).Error; err != nil {
			return dbErr(result.DBDeleteFailed, err, "delete owner of attribute %d", id)
		}
		return deleteByID(tx, m.tables.Attributes, "attribute", id, &model.AttributeRow{})
	}, func() []string { return []string{"destroyed attribute " + idString(&id)} })
}

// Search pages through rows whose text columns contain search.
func (m *AttributeModel) Search(ctx context.Context, p Page, search string) (result.Result, []*entity.Attribute, int64) {
	return searchRows(ctx, m.Base, "attribute.search", m.tables.Attributes, p, likeScope(search, "internal_name"), m.loadTx)
}
