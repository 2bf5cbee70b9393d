package store

import (
	"context"
	"errors"

	"github.com/jasonknight/space-mmo-sub002/game/entity"
	"github.com/jasonknight/space-mmo-sub002/model"
	"github.com/jasonknight/space-mmo-sub002/result"
	"gorm.io/gorm"
)

// ItemModel persists items with their blueprint and attributes in one item
// namespace (catalog items or mobile items).
type ItemModel struct {
	*Base
	tables     model.TableSet
	blueprints *ItemBlueprintModel
}

// NewItemModel returns a model over b.
func NewItemModel(b *Base, tables model.TableSet) *ItemModel {
	return &ItemModel{Base: b, tables: tables, blueprints: NewItemBlueprintModel(b, tables)}
}

// Tables reports the namespace this model writes to.
func (m *ItemModel) Tables() model.TableSet { return m.tables }

// Blueprints returns the blueprint model sharing this namespace.
func (m *ItemModel) Blueprints() *ItemBlueprintModel { return m.blueprints }

// createTx inserts the blueprint, then the item pointing at it, then the
// blueprint components and the item's attributes.
func (m *ItemModel) createTx(tx *gorm.DB, it *entity.Item) error {
	if err := it.Validate(); err != nil {
		return invalid("item: %v", err)
	}
	row := model.ItemRow{
		InternalName: it.InternalName,
		MaxStackSize: it.MaxStackSize,
		ItemType:     string(it.ItemType),
	}
	if it.Blueprint != nil {
		if err := m.blueprints.insertRow(tx, it.Blueprint); err != nil {
			return err
		}
		row.BlueprintID = entity.Int64(*it.Blueprint.ID)
	}
	if err := tx.Table(m.tables.Items).Create(&row).Error; err != nil {
		return dbErr(result.DBInsertFailed, err, "insert item %q", it.InternalName)
	}
	it.ID = entity.Int64(row.ID)
	if it.Blueprint != nil {
		if err := m.blueprints.insertComponents(tx, it.Blueprint); err != nil {
			return err
		}
	}
	return insertAttributes(tx, m.tables.Attributes, it.Attributes, entity.ItemOwner(row.ID))
}

func (m *ItemModel) loadRow(tx *gorm.DB, id int64) (model.ItemRow, error) {
	var row model.ItemRow
	if err := tx.Table(m.tables.Items).Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return row, notFound("item", id)
		}
		return row, dbErr(result.DBQueryFailed, err, "load item %d", id)
	}
	return row, nil
}

func (m *ItemModel) loadTx(tx *gorm.DB, id int64) (*entity.Item, error) {
	row, err := m.loadRow(tx, id)
	if err != nil {
		return nil, err
	}
	t, err := entity.ParseItemType(row.ItemType)
	if err != nil {
		return nil, result.Errorf(result.DBInvalidData, "item %d: %v", id, err)
	}
	it := &entity.Item{
		ID:           entity.Int64(row.ID),
		InternalName: row.InternalName,
		MaxStackSize: row.MaxStackSize,
		ItemType:     t,
	}
	if row.BlueprintID != nil {
		if it.Blueprint, err = m.blueprints.loadTx(tx, *row.BlueprintID); err != nil {
			return nil, err
		}
	}
	it.Attributes, err = loadOwnedAttributes(tx, m.tables.Attributes, colItemID, id, entity.ItemOwner(id))
	if err != nil {
		return nil, err
	}
	return it, nil
}

// updateTx rewrites the item row, reconciles the blueprint link and replaces
// the attribute rows.
func (m *ItemModel) updateTx(tx *gorm.DB, it *entity.Item) error {
	id := *it.ID
	if err := it.Validate(); err != nil {
		return invalid("item %d: %v", id, err)
	}
	old, err := m.loadRow(tx, id)
	if err != nil {
		return err
	}

	var blueprintID *int64
	switch {
	case it.Blueprint == nil && old.BlueprintID != nil:
		// Unlink first so the blueprint row can go.
		if err := tx.Table(m.tables.Items).Where("id = ?", id).Update("blueprint_id", nil).Error; err != nil {
			return dbErr(result.DBUpdateFailed, err, "unlink blueprint of item %d", id)
		}
		if err := m.blueprints.deleteComponents(tx, *old.BlueprintID); err != nil {
			return err
		}
		if err := deleteByID(tx, m.tables.Blueprints, "blueprint", *old.BlueprintID, &model.BlueprintRow{}); err != nil {
			return err
		}
	case it.Blueprint != nil && old.BlueprintID != nil:
		it.Blueprint.ID = entity.Int64(*old.BlueprintID)
		if err := m.blueprints.updateTx(tx, it.Blueprint); err != nil {
			return err
		}
		blueprintID = it.Blueprint.ID
	case it.Blueprint != nil:
		it.Blueprint.ID = nil
		if err := m.blueprints.createTx(tx, it.Blueprint); err != nil {
			return err
		}
		blueprintID = it.Blueprint.ID
	}

	err = tx.Table(m.tables.Items).Where("id = ?", id).Updates(map[string]interface{}{
		"internal_name":  it.InternalName,
		"max_stack_size": it.MaxStackSize,
		"item_type":      string(it.ItemType),
		"blueprint_id":   blueprintID,
	}).Error
	if err != nil {
		return dbErr(result.DBUpdateFailed, err, "update item %d", id)
	}

	if err := deleteOwnedAttributes(tx, m.tables.Attributes, colItemID, id); err != nil {
		return err
	}
	for _, a := range it.Attributes {
		a.ID = nil
	}
	return insertAttributes(tx, m.tables.Attributes, it.Attributes, entity.ItemOwner(id))
}

// destroyTx removes attributes, the item row, then its blueprint.
func (m *ItemModel) destroyTx(tx *gorm.DB, id int64) error {
	var blueprintIDs []int64
	if err := tx.Table(m.tables.Items).Where("id = ? AND blueprint_id IS NOT NULL", id).Pluck("blueprint_id", &blueprintIDs).Error; err != nil {
		return dbErr(result.DBQueryFailed, err, "load blueprint of item %d", id)
	}
	if err := deleteOwnedAttributes(tx, m.tables.Attributes, colItemID, id); err != nil {
		return err
	}
	if err := deleteByID(tx, m.tables.Items, "item", id, &model.ItemRow{}); err != nil {
		return err
	}
	for _, bpID := range blueprintIDs {
		if err := m.blueprints.destroyTx(tx, bpID); err != nil {
			return err
		}
	}
	return nil
}

// Create inserts the item and its children. The id must be unset.
func (m *ItemModel) Create(ctx context.Context, it *entity.Item) []result.Result {
	if it == nil || it.ID != nil {
		return []result.Result{result.Fail(result.DBInvalidData, "create item: id must be unset")}
	}
	work := it.Clone()
	return m.write(ctx, "item.create", result.DBInsertFailed, func(tx *gorm.DB) error {
		return m.createTx(tx, work)
	}, func() []string {
		*it = *work
		return []string{"created item " + idString(it.ID)}
	})
}

// Load reads the item with id.
func (m *ItemModel) Load(ctx context.Context, id int64) (result.Result, *entity.Item) {
	return load(ctx, m.Base, "item.load", id, m.loadTx)
}

// Update rewrites the item row and replaces its children.
func (m *ItemModel) Update(ctx context.Context, it *entity.Item) []result.Result {
	if it == nil || it.ID == nil {
		return []result.Result{result.Fail(result.DBInvalidData, "update item: id is required")}
	}
	work := it.Clone()
	return m.write(ctx, "item.update", result.DBUpdateFailed, func(tx *gorm.DB) error {
		return m.updateTx(tx, work)
	}, func() []string {
		*it = *work
		return []string{"updated item " + idString(it.ID)}
	})
}

// Save updates when the id is set and creates otherwise.
func (m *ItemModel) Save(ctx context.Context, it *entity.Item) []result.Result {
	if it != nil && it.ID != nil {
		return m.Update(ctx, it)
	}
	return m.Create(ctx, it)
}

// Destroy deletes the item with id and everything it owns.
func (m *ItemModel) Destroy(ctx context.Context, id int64) []result.Result {
	return m.write(ctx, "item.destroy", result.DBDeleteFailed, func(tx *gorm.DB) error {
		return m.destroyTx(tx, id)
	}, func() []string { return []string{"destroyed item " + idString(&id)} })
}

// Search pages through rows whose text columns contain search.
func (m *ItemModel) Search(ctx context.Context, p Page, search string) (result.Result, []*entity.Item, int64) {
	return searchRows(ctx, m.Base, "item.search", m.tables.Items, p, likeScope(search, "internal_name"), m.loadTx)
}

// FindByName returns the first item with exactly this internal name.
func (m *ItemModel) FindByName(ctx context.Context, name string) (result.Result, *entity.Item) {
	var ids []int64
	err := m.DB(ctx).Table(m.tables.Items).Where("internal_name = ?", name).Order("id").Limit(1).Pluck("id", &ids).Error
	if err != nil {
		r := classify(dbErr(result.DBQueryFailed, err, "find item %q", name), result.DBQueryFailed)
		m.logFailure("item.find", r, err)
		return r, nil
	}
	if len(ids) == 0 {
		return result.Failf(result.DBRecordNotFound, "item %q not found", name), nil
	}
	return m.Load(ctx, ids[0])
}
