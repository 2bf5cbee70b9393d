package store

import (
	"context"
	"errors"

	"github.com/jasonknight/space-mmo-sub002/game/entity"
	"github.com/jasonknight/space-mmo-sub002/model"
	"github.com/jasonknight/space-mmo-sub002/result"
	"gorm.io/gorm"
)

// InventoryModel persists inventories, their entries and their owner.
type InventoryModel struct {
	*Base
}

// NewInventoryModel returns a model over b.
func NewInventoryModel(b *Base) *InventoryModel {
	return &InventoryModel{Base: b}
}

// insertChildren writes entries in slice order, then the owner row.
func (m *InventoryModel) insertChildren(tx *gorm.DB, inv *entity.Inventory) error {
	id := *inv.ID
	for i, e := range inv.Entries {
		row := model.InventoryEntryRow{
			InventoryID:  id,
			ItemID:       e.ItemID,
			Quantity:     e.Quantity,
			IsMaxStacked: e.IsMaxStacked,
			MobileItemID: e.MobileItemID,
		}
		if err := tx.Create(&row).Error; err != nil {
			return dbErr(result.DBInsertFailed, err, "insert entry %d of inventory %d", i, id)
		}
		e.ID = entity.Int64(row.ID)
	}
	if inv.Owner.IsNone() {
		return nil
	}
	o := inv.Owner.Clone()
	owner := model.InventoryOwnerRow{
		InventoryID: id,
		PlayerID:    o.PlayerID,
		MobileID:    o.MobileID,
		ItemID:      o.ItemID,
		AssetID:     o.AssetID,
	}
	if err := tx.Create(&owner).Error; err != nil {
		return dbErr(result.DBInsertFailed, err, "insert owner of inventory %d", id)
	}
	return nil
}

func (m *InventoryModel) deleteChildren(tx *gorm.DB, id int64) error {
	if err := tx.Where("inventory_id = ?", id).Delete(&model.InventoryEntryRow{}).Error; err != nil {
		return dbErr(result.DBDeleteFailed, err, "delete entries of inventory %d", id)
	}
	if err := tx.Where("inventory_id = ?", id).Delete(&model.InventoryOwnerRow{}).Error; err != nil {
		return dbErr(result.DBDeleteFailed, err, "delete owner of inventory %d", id)
	}
	return nil
}

func (m *InventoryModel) createTx(tx *gorm.DB, inv *entity.Inventory) error {
	if err := inv.Validate(); err != nil {
		return invalid("inventory: %v", err)
	}
	row := model.InventoryRow{
		MaxEntries:           inv.MaxEntries,
		MaxVolume:            inv.MaxVolume,
		LastCalculatedVolume: inv.LastCalculatedVolume,
	}
	if err := tx.Create(&row).Error; err != nil {
		return dbErr(result.DBInsertFailed, err, "insert inventory")
	}
	inv.ID = entity.Int64(row.ID)
	return m.insertChildren(tx, inv)
}

func (m *InventoryModel) loadTx(tx *gorm.DB, id int64) (*entity.Inventory, error) {
	var row model.InventoryRow
	if err := tx.Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("inventory", id)
		}
		return nil, dbErr(result.DBQueryFailed, err, "load inventory %d", id)
	}
	var entries []model.InventoryEntryRow
	if err := tx.Where("inventory_id = ?", id).Order("id").Find(&entries).Error; err != nil {
		return nil, dbErr(result.DBQueryFailed, err, "load entries of inventory %d", id)
	}
	var owners []model.InventoryOwnerRow
	if err := tx.Where("inventory_id = ?", id).Order("id").Limit(1).Find(&owners).Error; err != nil {
		return nil, dbErr(result.DBQueryFailed, err, "load owner of inventory %d", id)
	}
	inv := &entity.Inventory{
		ID:                   entity.Int64(row.ID),
		MaxEntries:           row.MaxEntries,
		MaxVolume:            row.MaxVolume,
		LastCalculatedVolume: row.LastCalculatedVolume,
		Entries:              make([]*entity.InventoryEntry, 0, len(entries)),
	}
	for _, e := range entries {
		inv.Entries = append(inv.Entries, &entity.InventoryEntry{
			ID:           entity.Int64(e.ID),
			ItemID:       e.ItemID,
			Quantity:     e.Quantity,
			IsMaxStacked: e.IsMaxStacked,
			MobileItemID: e.MobileItemID,
		})
	}
	if len(owners) > 0 {
		o := owners[0]
		inv.Owner = ownerFromColumns(o.PlayerID, o.MobileID, o.ItemID, o.AssetID)
	}
	return inv, nil
}

// updateTx rewrites the inventory row and replaces entries and owner.
func (m *InventoryModel) updateTx(tx *gorm.DB, inv *entity.Inventory) error {
	id := *inv.ID
	if err := inv.Validate(); err != nil {
		return invalid("inventory %d: %v", id, err)
	}
	if err := requireRow(tx, model.TableInventories, "inventory", id); err != nil {
		return err
	}
	err := tx.Model(&model.InventoryRow{}).Where("id = ?", id).Updates(map[string]interface{}{
		"max_entries":            inv.MaxEntries,
		"max_volume":             inv.MaxVolume,
		"last_calculated_volume": inv.LastCalculatedVolume,
	}).Error
	if err != nil {
		return dbErr(result.DBUpdateFailed, err, "update inventory %d", id)
	}
	if err := m.deleteChildren(tx, id); err != nil {
		return err
	}
	return m.insertChildren(tx, inv)
}

func (m *InventoryModel) destroyTx(tx *gorm.DB, id int64) error {
	if err := m.deleteChildren(tx, id); err != nil {
		return err
	}
	return deleteByID(tx, model.TableInventories, "inventory", id, &model.InventoryRow{})
}

// Create inserts the inventory and its children. The id must be unset.
func (m *InventoryModel) Create(ctx context.Context, inv *entity.Inventory) []result.Result {
	if inv == nil || inv.ID != nil {
		return []result.Result{result.Fail(result.DBInvalidData, "create inventory: id must be unset")}
	}
	work := inv.Clone()
	return m.write(ctx, "inventory.create", result.DBInsertFailed, func(tx *gorm.DB) error {
		return m.createTx(tx, work)
	}, func() []string {
		*inv = *work
		return []string{"created inventory " + idString(inv.ID)}
	})
}

// Load reads the inventory with id.
func (m *InventoryModel) Load(ctx context.Context, id int64) (result.Result, *entity.Inventory) {
	return load(ctx, m.Base, "inventory.load", id, m.loadTx)
}

// Update rewrites the inventory row and replaces its children.
func (m *InventoryModel) Update(ctx context.Context, inv *entity.Inventory) []result.Result {
	if inv == nil || inv.ID == nil {
		return []result.Result{result.Fail(result.DBInvalidData, "update inventory: id is required")}
	}
	work := inv.Clone()
	return m.write(ctx, "inventory.update", result.DBUpdateFailed, func(tx *gorm.DB) error {
		return m.updateTx(tx, work)
	}, func() []string {
		*inv = *work
		return []string{"updated inventory " + idString(inv.ID)}
	})
}

// Save updates when the id is set and creates otherwise.
func (m *InventoryModel) Save(ctx context.Context, inv *entity.Inventory) []result.Result {
	if inv != nil && inv.ID != nil {
		return m.Update(ctx, inv)
	}
	return m.Create(ctx, inv)
}

// SaveAll updates several inventories in one transaction, so a split or a
// transfer lands completely or not at all.
func (m *InventoryModel) SaveAll(ctx context.Context, invs ...*entity.Inventory) []result.Result {
	work := make([]*entity.Inventory, len(invs))
	for i, inv := range invs {
		if inv == nil || inv.ID == nil {
			return []result.Result{result.Fail(result.DBInvalidData, "save inventories: id is required")}
		}
		work[i] = inv.Clone()
	}
	return m.write(ctx, "inventory.save_all", result.DBUpdateFailed, func(tx *gorm.DB) error {
		for _, w := range work {
			if err := m.updateTx(tx, w); err != nil {
				return err
			}
		}
		return nil
	}, func() []string {
		msgs := make([]string, len(invs))
		for i, inv := range invs {
			*inv = *work[i]
			msgs[i] = "updated inventory " + idString(inv.ID)
		}
		return msgs
	})
}

// Destroy deletes the inventory with id and everything it owns.
func (m *InventoryModel) Destroy(ctx context.Context, id int64) []result.Result {
	return m.write(ctx, "inventory.destroy", result.DBDeleteFailed, func(tx *gorm.DB) error {
		return m.destroyTx(tx, id)
	}, func() []string { return []string{"destroyed inventory " + idString(&id)} })
}

// Search pages through inventories. The search string is ignored.
func (m *InventoryModel) Search(ctx context.Context, p Page, _ string) (result.Result, []*entity.Inventory, int64) {
	return searchRows(ctx, m.Base, "inventory.search", model.TableInventories, p, allRows, m.loadTx)
}
