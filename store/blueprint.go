package store

import (
	"context"
	"errors"

	"github.com/jasonknight/space-mmo-sub002/game/entity"
	"github.com/jasonknight/space-mmo-sub002/model"
	"github.com/jasonknight/space-mmo-sub002/result"
	"gorm.io/gorm"
)

// ItemBlueprintModel persists blueprints and their components in one item
// namespace.
type ItemBlueprintModel struct {
	*Base
	tables model.TableSet
}

// NewItemBlueprintModel returns a model over b.
func NewItemBlueprintModel(b *Base, tables model.TableSet) *ItemBlueprintModel {
	return &ItemBlueprintModel{Base: b, tables: tables}
}

func (m *ItemBlueprintModel) insertRow(tx *gorm.DB, bp *entity.ItemBlueprint) error {
	if err := bp.Validate(); err != nil {
		return invalid("blueprint: %v", err)
	}
	row := model.BlueprintRow{BakeTimeMs: bp.BakeTimeMs}
	if err := tx.Table(m.tables.Blueprints).Create(&row).Error; err != nil {
		return dbErr(result.DBInsertFailed, err, "insert blueprint")
	}
	bp.ID = entity.Int64(row.ID)
	return nil
}

func (m *ItemBlueprintModel) insertComponents(tx *gorm.DB, bp *entity.ItemBlueprint) error {
	if len(bp.Components) == 0 {
		return nil
	}
	rows := make([]model.BlueprintComponentRow, 0, len(bp.Components))
	for _, id := range bp.ComponentIDs() {
		rows = append(rows, model.BlueprintComponentRow{
			ItemBlueprintID: *bp.ID,
			ComponentItemID: id,
			Ratio:           bp.Components[id].Ratio,
		})
	}
	if err := tx.Table(m.tables.Components).Create(&rows).Error; err != nil {
		return dbErr(result.DBInsertFailed, err, "insert components of blueprint %d", *bp.ID)
	}
	return nil
}

func (m *ItemBlueprintModel) deleteComponents(tx *gorm.DB, id int64) error {
	if err := tx.Table(m.tables.Components).Where("item_blueprint_id = ?", id).Delete(&model.BlueprintComponentRow{}).Error; err != nil {
		return dbErr(result.DBDeleteFailed, err, "delete components of blueprint %d", id)
	}
	return nil
}

func (m *ItemBlueprintModel) createTx(tx *gorm.DB, bp *entity.ItemBlueprint) error {
	if err := m.insertRow(tx, bp); err != nil {
		return err
	}
	return m.insertComponents(tx, bp)
}

func (m *ItemBlueprintModel) loadTx(tx *gorm.DB, id int64) (*entity.ItemBlueprint, error) {
	var row model.BlueprintRow
	if err := tx.Table(m.tables.Blueprints).Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("blueprint", id)
		}
		return nil, dbErr(result.DBQueryFailed, err, "load blueprint %d", id)
	}
	var comps []model.BlueprintComponentRow
	if err := tx.Table(m.tables.Components).Where("item_blueprint_id = ?", id).Order("id").Find(&comps).Error; err != nil {
		return nil, dbErr(result.DBQueryFailed, err, "load components of blueprint %d", id)
	}
	bp := &entity.ItemBlueprint{
		ID:         entity.Int64(row.ID),
		BakeTimeMs: row.BakeTimeMs,
		Components: make(map[int64]*entity.ItemBlueprintComponent, len(comps)),
	}
	for _, c := range comps {
		bp.Components[c.ComponentItemID] = &entity.ItemBlueprintComponent{ItemID: c.ComponentItemID, Ratio: c.Ratio}
	}
	return bp, nil
}

// updateTx rewrites the bake time and replaces every component row.
func (m *ItemBlueprintModel) updateTx(tx *gorm.DB, bp *entity.ItemBlueprint) error {
	if err := bp.Validate(); err != nil {
		return invalid("blueprint %d: %v", *bp.ID, err)
	}
	if err := requireRow(tx, m.tables.Blueprints, "blueprint", *bp.ID); err != nil {
		return err
	}
	if err := tx.Table(m.tables.Blueprints).Where("id = ?", *bp.ID).Update("bake_time_ms", bp.BakeTimeMs).Error; err != nil {
		return dbErr(result.DBUpdateFailed, err, "update blueprint %d", *bp.ID)
	}
	if err := m.deleteComponents(tx, *bp.ID); err != nil {
		return err
	}
	return m.insertComponents(tx, bp)
}

// destroyTx detaches items still pointing at the blueprint, then removes it.
func (m *ItemBlueprintModel) destroyTx(tx *gorm.DB, id int64) error {
	if err := tx.Table(m.tables.Items).Where("blueprint_id = ?", id).Update("blueprint_id", nil).Error; err != nil {
		return dbErr(result.DBDeleteFailed, err, "detach items from blueprint %d", id)
	}
	if err := m.deleteComponents(tx, id); err != nil {
		return err
	}
	return deleteByID(tx, m.tables.Blueprints, "blueprint", id, &model.BlueprintRow{})
}

// Create inserts the blueprint and its children. The id must be unset.
func (m *ItemBlueprintModel) Create(ctx context.Context, bp *entity.ItemBlueprint) []result.Result {
	if bp == nil || bp.ID != nil {
		return []result.Result{result.Fail(result.DBInvalidData, "create blueprint: id must be unset")}
	}
	work := bp.Clone()
	return m.write(ctx, "blueprint.create", result.DBInsertFailed, func(tx *gorm.DB) error {
		return m.createTx(tx, work)
	}, func() []string {
		*bp = *work
		return []string{"created blueprint " + idString(bp.ID)}
	})
}

// Load reads the blueprint with id.
func (m *ItemBlueprintModel) Load(ctx context.Context, id int64) (result.Result, *entity.ItemBlueprint) {
	return load(ctx, m.Base, "blueprint.load", id, m.loadTx)
}

// Update rewrites the blueprint row and replaces its children.
func (m *ItemBlueprintModel) Update(ctx context.Context, bp *entity.ItemBlueprint) []result.Result {
	if bp == nil || bp.ID == nil {
		return []result.Result{result.Fail(result.DBInvalidData, "update blueprint: id is required")}
	}
	work := bp.Clone()
	return m.write(ctx, "blueprint.update", result.DBUpdateFailed, func(tx *gorm.DB) error {
		return m.updateTx(tx, work)
	}, func() []string {
		*bp = *work
		return []string{"updated blueprint " + idString(bp.ID)}
	})
}

// Save updates when the id is set and creates otherwise.
func (m *ItemBlueprintModel) Save(ctx context.Context, bp *entity.ItemBlueprint) []result.Result {
	if bp != nil && bp.ID != nil {
		return m.Update(ctx, bp)
	}
	return m.Create(ctx, bp)
}

// Destroy deletes the blueprint with id and everything it owns.
func (m *ItemBlueprintModel) Destroy(ctx context.Context, id int64) []result.Result {
	return m.write(ctx, "blueprint.destroy", result.DBDeleteFailed, func(tx *gorm.DB) error {
		return m.destroyTx(tx, id)
	}, func() []string { return []string{"destroyed blueprint " + idString(&id)} })
}

// Search pages through blueprints. Blueprints have no name so search is
// ignored.
func (m *ItemBlueprintModel) Search(ctx context.Context, p Page, _ string) (result.Result, []*entity.ItemBlueprint, int64) {
	return searchRows(ctx, m.Base, "blueprint.search", m.tables.Blueprints, p, allRows, m.loadTx)
}
