package store

import (
	"context"
	"errors"

	"github.com/jasonknight/space-mmo-sub002/game/entity"
	"github.com/jasonknight/space-mmo-sub002/model"
	"github.com/jasonknight/space-mmo-sub002/result"
	"gorm.io/gorm"
)

// MobileModel persists mobiles and the attributes they own.
type MobileModel struct {
	*Base
	attrs model.AttributeTables
}

// NewMobileModel returns a model over b.
func NewMobileModel(b *Base) *MobileModel {
	return &MobileModel{Base: b, attrs: model.DefaultAttributeTables}
}

func mobileColumns(mob *entity.Mobile) map[string]interface{} {
	o := mob.Owner.Clone()
	return map[string]interface{}{
		"mobile_type":      string(mob.MobileType),
		"what_we_call_you": mob.WhatWeCallYou,
		"owner_player_id":  o.PlayerID,
		"owner_mobile_id":  o.MobileID,
		"owner_item_id":    o.ItemID,
		"owner_asset_id":   o.AssetID,
	}
}

func (m *MobileModel) createTx(tx *gorm.DB, mob *entity.Mobile) error {
	if err := mob.Validate(); err != nil {
		return invalid("mobile: %v", err)
	}
	o := mob.Owner.Clone()
	row := model.MobileRow{
		MobileType:    string(mob.MobileType),
		WhatWeCallYou: mob.WhatWeCallYou,
		OwnerPlayerID: o.PlayerID,
		OwnerMobileID: o.MobileID,
		OwnerItemID:   o.ItemID,
		OwnerAssetID:  o.AssetID,
	}
	if err := tx.Create(&row).Error; err != nil {
		return dbErr(result.DBInsertFailed, err, "insert mobile %q", mob.WhatWeCallYou)
	}
	mob.ID = entity.Int64(row.ID)
	return insertAttributes(tx, m.attrs, mob.Attributes, entity.MobileOwner(row.ID))
}

func (m *MobileModel) loadTx(tx *gorm.DB, id int64) (*entity.Mobile, error) {
	var row model.MobileRow
	if err := tx.Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("mobile", id)
		}
		return nil, dbErr(result.DBQueryFailed, err, "load mobile %d", id)
	}
	t, err := entity.ParseMobileType(row.MobileType)
	if err != nil {
		return nil, result.Errorf(result.DBInvalidData, "mobile %d: %v", id, err)
	}
	mob := &entity.Mobile{
		ID:            entity.Int64(row.ID),
		MobileType:    t,
		WhatWeCallYou: row.WhatWeCallYou,
		Owner:         ownerFromColumns(row.OwnerPlayerID, row.OwnerMobileID, row.OwnerItemID, row.OwnerAssetID),
	}
	mob.Attributes, err = loadOwnedAttributes(tx, m.attrs, colMobileID, id, entity.MobileOwner(id))
	if err != nil {
		return nil, err
	}
	return mob, nil
}

func (m *MobileModel) updateTx(tx *gorm.DB, mob *entity.Mobile) error {
	id := *mob.ID
	if err := mob.Validate(); err != nil {
		return invalid("mobile %d: %v", id, err)
	}
	if err := requireRow(tx, model.TableMobiles, "mobile", id); err != nil {
		return err
	}
	if err := tx.Model(&model.MobileRow{}).Where("id = ?", id).Updates(mobileColumns(mob)).Error; err != nil {
		return dbErr(result.DBUpdateFailed, err, "update mobile %d", id)
	}
	if err := deleteOwnedAttributes(tx, m.attrs, colMobileID, id); err != nil {
		return err
	}
	for _, a := range mob.Attributes {
		a.ID = nil
	}
	return insertAttributes(tx, m.attrs, mob.Attributes, entity.MobileOwner(id))
}

func (m *MobileModel) destroyTx(tx *gorm.DB, id int64) error {
	if err := deleteOwnedAttributes(tx, m.attrs, colMobileID, id); err != nil {
		return err
	}
	return deleteByID(tx, model.TableMobiles, "mobile", id, &model.MobileRow{})
}

// ownedByPlayer lists the mobiles whose owner is the player, by id.
func (m *MobileModel) ownedByPlayer(tx *gorm.DB, playerID int64) ([]int64, error) {
	var ids []int64
	if err := tx.Model(&model.MobileRow{}).Where("owner_player_id = ?", playerID).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, dbErr(result.DBQueryFailed, err, "list mobiles of player %d", playerID)
	}
	return ids, nil
}

// Create inserts the mobile and its children. The id must be unset.
func (m *MobileModel) Create(ctx context.Context, mob *entity.Mobile) []result.Result {
	if mob == nil || mob.ID != nil {
		return []result.Result{result.Fail(result.DBInvalidData, "create mobile: id must be unset")}
	}
	work := mob.Clone()
	return m.write(ctx, "mobile.create", result.DBInsertFailed, func(tx *gorm.DB) error {
		return m.createTx(tx, work)
	}, func() []string {
		*mob = *work
		return []string{"created mobile " + idString(mob.ID)}
	})
}

// Load reads the mobile with id.
func (m *MobileModel) Load(ctx context.Context, id int64) (result.Result, *entity.Mobile) {
	return load(ctx, m.Base, "mobile.load", id, m.loadTx)
}

// Update rewrites the mobile row and replaces its children.
func (m *MobileModel) Update(ctx context.Context, mob *entity.Mobile) []result.Result {
	if mob == nil || mob.ID == nil {
		return []result.Result{result.Fail(result.DBInvalidData, "update mobile: id is required")}
	}
	work := mob.Clone()
	return m.write(ctx, "mobile.update", result.DBUpdateFailed, func(tx *gorm.DB) error {
		return m.updateTx(tx, work)
	}, func() []string {
		*mob = *work
		return []string{"updated mobile " + idString(mob.ID)}
	})
}

// Save updates when the id is set and creates otherwise.
func (m *MobileModel) Save(ctx context.Context, mob *entity.Mobile) []result.Result {
	if mob != nil && mob.ID != nil {
		return m.Update(ctx, mob)
	}
	return m.Create(ctx, mob)
}

// Destroy deletes the mobile with id and everything it owns.
func (m *MobileModel) Destroy(ctx context.Context, id int64) []result.Result {
	return m.write(ctx, "mobile.destroy", result.DBDeleteFailed, func(tx *gorm.DB) error {
		return m.destroyTx(tx, id)
	}, func() []string { return []string{"destroyed mobile " + idString(&id)} })
}

// Search pages through rows whose text columns contain search.
func (m *MobileModel) Search(ctx context.Context, p Page, search string) (result.Result, []*entity.Mobile, int64) {
	return searchRows(ctx, m.Base, "mobile.search", model.TableMobiles, p, likeScope(search, "what_we_call_you"), m.loadTx)
}
