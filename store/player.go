package store

import (
	"context"
	"errors"
	"slices"

	"github.com/jasonknight/space-mmo-sub002/game/entity"
	"github.com/jasonknight/space-mmo-sub002/model"
	"github.com/jasonknight/space-mmo-sub002/result"
	"gorm.io/gorm"
)

// PlayerModel persists players together with the mobile they own.
type PlayerModel struct {
	*Base
	mobiles *MobileModel
}

// NewPlayerModel returns a model over b.
func NewPlayerModel(b *Base) *PlayerModel {
	return &PlayerModel{Base: b, mobiles: NewMobileModel(b)}
}

// Mobiles returns the mobile model sharing this player model's connection.
func (m *PlayerModel) Mobiles() *MobileModel { return m.mobiles }

// attachMobile points the player's mobile at the player.
func attachMobile(p *entity.Player) {
	if p.Mobile == nil {
		return
	}
	p.Mobile.Owner = entity.PlayerOwner(*p.ID)
	if p.Mobile.MobileType == "" {
		p.Mobile.MobileType = entity.MobilePlayer
	}
}

func (m *PlayerModel) createTx(tx *gorm.DB, p *entity.Player) error {
	p.Over13 = entity.Over13(p.YearOfBirth, m.now())
	row := model.PlayerRow{
		FullName:      p.FullName,
		WhatWeCallYou: p.WhatWeCallYou,
		SecurityToken: p.SecurityToken,
		Over13:        p.Over13,
		YearOfBirth:   p.YearOfBirth,
		Email:         p.Email,
	}
	if err := tx.Create(&row).Error; err != nil {
		return dbErr(result.DBInsertFailed, err, "insert player %q", p.WhatWeCallYou)
	}
	p.ID = entity.Int64(row.ID)
	if p.Mobile == nil {
		return nil
	}
	attachMobile(p)
	p.Mobile.ID = nil
	return m.mobiles.createTx(tx, p.Mobile)
}

func (m *PlayerModel) loadTx(tx *gorm.DB, id int64) (*entity.Player, error) {
	var row model.PlayerRow
	if err := tx.Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("player", id)
		}
		return nil, dbErr(result.DBQueryFailed, err, "load player %d", id)
	}
	p := &entity.Player{
		ID:            entity.Int64(row.ID),
		FullName:      row.FullName,
		WhatWeCallYou: row.WhatWeCallYou,
		SecurityToken: row.SecurityToken,
		Over13:        row.Over13,
		YearOfBirth:   row.YearOfBirth,
		Email:         row.Email,
	}
	ids, err := m.mobiles.ownedByPlayer(tx, id)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		if p.Mobile, err = m.mobiles.loadTx(tx, ids[0]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// updateTx rewrites the player row and replaces its mobile. A nil Mobile
// deletes the stored one; a mobile without id is created for the player and
// any other mobile the player owned is deleted. A mobile id the player does
// not own is rejected.
func (m *PlayerModel) updateTx(tx *gorm.DB, p *entity.Player) error {
	id := *p.ID
	if err := requireRow(tx, model.TablePlayers, "player", id); err != nil {
		return err
	}
	owned, err := m.mobiles.ownedByPlayer(tx, id)
	if err != nil {
		return err
	}
	keep := int64(0)
	if p.Mobile != nil && p.Mobile.ID != nil {
		keep = *p.Mobile.ID
		if !slices.Contains(owned, keep) {
			return result.Errorf(result.DBInvalidData, "mobile %d is not owned by player %d", keep, id)
		}
	}

	p.Over13 = entity.Over13(p.YearOfBirth, m.now())
	err = tx.Model(&model.PlayerRow{}).Where("id = ?", id).Updates(map[string]interface{}{
		"full_name":        p.FullName,
		"what_we_call_you": p.WhatWeCallYou,
		"security_token":   p.SecurityToken,
		"over_13":          p.Over13,
		"year_of_birth":    p.YearOfBirth,
		"email":            p.Email,
	}).Error
	if err != nil {
		return dbErr(result.DBUpdateFailed, err, "update player %d", id)
	}
	for _, mid := range owned {
		if mid == keep {
			continue
		}
		if err := m.mobiles.destroyTx(tx, mid); err != nil {
			return err
		}
	}
	if p.Mobile == nil {
		return nil
	}
	attachMobile(p)
	if p.Mobile.ID == nil {
		return m.mobiles.createTx(tx, p.Mobile)
	}
	return m.mobiles.updateTx(tx, p.Mobile)
}

// destroyTx removes the player's mobiles with their attributes, then the
// player row.
func (m *PlayerModel) destroyTx(tx *gorm.DB, id int64) error {
	ids, err := m.mobiles.ownedByPlayer(tx, id)
	if err != nil {
		return err
	}
	for _, mid := range ids {
		if err := m.mobiles.destroyTx(tx, mid); err != nil {
			return err
		}
	}
	return deleteByID(tx, model.TablePlayers, "player", id, &model.PlayerRow{})
}

func playerMessages(verb string, p *entity.Player) []string {
	out := []string{verb + " player " + idString(p.ID)}
	if p.Mobile != nil {
		out = append(out, verb+" mobile "+idString(p.Mobile.ID))
	}
	return out
}

// Create inserts the player and its children. The id must be unset.
func (m *PlayerModel) Create(ctx context.Context, p *entity.Player) []result.Result {
	if p == nil || p.ID != nil {
		return []result.Result{result.Fail(result.DBInvalidData, "create player: id must be unset")}
	}
	work := p.Clone()
	return m.write(ctx, "player.create", result.DBInsertFailed, func(tx *gorm.DB) error {
		return m.createTx(tx, work)
	}, func() []string {
		*p = *work
		return playerMessages("created", p)
	})
}

// Load reads the player with id.
func (m *PlayerModel) Load(ctx context.Context, id int64) (result.Result, *entity.Player) {
	return load(ctx, m.Base, "player.load", id, m.loadTx)
}

// Update rewrites the player row and replaces its mobile. See updateTx.
func (m *PlayerModel) Update(ctx context.Context, p *entity.Player) []result.Result {
	if p == nil || p.ID == nil {
		return []result.Result{result.Fail(result.DBInvalidData, "update player: id is required")}
	}
	work := p.Clone()
	return m.write(ctx, "player.update", result.DBUpdateFailed, func(tx *gorm.DB) error {
		return m.updateTx(tx, work)
	}, func() []string {
		*p = *work
		return playerMessages("updated", p)
	})
}

// Save updates when the id is set and creates otherwise.
func (m *PlayerModel) Save(ctx context.Context, p *entity.Player) []result.Result {
	if p != nil && p.ID != nil {
		return m.Update(ctx, p)
	}
	return m.Create(ctx, p)
}

// Destroy deletes the player with id and everything it owns.
func (m *PlayerModel) Destroy(ctx context.Context, id int64) []result.Result {
	return m.write(ctx, "player.destroy", result.DBDeleteFailed, func(tx *gorm.DB) error {
		return m.destroyTx(tx, id)
	}, func() []string { return []string{"destroyed player " + idString(&id)} })
}

// Search pages through rows whose text columns contain search.
func (m *PlayerModel) Search(ctx context.Context, p Page, search string) (result.Result, []*entity.Player, int64) {
	return searchRows(ctx, m.Base, "player.search", model.TablePlayers, p,
		likeScope(search, "full_name", "what_we_call_you", "email"), m.loadTx)
}
