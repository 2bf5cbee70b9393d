// Package seed loads fixture players, NPCs and the material catalog into a
// fresh database.
package seed

import (
	"context"
	"fmt"

	"github.com/jasonknight/space-mmo-sub002/game/catalog"
	"github.com/jasonknight/space-mmo-sub002/game/entity"
	"github.com/jasonknight/space-mmo-sub002/result"
	"github.com/jasonknight/space-mmo-sub002/store"
	"go.uber.org/zap"
)

// Seeder writes fixtures through the store models.
type Seeder struct {
	players *store.PlayerModel
	mobiles *store.MobileModel
	items   *store.ItemModel
	logger  *zap.Logger
}

// New returns a Seeder over the given models.
func New(players *store.PlayerModel, items *store.ItemModel, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{players: players, mobiles: players.Mobiles(), items: items, logger: logger}
}

func attr(name string, t entity.AttributeType, v float64) *entity.Attribute {
	return &entity.Attribute{InternalName: name, Visible: true, AttributeType: t, Value: entity.DoubleValue(v)}
}

func stats(str, dex, con, luck float64) map[entity.AttributeType]*entity.Attribute {
	return map[entity.AttributeType]*entity.Attribute{
		entity.AttrStrength:     attr("strength", entity.AttrStrength, str),
		entity.AttrDexterity:    attr("dexterity", entity.AttrDexterity, dex),
		entity.AttrConstitution: attr("constitution", entity.AttrConstitution, con),
		entity.AttrLuck:         attr("luck", entity.AttrLuck, luck),
	}
}

// TestPlayers are the players written by Players.
func TestPlayers() []*entity.Player {
	mk := func(full, call string, yob int64, s map[entity.AttributeType]*entity.Attribute) *entity.Player {
		return &entity.Player{
			FullName:      full,
			WhatWeCallYou: call,
			SecurityToken: "seed-" + call,
			YearOfBirth:   yob,
			Email:         call + "@example.com",
			Mobile:        &entity.Mobile{MobileType: entity.MobilePlayer, WhatWeCallYou: call, Attributes: s},
		}
	}
	return []*entity.Player{
		mk("Ada Lovelace", "ada", 1990, stats(8, 12, 10, 5)),
		mk("Grace Hopper", "grace", 1985, stats(7, 11, 12, 6)),
		mk("Young Tester", "kid", 2018, stats(4, 6, 5, 9)),
	}
}

// NPCs are the mobiles written by NPCs.
func NPCs() []*entity.Mobile {
	mk := func(name string, s map[entity.AttributeType]*entity.Attribute) *entity.Mobile {
		return &entity.Mobile{MobileType: entity.MobileNPC, WhatWeCallYou: name, Attributes: s}
	}
	return []*entity.Mobile{
		mk("station quartermaster", stats(10, 10, 10, 10)),
		mk("ore trader", stats(6, 9, 8, 14)),
		mk("docking drone", stats(15, 4, 20, 1)),
	}
}

func firstFailure(what string, rs []result.Result) error {
	if r, failed := result.FirstFailure(rs); failed {
		return fmt.Errorf("seed %s: %s", what, r)
	}
	return nil
}

// Players writes TestPlayers with their mobiles and attributes.
func (s *Seeder) Players(ctx context.Context) (int, error) {
	ps := TestPlayers()
	for _, p := range ps {
		if err := firstFailure("player "+p.WhatWeCallYou, s.players.Create(ctx, p)); err != nil {
			return 0, err
		}
		s.logger.Info("seeded player", zap.Int64("id", *p.ID), zap.String("name", p.WhatWeCallYou))
	}
	return len(ps), nil
}

// NPCs writes the NPC mobiles.
func (s *Seeder) NPCs(ctx context.Context) (int, error) {
	ms := NPCs()
	for _, m := range ms {
		if err := firstFailure("npc "+m.WhatWeCallYou, s.mobiles.Create(ctx, m)); err != nil {
			return 0, err
		}
		s.logger.Info("seeded npc", zap.Int64("id", *m.ID), zap.String("name", m.WhatWeCallYou))
	}
	return len(ms), nil
}

// Items writes every catalog item. Items already stored under the same
// internal name are reused, so seeding twice is harmless. Raw materials come
// first in catalog order, so blueprint components can be remapped from
// catalog ids to stored ids as refined items are written.
func (s *Seeder) Items(ctx context.Context, cat *catalog.Catalog) (map[int64]int64, error) {
	stored := make(map[int64]int64, cat.Len())
	for _, it := range cat.Items() {
		catalogID := *it.ID
		if r, existing := s.items.FindByName(ctx, it.InternalName); r.Succeeded() {
			stored[catalogID] = *existing.ID
			continue
		} else if r.Code() != result.DBRecordNotFound {
			return nil, fmt.Errorf("seed item %s: %s", it.InternalName, r)
		}

		fresh, err := detach(it, stored)
		if err != nil {
			return nil, err
		}
		if err := firstFailure("item "+it.InternalName, s.items.Create(ctx, fresh)); err != nil {
			return nil, err
		}
		stored[catalogID] = *fresh.ID
		s.logger.Info("seeded item",
			zap.Int64("id", *fresh.ID),
			zap.Int64("catalog_id", catalogID),
			zap.String("name", fresh.InternalName))
	}
	return stored, nil
}

// detach clears catalog ids and rewrites component keys to stored ids.
func detach(it *entity.Item, stored map[int64]int64) (*entity.Item, error) {
	out := it.Clone()
	out.ID = nil
	for _, a := range out.Attributes {
		a.ID = nil
		a.Owner = entity.Owner{}
	}
	if out.Blueprint == nil {
		return out, nil
	}
	out.Blueprint.ID = nil
	comps := make(map[int64]*entity.ItemBlueprintComponent, len(out.Blueprint.Components))
	for catalogID, c := range out.Blueprint.Components {
		id, ok := stored[catalogID]
		if !ok {
			return nil, fmt.Errorf("seed item %s: component %d not seeded yet", it.InternalName, catalogID)
		}
		comps[id] = &entity.ItemBlueprintComponent{ItemID: id, Ratio: c.Ratio}
	}
	out.Blueprint.Components = comps
	return out, nil
}
