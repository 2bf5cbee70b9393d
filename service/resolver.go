package service

import (
	"context"

	"github.com/jasonknight/space-mmo-sub002/game/catalog"
	"github.com/jasonknight/space-mmo-sub002/game/entity"
	"github.com/jasonknight/space-mmo-sub002/result"
	"github.com/jasonknight/space-mmo-sub002/store"
)

// ItemResolver finds the item definition behind an inventory entry.
type ItemResolver interface {
	ResolveItem(ctx context.Context, id int64) (*entity.Item, error)
}

// ItemLookup resolves from the database first and falls back to the
// in-process catalog. Either side may be nil.
type ItemLookup struct {
	items   *store.ItemModel
	catalog *catalog.Catalog
}

// NewItemLookup resolves from items, then cat.
func NewItemLookup(items *store.ItemModel, cat *catalog.Catalog) *ItemLookup {
	return &ItemLookup{items: items, catalog: cat}
}

// ResolveItem returns the stored item, or the catalog item with the same id.
func (l *ItemLookup) ResolveItem(ctx context.Context, id int64) (*entity.Item, error) {
	if l.items != nil {
		r, it := l.items.Load(ctx, id)
		if r.Succeeded() {
			return it, nil
		}
		if r.Code() != result.DBRecordNotFound {
			return nil, &result.Error{Code: r.Code(), Message: r.Message}
		}
	}
	if l.catalog != nil {
		if it, err := l.catalog.FindItemByID(id); err == nil {
			return it, nil
		}
	}
	return nil, result.Errorf(result.ItemNotFound, "item %d not found", id)
}
