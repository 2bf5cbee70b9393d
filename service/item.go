package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jasonknight/space-mmo-sub002/api/rpc"
	"github.com/jasonknight/space-mmo-sub002/cache/lru"
	"github.com/jasonknight/space-mmo-sub002/game/entity"
	"github.com/jasonknight/space-mmo-sub002/result"
	"github.com/jasonknight/space-mmo-sub002/store"
	"go.uber.org/zap"
)

// Item method names.
const (
	MethodItemCreate   = "create"
	MethodItemLoad     = "load"
	MethodItemSave     = "save"
	MethodItemDestroy  = "destroy"
	MethodItemList     = "list_records"
	MethodItemDescribe = "describe"
)

// DomainItem names the item invalidation channel.
const DomainItem = "item"

type ItemRequest struct {
	Data ItemRequestData `msgpack:"data" json:"data"`
}

type ItemRequestData struct {
	CreateItem  *ItemPayload     `msgpack:"create_item,omitempty" json:"create_item,omitempty"`
	LoadItem    *ItemID          `msgpack:"load_item,omitempty" json:"load_item,omitempty"`
	SaveItem    *ItemPayload     `msgpack:"save_item,omitempty" json:"save_item,omitempty"`
	DestroyItem *ItemID          `msgpack:"destroy_item,omitempty" json:"destroy_item,omitempty"`
	ListItems   *ItemListRequest `msgpack:"list_items,omitempty" json:"list_items,omitempty"`
	Describe    *DescribeRequest `msgpack:"describe,omitempty" json:"describe,omitempty"`
}

func (d *ItemRequestData) populated() []string {
	return setNames(
		variant{"create_item", d.CreateItem != nil},
		variant{"load_item", d.LoadItem != nil},
		variant{"save_item", d.SaveItem != nil},
		variant{"destroy_item", d.DestroyItem != nil},
		variant{"list_items", d.ListItems != nil},
		variant{"describe", d.Describe != nil},
	)
}

// ItemPayload carries an item. BackingTable selects the catalog (ITEMS, the
// default) or the per-mobile namespace (MOBILE_ITEMS).
type ItemPayload struct {
	Item         *entity.Item        `msgpack:"item" json:"item"`
	BackingTable entity.BackingTable `msgpack:"backing_table,omitempty" json:"backing_table,omitempty"`
}

type ItemID struct {
	ItemID       int64               `msgpack:"item_id" json:"item_id"`
	BackingTable entity.BackingTable `msgpack:"backing_table,omitempty" json:"backing_table,omitempty"`
}

type ItemListRequest struct {
	Page         int                 `msgpack:"page" json:"page"`
	PerPage      int                 `msgpack:"per_page" json:"per_page"`
	Search       string              `msgpack:"search,omitempty" json:"search,omitempty"`
	BackingTable entity.BackingTable `msgpack:"backing_table,omitempty" json:"backing_table,omitempty"`
}

func (l *ItemListRequest) page() store.Page {
	return store.Page{Page: l.Page, PerPage: l.PerPage}
}

type ItemList struct {
	Items      []*entity.Item `msgpack:"items" json:"items"`
	TotalCount int64          `msgpack:"total_count" json:"total_count"`
}

type ItemResponse struct {
	Results []result.Result   `msgpack:"results" json:"results"`
	Data    *ItemResponseData `msgpack:"response_data,omitempty" json:"response_data,omitempty"`
}

type ItemResponseData struct {
	CreateItem  *ItemPayload        `msgpack:"create_item,omitempty" json:"create_item,omitempty"`
	LoadItem    *ItemPayload        `msgpack:"load_item,omitempty" json:"load_item,omitempty"`
	SaveItem    *ItemPayload        `msgpack:"save_item,omitempty" json:"save_item,omitempty"`
	DestroyItem *Deleted            `msgpack:"destroy_item,omitempty" json:"destroy_item,omitempty"`
	ListItems   *ItemList           `msgpack:"list_items,omitempty" json:"list_items,omitempty"`
	Describe    *ServiceDescription `msgpack:"describe,omitempty" json:"describe,omitempty"`
}

type itemKey struct {
	backing entity.BackingTable
	id      int64
}

func (k itemKey) String() string { return string(k.backing) + ":" + strconv.FormatInt(k.id, 10) }

func parseItemKey(s string) (itemKey, error) {
	b, id, ok := strings.Cut(s, ":")
	if !ok {
		return itemKey{}, fmt.Errorf("bad item key %q", s)
	}
	backing, err := entity.ParseBackingTable(b)
	if err != nil {
		return itemKey{}, err
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return itemKey{}, err
	}
	return itemKey{backing: backing, id: n}, nil
}

// ItemService serves catalog items and mobile items.
type ItemService struct {
	models map[entity.BackingTable]*store.ItemModel
	cache  *lru.Cache[itemKey, *entity.Item]
	peers  *Invalidator
	logger *zap.Logger
}

// NewItemService serves each model under its own backing table.
func NewItemService(cacheSize int, peers *Invalidator, logger *zap.Logger, models ...*store.ItemModel) *ItemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ItemService{
		models: make(map[entity.BackingTable]*store.ItemModel, len(models)),
		cache:  lru.New[itemKey, *entity.Item](cacheSize),
		peers:  peers,
		logger: logger,
	}
	for _, m := range models {
		s.models[m.Tables().Backing] = m
	}
	return s
}

// Register binds every method to srv.
func (s *ItemService) Register(srv *rpc.Server) {
	srv.Handle(MethodItemCreate, rpc.Bind(s.Create))
	srv.Handle(MethodItemLoad, rpc.Bind(s.Load))
	srv.Handle(MethodItemSave, rpc.Bind(s.Save))
	srv.Handle(MethodItemDestroy, rpc.Bind(s.Destroy))
	srv.Handle(MethodItemList, rpc.Bind(s.List))
	srv.Handle(MethodItemDescribe, rpc.Bind(s.Describe))
}

// Listen drops cache entries written by peers until the returned stop func runs.
func (s *ItemService) Listen(ctx context.Context) (func(), error) {
	return s.peers.Listen(ctx, DomainItem, func(key string) {
		if k, err := parseItemKey(key); err == nil {
			s.cache.Invalidate(k)
		}
	})
}

func (s *ItemService) model(b entity.BackingTable) (*store.ItemModel, entity.BackingTable, *result.Result) {
	if b == "" {
		b = entity.BackingItems
	}
	m, ok := s.models[b]
	if !ok {
		r := result.Failf(result.DBInvalidData, "backing table %q is not served", b)
		return nil, b, &r
	}
	return m, b, nil
}

func (s *ItemService) drop(ctx context.Context, k itemKey) {
	s.cache.Invalidate(k)
	s.peers.Publish(ctx, DomainItem, k.String())
}

func (s *ItemService) put(ctx context.Context, k itemKey, it *entity.Item) {
	s.cache.Put(k, it)
	s.peers.Publish(ctx, DomainItem, k.String())
}

func itemFail(r result.Result) *ItemResponse { return &ItemResponse{Results: one(r)} }

// Create handles create.
func (s *ItemService) Create(ctx context.Context, req *ItemRequest) (*ItemResponse, error) {
	if bad := expect(req.Data.populated(), "create_item"); bad != nil {
		return itemFail(*bad), nil
	}
	in := req.Data.CreateItem
	m, backing, bad := s.model(in.BackingTable)
	if bad != nil {
		return itemFail(*bad), nil
	}
	if in.Item == nil {
		return itemFail(result.Fail(result.DBInvalidData, "create_item: item is required")), nil
	}
	rs := m.Create(ctx, in.Item)
	if !result.IsOK(rs) {
		return &ItemResponse{Results: rs}, nil
	}
	s.put(ctx, itemKey{backing, *in.Item.ID}, in.Item)
	return &ItemResponse{Results: rs, Data: &ItemResponseData{
		CreateItem: &ItemPayload{Item: in.Item, BackingTable: backing},
	}}, nil
}

// Load handles load, reading through the cache.
func (s *ItemService) Load(ctx context.Context, req *ItemRequest) (*ItemResponse, error) {
	if bad := expect(req.Data.populated(), "load_item"); bad != nil {
		return itemFail(*bad), nil
	}
	in := req.Data.LoadItem
	m, backing, bad := s.model(in.BackingTable)
	if bad != nil {
		return itemFail(*bad), nil
	}
	k := itemKey{backing, in.ItemID}
	if it, ok := s.cache.Get(k); ok {
		return &ItemResponse{
			Results: one(result.OKf("loaded item %d from cache", in.ItemID)),
			Data:    &ItemResponseData{LoadItem: &ItemPayload{Item: it, BackingTable: backing}},
		}, nil
	}
	r, it := m.Load(ctx, in.ItemID)
	if !r.Succeeded() {
		return itemFail(r), nil
	}
	s.cache.Put(k, it)
	return &ItemResponse{Results: one(r), Data: &ItemResponseData{
		LoadItem: &ItemPayload{Item: it, BackingTable: backing},
	}}, nil
}

// Save handles save and refreshes the cache on success.
func (s *ItemService) Save(ctx context.Context, req *ItemRequest) (*ItemResponse, error) {
	if bad := expect(req.Data.populated(), "save_item"); bad != nil {
		return itemFail(*bad), nil
	}
	in := req.Data.SaveItem
	m, backing, bad := s.model(in.BackingTable)
	if bad != nil {
		return itemFail(*bad), nil
	}
	if in.Item == nil {
		return itemFail(result.Fail(result.DBInvalidData, "save_item: item is required")), nil
	}
	rs := m.Save(ctx, in.Item)
	if !result.IsOK(rs) {
		if in.Item.ID != nil {
			s.drop(ctx, itemKey{backing, *in.Item.ID})
		}
		return &ItemResponse{Results: rs}, nil
	}
	s.put(ctx, itemKey{backing, *in.Item.ID}, in.Item)
	return &ItemResponse{Results: rs, Data: &ItemResponseData{
		SaveItem: &ItemPayload{Item: in.Item, BackingTable: backing},
	}}, nil
}

// Destroy handles destroy and drops the cache entry.
func (s *ItemService) Destroy(ctx context.Context, req *ItemRequest) (*ItemResponse, error) {
	if bad := expect(req.Data.populated(), "destroy_item"); bad != nil {
		return itemFail(*bad), nil
	}
	in := req.Data.DestroyItem
	m, backing, bad := s.model(in.BackingTable)
	if bad != nil {
		return itemFail(*bad), nil
	}
	rs := m.Destroy(ctx, in.ItemID)
	if !result.IsOK(rs) {
		return &ItemResponse{Results: rs}, nil
	}
	s.drop(ctx, itemKey{backing, in.ItemID})
	return &ItemResponse{Results: rs, Data: &ItemResponseData{DestroyItem: &Deleted{ID: in.ItemID}}}, nil
}

// List handles list_records. Results are not cached.
func (s *ItemService) List(ctx context.Context, req *ItemRequest) (*ItemResponse, error) {
	if bad := expect(req.Data.populated(), "list_items"); bad != nil {
		return itemFail(*bad), nil
	}
	in := req.Data.ListItems
	m, _, bad := s.model(in.BackingTable)
	if bad != nil {
		return itemFail(*bad), nil
	}
	r, items, total := m.Search(ctx, in.page(), in.Search)
	if !r.Succeeded() {
		return itemFail(r), nil
	}
	return &ItemResponse{Results: one(r), Data: &ItemResponseData{
		ListItems: &ItemList{Items: items, TotalCount: total},
	}}, nil
}

// Describe returns the method and enumeration metadata.
func (s *ItemService) Describe(ctx context.Context, req *ItemRequest) (*ItemResponse, error) {
	if bad := expect(req.Data.populated(), "describe"); bad != nil {
		return itemFail(*bad), nil
	}
	d := DescribeItemService()
	return &ItemResponse{
		Results: one(result.OKf("%s %s", d.Name, d.Version)),
		Data:    &ItemResponseData{Describe: d},
	}, nil
}
