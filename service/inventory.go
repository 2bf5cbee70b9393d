package service

import (
	"context"
	"strconv"

	"github.com/jasonknight/space-mmo-sub002/api/rpc"
	"github.com/jasonknight/space-mmo-sub002/cache/lru"
	"github.com/jasonknight/space-mmo-sub002/game/entity"
	"github.com/jasonknight/space-mmo-sub002/game/inventory"
	"github.com/jasonknight/space-mmo-sub002/result"
	"github.com/jasonknight/space-mmo-sub002/store"
	"go.uber.org/zap"
)

// Inventory method names.
const (
	MethodInventoryCreate                 = "create"
	MethodInventoryLoad                   = "load"
	MethodInventorySave                   = "save"
	MethodInventoryDestroy                = "destroy"
	MethodInventorySplitStack             = "split_stack"
	MethodInventoryTransfer               = "transfer_item"
	MethodInventoryTransferFirstAvailable = "transfer_item_first_available"
	MethodInventoryList                   = "list_records"
)

// DomainInventory names the inventory invalidation channel.
const DomainInventory = "inventory"

type InventoryRequest struct {
	Data InventoryRequestData `msgpack:"data" json:"data"`
}

type InventoryRequestData struct {
	CreateInventory            *InventoryPayload              `msgpack:"create_inventory,omitempty" json:"create_inventory,omitempty"`
	LoadInventory              *InventoryID                   `msgpack:"load_inventory,omitempty" json:"load_inventory,omitempty"`
	SaveInventory              *InventoryPayload              `msgpack:"save_inventory,omitempty" json:"save_inventory,omitempty"`
	DestroyInventory           *InventoryID                   `msgpack:"destroy_inventory,omitempty" json:"destroy_inventory,omitempty"`
	SplitStack                 *SplitStackRequest             `msgpack:"split_stack,omitempty" json:"split_stack,omitempty"`
	TransferItem               *TransferRequest               `msgpack:"transfer_item,omitempty" json:"transfer_item,omitempty"`
	TransferItemFirstAvailable *TransferFirstAvailableRequest `msgpack:"transfer_item_first_available,omitempty" json:"transfer_item_first_available,omitempty"`
	ListInventories            *ListRequest                   `msgpack:"list_inventories,omitempty" json:"list_inventories,omitempty"`
}

func (d *InventoryRequestData) populated() []string {
	return setNames(
		variant{"create_inventory", d.CreateInventory != nil},
		variant{"load_inventory", d.LoadInventory != nil},
		variant{"save_inventory", d.SaveInventory != nil},
		variant{"destroy_inventory", d.DestroyInventory != nil},
		variant{"split_stack", d.SplitStack != nil},
		variant{"transfer_item", d.TransferItem != nil},
		variant{"transfer_item_first_available", d.TransferItemFirstAvailable != nil},
		variant{"list_inventories", d.ListInventories != nil},
	)
}

type InventoryPayload struct {
	Inventory *entity.Inventory `msgpack:"inventory" json:"inventory"`
}

type InventoryID struct {
	InventoryID int64 `msgpack:"inventory_id" json:"inventory_id"`
}

type SplitStackRequest struct {
	InventoryID int64   `msgpack:"inventory_id" json:"inventory_id"`
	EntryIndex  int     `msgpack:"entry_index" json:"entry_index"`
	NewQuantity float64 `msgpack:"new_quantity" json:"new_quantity"`
}

type TransferRequest struct {
	FromInventoryID int64   `msgpack:"from_inventory_id" json:"from_inventory_id"`
	ToInventoryID   int64   `msgpack:"to_inventory_id" json:"to_inventory_id"`
	ItemID          int64   `msgpack:"item_id" json:"item_id"`
	Quantity        float64 `msgpack:"quantity" json:"quantity"`
}

// TransferFirstAvailableRequest tries each destination in order.
type TransferFirstAvailableRequest struct {
	FromInventoryID int64   `msgpack:"from_inventory_id" json:"from_inventory_id"`
	ToInventoryIDs  []int64 `msgpack:"to_inventory_ids" json:"to_inventory_ids"`
	ItemID          int64   `msgpack:"item_id" json:"item_id"`
	Quantity        float64 `msgpack:"quantity" json:"quantity"`
}

// Transferred reports both sides of a completed transfer.
type Transferred struct {
	From *entity.Inventory `msgpack:"from_inventory" json:"from_inventory"`
	To   *entity.Inventory `msgpack:"to_inventory" json:"to_inventory"`
}

type InventoryList struct {
	Inventories []*entity.Inventory `msgpack:"inventories" json:"inventories"`
	TotalCount  int64               `msgpack:"total_count" json:"total_count"`
}

type InventoryResponse struct {
	Results []result.Result        `msgpack:"results" json:"results"`
	Data    *InventoryResponseData `msgpack:"response_data,omitempty" json:"response_data,omitempty"`
}

type InventoryResponseData struct {
	CreateInventory            *InventoryPayload `msgpack:"create_inventory,omitempty" json:"create_inventory,omitempty"`
	LoadInventory              *InventoryPayload `msgpack:"load_inventory,omitempty" json:"load_inventory,omitempty"`
	SaveInventory              *InventoryPayload `msgpack:"save_inventory,omitempty" json:"save_inventory,omitempty"`
	DestroyInventory           *Deleted          `msgpack:"destroy_inventory,omitempty" json:"destroy_inventory,omitempty"`
	SplitStack                 *InventoryPayload `msgpack:"split_stack,omitempty" json:"split_stack,omitempty"`
	TransferItem               *Transferred      `msgpack:"transfer_item,omitempty" json:"transfer_item,omitempty"`
	TransferItemFirstAvailable *Transferred      `msgpack:"transfer_item_first_available,omitempty" json:"transfer_item_first_available,omitempty"`
	ListInventories            *InventoryList    `msgpack:"list_inventories,omitempty" json:"list_inventories,omitempty"`
}

// InventoryService serves inventories and the in-memory inventory
// operations, persisting every inventory an operation touched.
type InventoryService struct {
	inventories *store.InventoryModel
	items       ItemResolver
	cache       *lru.Cache[int64, *entity.Inventory]
	peers       *Invalidator
	logger      *zap.Logger
}

// NewInventoryService creates the handler. cacheSize bounds its LRU.
func NewInventoryService(inventories *store.InventoryModel, items ItemResolver, cacheSize int, peers *Invalidator, logger *zap.Logger) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{
		inventories: inventories,
		items:       items,
		cache:       lru.New[int64, *entity.Inventory](cacheSize),
		peers:       peers,
		logger:      logger,
	}
}

// Register binds every method to srv.
func (s *InventoryService) Register(srv *rpc.Server) {
	srv.Handle(MethodInventoryCreate, rpc.Bind(s.Create))
	srv.Handle(MethodInventoryLoad, rpc.Bind(s.Load))
	srv.Handle(MethodInventorySave, rpc.Bind(s.Save))
	srv.Handle(MethodInventoryDestroy, rpc.Bind(s.Destroy))
	srv.Handle(MethodInventorySplitStack, rpc.Bind(s.SplitStack))
	srv.Handle(MethodInventoryTransfer, rpc.Bind(s.Transfer))
	srv.Handle(MethodInventoryTransferFirstAvailable, rpc.Bind(s.TransferFirstAvailable))
	srv.Handle(MethodInventoryList, rpc.Bind(s.List))
}

// Listen drops cache entries written by peers until the returned stop func runs.
func (s *InventoryService) Listen(ctx context.Context) (func(), error) {
	return s.peers.Listen(ctx, DomainInventory, func(key string) {
		if id, err := strconv.ParseInt(key, 10, 64); err == nil {
			s.cache.Invalidate(id)
		}
	})
}

func (s *InventoryService) refresh(ctx context.Context, invs ...*entity.Inventory) {
	for _, inv := range invs {
		s.cache.Put(*inv.ID, inv)
		s.peers.Publish(ctx, DomainInventory, strconv.FormatInt(*inv.ID, 10))
	}
}

func (s *InventoryService) drop(ctx context.Context, ids ...int64) {
	for _, id := range ids {
		s.cache.Invalidate(id)
		s.peers.Publish(ctx, DomainInventory, strconv.FormatInt(id, 10))
	}
}

func inventoryFail(r result.Result) *InventoryResponse { return &InventoryResponse{Results: one(r)} }

// fetch reads through the cache; the caller owns the returned copy.
func (s *InventoryService) fetch(ctx context.Context, id int64) (result.Result, *entity.Inventory) {
	if inv, ok := s.cache.Get(id); ok {
		return result.OKf("loaded inventory %d from cache", id), inv
	}
	r, inv := s.inventories.Load(ctx, id)
	if r.Succeeded() {
		s.cache.Put(id, inv)
	}
	return r, inv
}

func (s *InventoryService) resolve(ctx context.Context, id int64) (*entity.Item, *result.Result) {
	if s.items == nil {
		r := result.Failf(result.ItemNotFound, "item %d not found: no resolver", id)
		return nil, &r
	}
	it, err := s.items.ResolveItem(ctx, id)
	if err != nil {
		r := result.FromError(err, result.ItemNotFound)
		return nil, &r
	}
	return it, nil
}

// Create handles create.
func (s *InventoryService) Create(ctx context.Context, req *InventoryRequest) (*InventoryResponse, error) {
	if bad := expect(req.Data.populated(), "create_inventory"); bad != nil {
		return inventoryFail(*bad), nil
	}
	inv := req.Data.CreateInventory.Inventory
	if inv == nil {
		return inventoryFail(result.Fail(result.DBInvalidData, "create_inventory: inventory is required")), nil
	}
	rs := s.inventories.Create(ctx, inv)
	if !result.IsOK(rs) {
		return &InventoryResponse{Results: rs}, nil
	}
	s.refresh(ctx, inv)
	return &InventoryResponse{Results: rs, Data: &InventoryResponseData{
		CreateInventory: &InventoryPayload{Inventory: inv},
	}}, nil
}

// Load handles load, reading through the cache.
func (s *InventoryService) Load(ctx context.Context, req *InventoryRequest) (*InventoryResponse, error) {
	if bad := expect(req.Data.populated(), "load_inventory"); bad != nil {
		return inventoryFail(*bad), nil
	}
	r, inv := s.fetch(ctx, req.Data.LoadInventory.InventoryID)
	if !r.Succeeded() {
		return inventoryFail(r), nil
	}
	return &InventoryResponse{Results: one(r), Data: &InventoryResponseData{
		LoadInventory: &InventoryPayload{Inventory: inv},
	}}, nil
}

// Save handles save and refreshes the cache on success.
func (s *InventoryService) Save(ctx context.Context, req *InventoryRequest) (*InventoryResponse, error) {
	if bad := expect(req.Data.populated(), "save_inventory"); bad != nil {
		return inventoryFail(*bad), nil
	}
	inv := req.Data.SaveInventory.Inventory
	if inv == nil {
		return inventoryFail(result.Fail(result.DBInvalidData, "save_inventory: inventory is required")), nil
	}
	rs := s.inventories.Save(ctx, inv)
	if !result.IsOK(rs) {
		if inv.ID != nil {
			s.drop(ctx, *inv.ID)
		}
		return &InventoryResponse{Results: rs}, nil
	}
	s.refresh(ctx, inv)
	return &InventoryResponse{Results: rs, Data: &InventoryResponseData{
		SaveInventory: &InventoryPayload{Inventory: inv},
	}}, nil
}

// Destroy handles destroy and drops the cache entry.
func (s *InventoryService) Destroy(ctx context.Context, req *InventoryRequest) (*InventoryResponse, error) {
	if bad := expect(req.Data.populated(), "destroy_inventory"); bad != nil {
		return inventoryFail(*bad), nil
	}
	id := req.Data.DestroyInventory.InventoryID
	rs := s.inventories.Destroy(ctx, id)
	if !result.IsOK(rs) {
		return &InventoryResponse{Results: rs}, nil
	}
	s.drop(ctx, id)
	return &InventoryResponse{Results: rs, Data: &InventoryResponseData{DestroyInventory: &Deleted{ID: id}}}, nil
}

// SplitStack splits an entry and saves the inventory. The results are the
// split outcome followed by the save outcome.
func (s *InventoryService) SplitStack(ctx context.Context, req *InventoryRequest) (*InventoryResponse, error) {
	if bad := expect(req.Data.populated(), "split_stack"); bad != nil {
		return inventoryFail(*bad), nil
	}
	in := req.Data.SplitStack
	r, inv := s.fetch(ctx, in.InventoryID)
	if !r.Succeeded() {
		return inventoryFail(r), nil
	}
	op := inventory.SplitStack(inv, in.EntryIndex, in.NewQuantity)
	if !op.Succeeded() {
		return inventoryFail(op), nil
	}
	rs := append(one(op), s.inventories.SaveAll(ctx, inv)...)
	if !result.IsOK(rs) {
		s.drop(ctx, in.InventoryID)
		return &InventoryResponse{Results: rs}, nil
	}
	s.refresh(ctx, inv)
	return &InventoryResponse{Results: rs, Data: &InventoryResponseData{
		SplitStack: &InventoryPayload{Inventory: inv},
	}}, nil
}

// Transfer moves a quantity between two stored inventories and saves both
// in one transaction.
func (s *InventoryService) Transfer(ctx context.Context, req *InventoryRequest) (*InventoryResponse, error) {
	if bad := expect(req.Data.populated(), "transfer_item"); bad != nil {
		return inventoryFail(*bad), nil
	}
	in := req.Data.TransferItem
	if in.FromInventoryID == in.ToInventoryID {
		return inventoryFail(result.Failf(result.InventoryOpFailed,
			"transfer source and destination are both inventory %d", in.FromInventoryID)), nil
	}
	rs, from, to := s.transfer(ctx, in.FromInventoryID, []int64{in.ToInventoryID}, in.ItemID, in.Quantity)
	if to == nil {
		return &InventoryResponse{Results: rs}, nil
	}
	return &InventoryResponse{Results: rs, Data: &InventoryResponseData{
		TransferItem: &Transferred{From: from, To: to},
	}}, nil
}

// TransferFirstAvailable moves a quantity into the first destination that
// accepts it.
func (s *InventoryService) TransferFirstAvailable(ctx context.Context, req *InventoryRequest) (*InventoryResponse, error) {
	if bad := expect(req.Data.populated(), "transfer_item_first_available"); bad != nil {
		return inventoryFail(*bad), nil
	}
	in := req.Data.TransferItemFirstAvailable
	if len(in.ToInventoryIDs) == 0 {
		return inventoryFail(result.Fail(result.DBInvalidData, "transfer_item_first_available: no destinations")), nil
	}
	for _, id := range in.ToInventoryIDs {
		if id == in.FromInventoryID {
			return inventoryFail(result.Failf(result.InventoryOpFailed,
				"inventory %d is both source and destination", id)), nil
		}
	}
	rs, from, to := s.transfer(ctx, in.FromInventoryID, in.ToInventoryIDs, in.ItemID, in.Quantity)
	if to == nil {
		return &InventoryResponse{Results: rs}, nil
	}
	return &InventoryResponse{Results: rs, Data: &InventoryResponseData{
		TransferItemFirstAvailable: &Transferred{From: from, To: to},
	}}, nil
}

// transfer returns a nil destination unless everything was saved.
func (s *InventoryService) transfer(ctx context.Context, fromID int64, toIDs []int64, itemID int64, q float64) ([]result.Result, *entity.Inventory, *entity.Inventory) {
	r, from := s.fetch(ctx, fromID)
	if !r.Succeeded() {
		return one(r), nil, nil
	}
	candidates := make([]*entity.Inventory, 0, len(toIDs))
	for _, id := range toIDs {
		r, to := s.fetch(ctx, id)
		if !r.Succeeded() {
			return one(r), nil, nil
		}
		candidates = append(candidates, to)
	}
	item, bad := s.resolve(ctx, itemID)
	if bad != nil {
		return one(*bad), nil, nil
	}

	var op result.Result
	idx := 0
	if len(candidates) == 1 {
		op = inventory.Transfer(from, candidates[0], item, q)
	} else {
		op, idx = inventory.TransferToFirstAvailable(from, candidates, item, q)
	}
	if !op.Succeeded() {
		return one(op), nil, nil
	}
	to := candidates[idx]
	rs := append(one(op), s.inventories.SaveAll(ctx, from, to)...)
	if !result.IsOK(rs) {
		s.drop(ctx, fromID, *to.ID)
		return rs, nil, nil
	}
	s.refresh(ctx, from, to)
	s.logger.Debug("transferred",
		zap.Int64("from", fromID),
		zap.Int64("to", *to.ID),
		zap.Int64("item_id", itemID),
		zap.Float64("quantity", q))
	return rs, from, to
}

// List handles list_records. Results are not cached.
func (s *InventoryService) List(ctx context.Context, req *InventoryRequest) (*InventoryResponse, error) {
	if bad := expect(req.Data.populated(), "list_inventories"); bad != nil {
		return inventoryFail(*bad), nil
	}
	l := req.Data.ListInventories
	r, invs, total := s.inventories.Search(ctx, l.page(), l.Search)
	if !r.Succeeded() {
		return inventoryFail(r), nil
	}
	return &InventoryResponse{Results: one(r), Data: &InventoryResponseData{
		ListInventories: &InventoryList{Inventories: invs, TotalCount: total},
	}}, nil
}
