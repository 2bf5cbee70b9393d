package service

import (
	"context"

	"github.com/jasonknight/space-mmo-sub002/api/rpc"
	"github.com/jasonknight/space-mmo-sub002/game/entity"
	"github.com/jasonknight/space-mmo-sub002/result"
)

// Caller is the part of *rpc.Client the typed clients need.
type Caller interface {
	Call(ctx context.Context, method string, req, resp interface{}) error
}

// call turns a transport or server error into a single FAILURE result so
// callers only ever inspect Results.
func call[Resp any](ctx context.Context, c Caller, method string, req interface{}, fail func([]result.Result) *Resp) *Resp {
	var resp Resp
	if err := c.Call(ctx, method, req, &resp); err != nil {
		return fail(one(result.FromError(err, result.InternalError)))
	}
	return &resp
}

// PlayerClient talks to a player service.
type PlayerClient struct{ c Caller }

// NewPlayerClient wraps c.
func NewPlayerClient(c Caller) *PlayerClient { return &PlayerClient{c: c} }

func (p *PlayerClient) do(ctx context.Context, method string, d PlayerRequestData) *PlayerResponse {
	return call(ctx, p.c, method, &PlayerRequest{Data: d}, func(rs []result.Result) *PlayerResponse {
		return &PlayerResponse{Results: rs}
	})
}

// Create sends a create request.
func (p *PlayerClient) Create(ctx context.Context, pl *entity.Player) *PlayerResponse {
	return p.do(ctx, MethodPlayerCreate, PlayerRequestData{CreatePlayer: &PlayerPayload{Player: pl}})
}

// Load fetches by id.
func (p *PlayerClient) Load(ctx context.Context, id int64) *PlayerResponse {
	return p.do(ctx, MethodPlayerLoad, PlayerRequestData{LoadPlayer: &PlayerID{PlayerID: id}})
}

// Save sends a save request.
func (p *PlayerClient) Save(ctx context.Context, pl *entity.Player) *PlayerResponse {
	return p.do(ctx, MethodPlayerSave, PlayerRequestData{SavePlayer: &PlayerPayload{Player: pl}})
}

// Delete removes the player.
func (p *PlayerClient) Delete(ctx context.Context, id int64) *PlayerResponse {
	return p.do(ctx, MethodPlayerDelete, PlayerRequestData{DeletePlayer: &PlayerID{PlayerID: id}})
}

// List pages through records.
func (p *PlayerClient) List(ctx context.Context, l ListRequest) *PlayerResponse {
	return p.do(ctx, MethodPlayerList, PlayerRequestData{ListPlayers: &l})
}

// ItemClient talks to an item service. An empty backing table means ITEMS.
type ItemClient struct{ c Caller }

// NewItemClient wraps c.
func NewItemClient(c Caller) *ItemClient { return &ItemClient{c: c} }

func (i *ItemClient) do(ctx context.Context, method string, d ItemRequestData) *ItemResponse {
	return call(ctx, i.c, method, &ItemRequest{Data: d}, func(rs []result.Result) *ItemResponse {
		return &ItemResponse{Results: rs}
	})
}

// Create sends a create request.
func (i *ItemClient) Create(ctx context.Context, b entity.BackingTable, it *entity.Item) *ItemResponse {
	return i.do(ctx, MethodItemCreate, ItemRequestData{CreateItem: &ItemPayload{Item: it, BackingTable: b}})
}

// Load fetches by id.
func (i *ItemClient) Load(ctx context.Context, b entity.BackingTable, id int64) *ItemResponse {
	return i.do(ctx, MethodItemLoad, ItemRequestData{LoadItem: &ItemID{ItemID: id, BackingTable: b}})
}

// Save sends a save request.
func (i *ItemClient) Save(ctx context.Context, b entity.BackingTable, it *entity.Item) *ItemResponse {
	return i.do(ctx, MethodItemSave, ItemRequestData{SaveItem: &ItemPayload{Item: it, BackingTable: b}})
}

// Destroy removes the record.
func (i *ItemClient) Destroy(ctx context.Context, b entity.BackingTable, id int64) *ItemResponse {
	return i.do(ctx, MethodItemDestroy, ItemRequestData{DestroyItem: &ItemID{ItemID: id, BackingTable: b}})
}

// List pages through records.
func (i *ItemClient) List(ctx context.Context, l ItemListRequest) *ItemResponse {
	return i.do(ctx, MethodItemList, ItemRequestData{ListItems: &l})
}

// Describe returns the service metadata.
func (i *ItemClient) Describe(ctx context.Context) *ItemResponse {
	return i.do(ctx, MethodItemDescribe, ItemRequestData{Describe: &DescribeRequest{}})
}

// InventoryClient talks to an inventory service.
type InventoryClient struct{ c Caller }

// NewInventoryClient wraps c.
func NewInventoryClient(c Caller) *InventoryClient { return &InventoryClient{c: c} }

func (v *InventoryClient) do(ctx context.Context, method string, d InventoryRequestData) *InventoryResponse {
	return call(ctx, v.c, method, &InventoryRequest{Data: d}, func(rs []result.Result) *InventoryResponse {
		return &InventoryResponse{Results: rs}
	})
}

// Create sends a create request.
func (v *InventoryClient) Create(ctx context.Context, inv *entity.Inventory) *InventoryResponse {
	return v.do(ctx, MethodInventoryCreate, InventoryRequestData{CreateInventory: &InventoryPayload{Inventory: inv}})
}

// Load fetches by id.
func (v *InventoryClient) Load(ctx context.Context, id int64) *InventoryResponse {
	return v.do(ctx, MethodInventoryLoad, InventoryRequestData{LoadInventory: &InventoryID{InventoryID: id}})
}

// Save sends a save request.
func (v *InventoryClient) Save(ctx context.Context, inv *entity.Inventory) *InventoryResponse {
	return v.do(ctx, MethodInventorySave, InventoryRequestData{SaveInventory: &InventoryPayload{Inventory: inv}})
}

// Destroy removes the record.
func (v *InventoryClient) Destroy(ctx context.Context, id int64) *InventoryResponse {
	return v.do(ctx, MethodInventoryDestroy, InventoryRequestData{DestroyInventory: &InventoryID{InventoryID: id}})
}

// SplitStack splits the entry at index.
func (v *InventoryClient) SplitStack(ctx context.Context, id int64, index int, q float64) *InventoryResponse {
	return v.do(ctx, MethodInventorySplitStack, InventoryRequestData{SplitStack: &SplitStackRequest{
		InventoryID: id, EntryIndex: index, NewQuantity: q,
	}})
}

// Transfer moves q of itemID between two inventories.
func (v *InventoryClient) Transfer(ctx context.Context, from, to, itemID int64, q float64) *InventoryResponse {
	return v.do(ctx, MethodInventoryTransfer, InventoryRequestData{TransferItem: &TransferRequest{
		FromInventoryID: from, ToInventoryID: to, ItemID: itemID, Quantity: q,
	}})
}

// TransferFirstAvailable moves q of itemID into the first destination with room.
func (v *InventoryClient) TransferFirstAvailable(ctx context.Context, from int64, to []int64, itemID int64, q float64) *InventoryResponse {
	return v.do(ctx, MethodInventoryTransferFirstAvailable, InventoryRequestData{TransferItemFirstAvailable: &TransferFirstAvailableRequest{
		FromInventoryID: from, ToInventoryIDs: to, ItemID: itemID, Quantity: q,
	}})
}

// List pages through records.
func (v *InventoryClient) List(ctx context.Context, l ListRequest) *InventoryResponse {
	return v.do(ctx, MethodInventoryList, InventoryRequestData{ListInventories: &l})
}

var _ Caller = (*rpc.Client)(nil)
