package service

import (
	"context"
	"strconv"

	"github.com/jasonknight/space-mmo-sub002/api/rpc"
	"github.com/jasonknight/space-mmo-sub002/cache/lru"
	"github.com/jasonknight/space-mmo-sub002/game/entity"
	"github.com/jasonknight/space-mmo-sub002/result"
	"github.com/jasonknight/space-mmo-sub002/store"
	"go.uber.org/zap"
)

// Player method names.
const (
	MethodPlayerCreate = "create"
	MethodPlayerLoad   = "load"
	MethodPlayerSave   = "save"
	MethodPlayerDelete = "delete"
	MethodPlayerList   = "list_records"
)

type PlayerRequest struct {
	Data PlayerRequestData `msgpack:"data" json:"data"`
}

type PlayerRequestData struct {
	CreatePlayer *PlayerPayload `msgpack:"create_player,omitempty" json:"create_player,omitempty"`
	LoadPlayer   *PlayerID      `msgpack:"load_player,omitempty" json:"load_player,omitempty"`
	SavePlayer   *PlayerPayload `msgpack:"save_player,omitempty" json:"save_player,omitempty"`
	DeletePlayer *PlayerID      `msgpack:"delete_player,omitempty" json:"delete_player,omitempty"`
	ListPlayers  *ListRequest   `msgpack:"list_players,omitempty" json:"list_players,omitempty"`
}

func (d *PlayerRequestData) populated() []string {
	return setNames(
		variant{"create_player", d.CreatePlayer != nil},
		variant{"load_player", d.LoadPlayer != nil},
		variant{"save_player", d.SavePlayer != nil},
		variant{"delete_player", d.DeletePlayer != nil},
		variant{"list_players", d.ListPlayers != nil},
	)
}

type PlayerPayload struct {
	Player *entity.Player `msgpack:"player" json:"player"`
}

type PlayerID struct {
	PlayerID int64 `msgpack:"player_id" json:"player_id"`
}

type PlayerList struct {
	Players    []*entity.Player `msgpack:"players" json:"players"`
	TotalCount int64            `msgpack:"total_count" json:"total_count"`
}

type PlayerResponse struct {
	Results []result.Result     `msgpack:"results" json:"results"`
	Data    *PlayerResponseData `msgpack:"response_data,omitempty" json:"response_data,omitempty"`
}

type PlayerResponseData struct {
	CreatePlayer *PlayerPayload `msgpack:"create_player,omitempty" json:"create_player,omitempty"`
	LoadPlayer   *PlayerPayload `msgpack:"load_player,omitempty" json:"load_player,omitempty"`
	SavePlayer   *PlayerPayload `msgpack:"save_player,omitempty" json:"save_player,omitempty"`
	DeletePlayer *Deleted       `msgpack:"delete_player,omitempty" json:"delete_player,omitempty"`
	ListPlayers  *PlayerList    `msgpack:"list_players,omitempty" json:"list_players,omitempty"`
}

// PlayerService serves the player domain.
type PlayerService struct {
	players *store.PlayerModel
	cache   *lru.Cache[int64, *entity.Player]
	peers   *Invalidator
	logger  *zap.Logger
}

// DomainPlayer names the player invalidation channel.
const DomainPlayer = "player"

// NewPlayerService creates the handler. cacheSize bounds its LRU.
func NewPlayerService(players *store.PlayerModel, cacheSize int, peers *Invalidator, logger *zap.Logger) *PlayerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlayerService{
		players: players,
		cache:   lru.New[int64, *entity.Player](cacheSize),
		peers:   peers,
		logger:  logger,
	}
}

// Register binds the player methods to srv.
func (s *PlayerService) Register(srv *rpc.Server) {
	srv.Handle(MethodPlayerCreate, rpc.Bind(s.Create))
	srv.Handle(MethodPlayerLoad, rpc.Bind(s.Load))
	srv.Handle(MethodPlayerSave, rpc.Bind(s.Save))
	srv.Handle(MethodPlayerDelete, rpc.Bind(s.Delete))
	srv.Handle(MethodPlayerList, rpc.Bind(s.List))
}

// Listen drops cache entries written by peer processes until ctx is done.
func (s *PlayerService) Listen(ctx context.Context) (func(), error) {
	return s.peers.Listen(ctx, DomainPlayer, func(key string) {
		if id, err := strconv.ParseInt(key, 10, 64); err == nil {
			s.cache.Invalidate(id)
		}
	})
}

func (s *PlayerService) refresh(ctx context.Context, p *entity.Player) {
	s.cache.Put(*p.ID, p)
	s.peers.Publish(ctx, DomainPlayer, strconv.FormatInt(*p.ID, 10))
}

// Create handles create.
func (s *PlayerService) Create(ctx context.Context, req *PlayerRequest) (*PlayerResponse, error) {
	if bad := expect(req.Data.populated(), "create_player"); bad != nil {
		return &PlayerResponse{Results: one(*bad)}, nil
	}
	p := req.Data.CreatePlayer.Player
	if p == nil {
		return &PlayerResponse{Results: one(result.Fail(result.DBInvalidData, "create_player: player is required"))}, nil
	}
	rs := s.players.Create(ctx, p)
	if !result.IsOK(rs) {
		return &PlayerResponse{Results: rs}, nil
	}
	s.refresh(ctx, p)
	return &PlayerResponse{Results: rs, Data: &PlayerResponseData{CreatePlayer: &PlayerPayload{Player: p}}}, nil
}

// Load handles load, reading through the cache.
func (s *PlayerService) Load(ctx context.Context, req *PlayerRequest) (*PlayerResponse, error) {
	if bad := expect(req.Data.populated(), "load_player"); bad != nil {
		return &PlayerResponse{Results: one(*bad)}, nil
	}
	id := req.Data.LoadPlayer.PlayerID
	if p, ok := s.cache.Get(id); ok {
		return &PlayerResponse{
			Results: one(result.OKf("loaded player %d from cache", id)),
			Data:    &PlayerResponseData{LoadPlayer: &PlayerPayload{Player: p}},
		}, nil
	}
	r, p := s.players.Load(ctx, id)
	if !r.Succeeded() {
		return &PlayerResponse{Results: one(r)}, nil
	}
	s.cache.Put(id, p)
	return &PlayerResponse{Results: one(r), Data: &PlayerResponseData{LoadPlayer: &PlayerPayload{Player: p}}}, nil
}

// Save handles save and refreshes the cache on success.
func (s *PlayerService) Save(ctx context.Context, req *PlayerRequest) (*PlayerResponse, error) {
	if bad := expect(req.Data.populated(), "save_player"); bad != nil {
		return &PlayerResponse{Results: one(*bad)}, nil
	}
	p := req.Data.SavePlayer.Player
	if p == nil {
		return &PlayerResponse{Results: one(result.Fail(result.DBInvalidData, "save_player: player is required"))}, nil
	}
	rs := s.players.Save(ctx, p)
	if !result.IsOK(rs) {
		if p.ID != nil {
			s.cache.Invalidate(*p.ID)
		}
		return &PlayerResponse{Results: rs}, nil
	}
	s.refresh(ctx, p)
	return &PlayerResponse{Results: rs, Data: &PlayerResponseData{SavePlayer: &PlayerPayload{Player: p}}}, nil
}

// Delete handles delete and drops the cache entry.
func (s *PlayerService) Delete(ctx context.Context, req *PlayerRequest) (*PlayerResponse, error) {
	if bad := expect(req.Data.populated(), "delete_player"); bad != nil {
		return &PlayerResponse{Results: one(*bad)}, nil
	}
	id := req.Data.DeletePlayer.PlayerID
	rs := s.players.Destroy(ctx, id)
	if !result.IsOK(rs) {
		return &PlayerResponse{Results: rs}, nil
	}
	s.cache.Invalidate(id)
	s.peers.Publish(ctx, DomainPlayer, strconv.FormatInt(id, 10))
	return &PlayerResponse{Results: rs, Data: &PlayerResponseData{DeletePlayer: &Deleted{ID: id}}}, nil
}

// List handles list_records. Results are not cached.
func (s *PlayerService) List(ctx context.Context, req *PlayerRequest) (*PlayerResponse, error) {
	if bad := expect(req.Data.populated(), "list_players"); bad != nil {
		return &PlayerResponse{Results: one(*bad)}, nil
	}
	l := req.Data.ListPlayers
	r, players, total := s.players.Search(ctx, l.page(), l.Search)
	if !r.Succeeded() {
		return &PlayerResponse{Results: one(r)}, nil
	}
	return &PlayerResponse{
		Results: one(r),
		Data:    &PlayerResponseData{ListPlayers: &PlayerList{Players: players, TotalCount: total}},
	}, nil
}
