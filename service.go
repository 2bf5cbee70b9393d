package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/jasonknight/space-mmo-sub002/api/rpc"
	"github.com/jasonknight/space-mmo-sub002/cache"
	"github.com/jasonknight/space-mmo-sub002/config"
	"github.com/jasonknight/space-mmo-sub002/game/catalog"
	"github.com/jasonknight/space-mmo-sub002/model"
	"github.com/jasonknight/space-mmo-sub002/service"
	"github.com/jasonknight/space-mmo-sub002/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// handler is what every domain service offers the rpc server.
type handler interface {
	Register(srv *rpc.Server)
	Listen(ctx context.Context) (func(), error)
}

// NewServiceCmd creates the service subcommand.
func NewServiceCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "service item|player|inventory",
		Short:     "Run one persistence service",
		Long:      `Run one service on its configured port until interrupted.`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: config.ServicesConfig{}.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runService(cmd.Context(), args[0])
		},
	}
}

func buildHandler(name string, cfg *config.Config, base *store.Base, peers *service.Invalidator, logger *zap.Logger) (handler, error) {
	svc, _ := cfg.Services.Get(name)
	switch name {
	case config.ServiceItem:
		return service.NewItemService(svc.CacheSize, peers, logger,
			store.NewItemModel(base, model.ItemTables),
			store.NewItemModel(base, model.MobileItemTables)), nil
	case config.ServicePlayer:
		return service.NewPlayerService(store.NewPlayerModel(base), svc.CacheSize, peers, logger), nil
	case config.ServiceInventory:
		cat, err := catalog.Build(catalog.DefaultMaterials, catalog.Options{RefinedStackSize: cfg.Catalog.RefinedStackSize})
		if err != nil {
			return nil, err
		}
		lookup := service.NewItemLookup(store.NewItemModel(base, model.ItemTables), cat)
		return service.NewInventoryService(store.NewInventoryModel(base), lookup, svc.CacheSize, peers, logger), nil
	}
	return nil, fmt.Errorf("unknown service %q", name)
}

func runService(ctx context.Context, name string) error {
	cfg, logger, db, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named(name).With(zap.String("service", name))

	svcCfg, ok := cfg.Services.Get(name)
	if !ok {
		return fmt.Errorf("unknown service %q", name)
	}
	base := store.NewBase(db, logger)
	defer func() { _ = base.Close() }()

	ps, err := cache.NewPubSub(cache.Config{
		RedisAddr:      cfg.Cache.RedisAddr,
		RedisPassword:  cfg.Cache.RedisPassword,
		RedisDB:        cfg.Cache.RedisDB,
		LocalPubSubBuf: cfg.Cache.LocalPubSubBuf,
	})
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}
	defer func() { _ = ps.Close() }()
	peers := service.NewInvalidator(ps, logger)

	h, err := buildHandler(name, cfg, base, peers, logger)
	if err != nil {
		return err
	}
	stopListen, err := h.Listen(ctx)
	if err != nil {
		return fmt.Errorf("invalidation listener: %w", err)
	}
	defer stopListen()

	srv := rpc.NewServer(name, logger)
	srv.SetIdleTimeout(svcCfg.IdleTimeout)
	h.Register(srv)

	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(svcCfg.Port)))
	if err != nil {
		return err
	}
	logger.Info("service listening",
		zap.String("addr", ln.Addr().String()),
		zap.Strings("methods", srv.Methods()),
		zap.String("origin", peers.Origin()))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("service stopping")
	if err := srv.Close(); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, rpc.ErrServerClosed) {
		return err
	}
	return nil
}
