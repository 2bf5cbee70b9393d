package main

import (
	"fmt"

	"github.com/jasonknight/space-mmo-sub002/game/catalog"
	"github.com/jasonknight/space-mmo-sub002/model"
	"github.com/jasonknight/space-mmo-sub002/seed"
	"github.com/jasonknight/space-mmo-sub002/store"
	"github.com/spf13/cobra"
)

var seedTargets = []string{"players", "npcs", "items"}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "seed players|npcs|items",
		Short:     "Load fixture data",
		Long:      `Seed test players with their mobiles, NPC mobiles, or the material catalog.`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: seedTargets,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, db, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			base := store.NewBase(db, logger.Named("seed"))
			defer func() { _ = base.Close() }()

			s := seed.New(store.NewPlayerModel(base), store.NewItemModel(base, model.ItemTables), logger.Named("seed"))
			ctx := cmd.Context()
			switch args[0] {
			case "players":
				n, err := s.Players(ctx)
				if err != nil {
					return err
				}
				cmd.Printf("seeded %d players\n", n)
			case "npcs":
				n, err := s.NPCs(ctx)
				if err != nil {
					return err
				}
				cmd.Printf("seeded %d npcs\n", n)
			case "items":
				cat, err := catalog.Build(catalog.DefaultMaterials, catalog.Options{RefinedStackSize: cfg.Catalog.RefinedStackSize})
				if err != nil {
					return err
				}
				ids, err := s.Items(ctx, cat)
				if err != nil {
					return err
				}
				cmd.Printf("seeded %d items\n", len(ids))
			default:
				return fmt.Errorf("unknown seed target %q", args[0])
			}
			return nil
		},
	}
}
