package main

import (
	"fmt"

	"github.com/jasonknight/space-mmo-sub002/config"
	dbadapter "github.com/jasonknight/space-mmo-sub002/db"
	"github.com/jasonknight/space-mmo-sub002/model"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// configFile is the --config flag shared by every subcommand.
var configFile string

// NewRootCmd creates the spacemmo command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "spacemmo",
		Short:        "Game-world persistence services",
		Long:         `spacemmo stores players, mobiles, items and inventories and serves them over a framed binary protocol.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")

	cmd.AddCommand(NewBootstrapCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewServiceCmd())
	cmd.AddCommand(NewServeCmd())
	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Log.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// setup loads config, builds the logger and opens the database.
func setup() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("logger: %w", err)
	}
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, nil, fmt.Errorf("db: %w", err)
	}
	return cfg, logger, db, nil
}

// NewBootstrapCmd creates the bootstrap subcommand.
func NewBootstrapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the database and every table",
		Long: `Create the configured database if it does not exist and run every
CREATE TABLE IF NOT EXISTS statement. Safe to run repeatedly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return bootstrap(cmd, cfg.Database)
		},
	}
}

func bootstrap(cmd *cobra.Command, dbCfg config.DatabaseConfig) error {
	if dbCfg.Mode == dbadapter.ModeMySQL || dbCfg.Mode == "" {
		server, err := dbadapter.OpenServer(dbCfg)
		if err != nil {
			return fmt.Errorf("bootstrap: connect: %w", err)
		}
		err = server.Exec(model.CreateDatabase(dbCfg.Database)).Error
		_ = dbadapter.Close(server)
		if err != nil {
			return fmt.Errorf("bootstrap: create database: %w", err)
		}
		cmd.Printf("database %s ready\n", dbCfg.Database)
	}

	db, err := dbadapter.Open(dbCfg)
	if err != nil {
		return fmt.Errorf("bootstrap: open: %w", err)
	}
	defer func() { _ = dbadapter.Close(db) }()
	if err := model.Migrate(db, dbCfg.Database); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	cmd.Printf("%d tables ready\n", len(model.TableNames()))
	return nil
}
