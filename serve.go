package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jasonknight/space-mmo-sub002/api/admin"
	"github.com/jasonknight/space-mmo-sub002/config"
	"github.com/jasonknight/space-mmo-sub002/launcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Launch every enabled service and the admin status server",
		Long: `Start each enabled service as a child process and serve launcher
status over HTTP. Interrupting stops the children, killing any that outlive
the grace period.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

// childProcs re-executes this binary once per enabled service.
func childProcs(cfg *config.Config) []launcher.Proc {
	var procs []launcher.Proc
	for _, name := range cfg.Services.Names() {
		svc, _ := cfg.Services.Get(name)
		if !svc.Enabled {
			continue
		}
		args := []string{"service", name}
		if configFile != "" {
			args = append(args, "--config", configFile)
		}
		procs = append(procs, launcher.Proc{Name: name, Args: args})
	}
	return procs
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	procs := childProcs(cfg)
	if len(procs) == 0 {
		return errors.New("serve: no service is enabled")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l := launcher.New(cfg.Launcher.Grace, logger.Named("launcher"))
	adminSrv := admin.NewServer(cfg.Admin, l, logger.Named("admin"))
	adminErr := make(chan error, 1)
	go func() { adminErr <- adminSrv.ListenAndServe(ctx) }()

	runErr := l.Run(ctx, procs)
	cancel()
	if err := <-adminErr; err != nil {
		logger.Warn("admin server", zap.Error(err))
		if runErr == nil {
			runErr = fmt.Errorf("admin: %w", err)
		}
	}
	return runErr
}
