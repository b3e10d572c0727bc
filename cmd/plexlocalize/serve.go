package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vmunix/plexlocalize/internal/server"
)

func newServeCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon: HTTP API, schedule and post-import runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			log := app.logger(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := openDB(ctx, cfg.Database.Path)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			engine, notifier := newEngine(cfg, log)
			defer waitNotifications(notifier)

			if st := engine.Status(); !st.Enabled {
				log.Warn("localization disabled", "reason", st.Reason)
			}

			addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
			log.Info("server starting",
				"version", version,
				"addr", addr,
				"config", app.configPath,
				"database", cfg.Database.Path,
				"servers", len(cfg.Servers),
				"libraries", len(cfg.Localize.Libraries),
				"enabled", cfg.Localize.Enabled,
				"cron", cfg.Localize.Cron,
				"post_import", cfg.Localize.PostImport,
			)

			runner := server.NewRunner(db, engine, server.Config{
				Addr:       addr,
				APIKey:     cfg.Server.APIKey,
				RateLimit:  cfg.Server.RateLimit,
				Enabled:    cfg.Localize.Enabled,
				Cron:       cfg.Localize.Cron,
				RunOnStart: cfg.Localize.RunOnStart,
				PostImport: cfg.Localize.PostImport,
				Delay:      cfg.Localize.Delay,
				Retention:  cfg.Database.Retention,
			}, log)
			if err := runner.Run(ctx); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}
}
