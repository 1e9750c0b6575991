package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/issuesync/internal/config"
	"github.com/mschirtzinger/issuesync/internal/daemon"
	"github.com/mschirtzinger/issuesync/internal/dashboard"
	issuesync "github.com/mschirtzinger/issuesync/internal/sync"
	"github.com/mschirtzinger/issuesync/internal/ui"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "sync",
	Short:   "Run the HTTP server, webhook receiver and scheduled sync",
	Long: `Start the issuesync HTTP server.

Endpoints:
  GET  /health         liveness probe
  GET  /sync?state=    run a sync pass
  POST /sync/manual    run a sync pass (form field "state")
  POST /sync/webhook   GitHub issues webhook
  GET  /sync/status    configuration and last result
  GET  /ws             WebSocket feed of finished passes

With --schedule a pass also runs at startup and every sync.interval. Changes
to sync.interval and sync.state in the config file apply without a restart.

Example usage:
  issuesync serve                      # Start on default port 8080
  issuesync serve --port 9000 --schedule`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app.cfg
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("schedule") {
			cfg.Server.Schedule, _ = cmd.Flags().GetBool("schedule")
		}
		if cmd.Flags().Changed("interval") {
			cfg.Sync.Interval, _ = cmd.Flags().GetDuration("interval")
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		// Every pass, whatever triggered it, is pushed to WebSocket clients
		var server *dashboard.Server
		orch, err := app.orchestrator(ctx, issuesync.WithListener(func(r *issuesync.SyncResult) {
			server.NotifySyncComplete(r)
		}))
		if err != nil {
			return err
		}

		server = dashboard.NewServer(orch, &dashboard.Config{
			Port:          cfg.Server.Port,
			Version:       Version,
			StoreName:     storeName(cfg.Store.Driver),
			WebhookSecret: cfg.Server.WebhookSecret,
			Info:          app.info(),
			Logger:        app.logger,
		})
		if err := server.Start(); err != nil {
			return err
		}

		addr := server.GetAddr()
		fmt.Printf("%s issuesync server started on http://%s\n", ui.RenderAccent("🚀"), addr)
		fmt.Printf("   WebSocket endpoint: ws://%s/ws\n", addr)
		fmt.Printf("   Health check:       http://%s/health\n", addr)

		var d *daemon.Daemon
		if cfg.Server.Schedule {
			d, err = daemon.NewWithConfig(orch, &daemon.Config{
				Interval: cfg.Sync.Interval,
				State:    cfg.Sync.State,
				Logger:   app.logger,
			})
			if err != nil {
				_ = server.Stop()
				return err
			}
			go func() { _ = d.Start(ctx) }()
			fmt.Printf("   Scheduled sync:     every %s (%s issues)\n", cfg.Sync.Interval, d.State())

			watchConfig(d)
		}

		fmt.Println("\nPress Ctrl+C to stop...")
		<-ctx.Done()

		fmt.Println("\nShutting down...")
		if d != nil {
			_ = d.Stop()
		}
		if err := server.Stop(); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		fmt.Println("Server stopped")
		return nil
	},
}

// watchConfig applies interval and state edits to the running daemon.
func watchConfig(d *daemon.Daemon) {
	err := app.loader.Watch(app.logger, func(c *config.Config) {
		if err := c.Validate(); err != nil {
			app.logger.Warn("ignoring invalid config change", "error", err)
			return
		}
		d.SetInterval(c.Sync.Interval)
		d.SetState(c.Sync.State)
	})
	if err != nil {
		app.logger.Debug("config watch disabled", "reason", err)
	}
}

func init() {
	serveCmd.Flags().Int("port", 8080, "port to listen on")
	serveCmd.Flags().Bool("schedule", false, "run a sync at startup and every sync.interval")
	serveCmd.Flags().Duration("interval", 0, "override sync.interval")
	rootCmd.AddCommand(serveCmd)
}

// Compile-time checks that the orchestrator drives both surfaces.
var (
	_ dashboard.Syncer = (*issuesync.Orchestrator)(nil)
	_ daemon.Runner    = (*issuesync.Orchestrator)(nil)
)
