package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/snipvault/snipvault/internal/daemon"
	"github.com/snipvault/snipvault/internal/dashboard"
	"github.com/snipvault/snipvault/internal/gist"
	"github.com/snipvault/snipvault/internal/logging"
	"github.com/snipvault/snipvault/internal/mirror"
	"github.com/snipvault/snipvault/internal/ui"
)

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	GroupID: "sync",
	Short:   "Run the background sync loop",
	Long: `Run the background sync loop.

The daemon mirrors every collection write into the backup directory,
absorbs mirror edits made by other machines, and (with auto_sync
enabled) keeps the gist replicas fresh on a timer. When a dashboard
port is configured it also serves a WebSocket feed of live events.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		// The daemon registers its own mirror hook inside Run.
		st := openStoreBare(cfg)

		logger := logging.New("[daemon] ", logging.Options{File: cfg.LogFile})

		dcfg := daemon.Config{
			Store:  st,
			Logger: logger,
		}

		wantRemote := cfg.AutoSync && cfg.GistToken != ""
		if cfg.BackupDir != "" || wantRemote {
			db := openState(cfg)
			defer db.Close()

			if cfg.BackupDir != "" {
				dcfg.Writer = mirror.NewWriter(cfg.BackupDir, db, logger)
				dcfg.Absorber = mirror.NewAbsorber(st, dcfg.Writer, db, logger)
				watcher, err := mirror.NewWatcher(cfg.BackupDir, 500*time.Millisecond, logger)
				if err != nil {
					fatalf("%v", err)
				}
				dcfg.Watcher = watcher
			}
			if wantRemote {
				dcfg.Channel = gist.NewChannel(gist.NewClient(cfg.GistToken), db, logger)
				dcfg.SyncInterval = cfg.SyncInterval
			}
		}
		if cfg.AutoSync && cfg.GistToken == "" {
			fmt.Fprintln(os.Stderr, ui.Warn("auto_sync enabled but no gist token configured; remote sync disabled"))
		}

		if cfg.DashboardPort > 0 {
			server := dashboard.NewServer(cfg.DashboardPort, logger)
			if err := server.Start(); err != nil {
				fatalf("%v", err)
			}
			defer server.Stop()
			dcfg.Dashboard = server
			fmt.Println(ui.Pass("Dashboard at http://%s", server.Addr()))
		}

		d, err := daemon.New(dcfg)
		if err != nil {
			fatalf("%v", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		fmt.Println(ui.Pass("Daemon running; press Ctrl+C to stop"))
		if err := d.Run(ctx); err != nil {
			fatalf("%v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
