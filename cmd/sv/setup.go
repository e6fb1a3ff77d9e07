package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/snipvault/snipvault/internal/config"
	"github.com/snipvault/snipvault/internal/ui"
)

var setupCmd = &cobra.Command{
	Use:     "setup",
	GroupID: "setup",
	Short:   "Interactive first-run configuration",
	Long: `Interactive first-run configuration.

Walks through the data directory, backup mirror directory, dashboard
port, and auto-sync settings, then prompts for the gist token with
hidden input. Answers are written to the config file; the token can
also live in SNIPVAULT_GIST_TOKEN instead.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		dashboardPort := strconv.Itoa(cfg.DashboardPort)
		syncInterval := cfg.SyncInterval.String()
		if cfg.SyncInterval == 0 {
			syncInterval = (5 * time.Minute).String()
		}

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Data directory").
					Description("Holds the collection file and state database").
					Value(&cfg.DataDir),
				huh.NewInput().
					Title("Backup directory").
					Description("A cloud-synced folder for the flat mirror file; empty disables mirroring").
					Value(&cfg.BackupDir),
				huh.NewConfirm().
					Title("Enable automatic gist sync?").
					Value(&cfg.AutoSync),
				huh.NewInput().
					Title("Sync interval").
					Description("How often the daemon syncs gists, e.g. 5m").
					Value(&syncInterval).
					Validate(func(s string) error {
						_, err := time.ParseDuration(s)
						return err
					}),
				huh.NewInput().
					Title("Dashboard port").
					Description("0 disables the daemon dashboard").
					Value(&dashboardPort).
					Validate(func(s string) error {
						_, err := strconv.Atoi(s)
						return err
					}),
			),
		)
		if err := form.Run(); err != nil {
			fatalf("setup aborted: %v", err)
		}

		cfg.SyncInterval, _ = time.ParseDuration(syncInterval)
		cfg.DashboardPort, _ = strconv.Atoi(dashboardPort)

		if token, err := promptToken(); err != nil {
			fatalf("%v", err)
		} else if token != "" {
			cfg.GistToken = token
		}

		path, err := config.Save(configDir, cfg)
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Println(ui.Pass("Configuration written to %s", ui.Accent(path)))
	},
}

// promptToken reads the gist token without echoing it. Empty input
// keeps the current token.
func promptToken() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}

	fmt.Print("Gist token (hidden, empty to keep current): ")
	raw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return string(raw), nil
}

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "setup",
	Short:   "Manage the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file with defaults",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		path, err := config.Init(configDir, cfg)
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Println(ui.Pass("Wrote %s", ui.Accent(path)))
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		fmt.Printf("data_dir:       %s\n", cfg.DataDir)
		fmt.Printf("backup_dir:     %s\n", orNone(cfg.BackupDir))
		fmt.Printf("auto_sync:      %v\n", cfg.AutoSync)
		fmt.Printf("sync_interval:  %s\n", cfg.SyncInterval)
		fmt.Printf("dashboard_port: %d\n", cfg.DashboardPort)
		fmt.Printf("log_file:       %s\n", orNone(cfg.LogFile))
		if cfg.GistToken != "" {
			fmt.Printf("gist_token:     %s\n", ui.Dim("(set)"))
		} else {
			fmt.Printf("gist_token:     %s\n", ui.Dim("(unset)"))
		}
	},
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(setupCmd, configCmd)
}
