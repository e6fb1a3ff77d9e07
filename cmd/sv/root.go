package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/snipvault/snipvault/internal/config"
	"github.com/snipvault/snipvault/internal/mirror"
	"github.com/snipvault/snipvault/internal/record"
	"github.com/snipvault/snipvault/internal/state"
	"github.com/snipvault/snipvault/internal/store"
	"github.com/snipvault/snipvault/internal/ui"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "sv",
	Short: "Personal snippet store with mirror and gist replication",
	Long: `sv manages a local collection of code snippets organized into folders.

The collection lives in a single canonical JSON file. Two optional
replicas keep it safe and portable:

  - a flat backup mirror written into a cloud-synced directory and
    watched for edits made on other machines
  - one private gist per snippet, pushed and pulled on demand

All replicas converge through last-write-wins merging on each record's
modification timestamp.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command, exiting non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Fail("%v", err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "Config directory (default: OS user config dir)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "snippets", Title: "Snippet Commands:"},
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
		&cobra.Group{ID: "setup", Title: "Setup Commands:"},
	)
}

func loadConfig() config.Config {
	cfg, err := config.Load(configDir)
	if err != nil {
		fatalf("failed to load config: %v", err)
	}
	return cfg
}

// openStore opens the canonical collection with the backup mirror
// attached: every successful mutation immediately rewrites the mirror
// file. Commands that wire their own mirroring use openStoreBare.
func openStore(cfg config.Config) *store.Store {
	st := openStoreBare(cfg)
	attachMirror(cfg, st)
	return st
}

func openStoreBare(cfg config.Config) *store.Store {
	st, err := store.Open(cfg.CollectionPath(), nil)
	if err != nil {
		fatalf("failed to open collection: %v", err)
	}
	return st
}

// attachMirror registers the mirror write hook when a backup directory
// is configured. Mirror failures warn; they never fail the mutation.
func attachMirror(cfg config.Config, st *store.Store) {
	if cfg.BackupDir == "" {
		return
	}
	db, err := state.Open(cfg.StatePath())
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.Warn("mirroring disabled: %v", err))
		return
	}
	writer := mirror.NewWriter(cfg.BackupDir, db, nil)
	st.OnWrite(func(col record.Collection) {
		if err := writer.Write(col); err != nil {
			fmt.Fprintln(os.Stderr, ui.Warn("mirror write failed: %v", err))
		}
	})
}

func openState(cfg config.Config) *state.DB {
	db, err := state.Open(cfg.StatePath())
	if err != nil {
		fatalf("failed to open state database: %v", err)
	}
	return db
}

func fatalf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, ui.Fail(format, args...))
	os.Exit(1)
}

// resolveFolder matches an argument against folder ids, id prefixes,
// and exact names, in that order. Ambiguous matches are an error.
func resolveFolder(col record.Collection, arg string) (record.Folder, error) {
	if f, ok := col.FolderByID(arg); ok {
		return f, nil
	}

	var matches []record.Folder
	for _, f := range col.Folders {
		if strings.HasPrefix(f.ID, arg) {
			matches = append(matches, f)
		}
	}
	if len(matches) == 0 {
		for _, f := range col.Folders {
			if f.Name == arg {
				matches = append(matches, f)
			}
		}
	}

	switch len(matches) {
	case 0:
		return record.Folder{}, fmt.Errorf("no folder matches %q", arg)
	case 1:
		return matches[0], nil
	default:
		return record.Folder{}, fmt.Errorf("%q is ambiguous: %d folders match", arg, len(matches))
	}
}

// resolveSnippet matches like resolveFolder, against snippets.
func resolveSnippet(col record.Collection, arg string) (record.Snippet, error) {
	if s, ok := col.SnippetByID(arg); ok {
		return s, nil
	}

	var matches []record.Snippet
	for _, s := range col.Snippets {
		if strings.HasPrefix(s.ID, arg) {
			matches = append(matches, s)
		}
	}
	if len(matches) == 0 {
		for _, s := range col.Snippets {
			if s.Name == arg {
				matches = append(matches, s)
			}
		}
	}

	switch len(matches) {
	case 0:
		return record.Snippet{}, fmt.Errorf("no snippet matches %q", arg)
	case 1:
		return matches[0], nil
	default:
		return record.Snippet{}, fmt.Errorf("%q is ambiguous: %d snippets match", arg, len(matches))
	}
}
