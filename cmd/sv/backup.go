package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/snipvault/snipvault/internal/mirror"
	"github.com/snipvault/snipvault/internal/ui"
)

var backupCmd = &cobra.Command{
	Use:     "backup",
	GroupID: "sync",
	Short:   "Export, import, or watch the flat backup mirror",
}

var backupExportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Write the collection as a flat backup file",
	Long: `Write the collection as a flat backup file.

Without a path the mirror file in the configured backup directory is
refreshed. With a path an export is written there instead; the mirror
state ledger is not involved.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		st := openStoreBare(cfg)

		col, err := st.List()
		if err != nil {
			fatalf("%v", err)
		}

		if len(args) == 1 {
			if err := mirror.Export(col, args[0]); err != nil {
				fatalf("%v", err)
			}
			fmt.Println(ui.Pass("Exported %d folders, %d snippets to %s",
				len(col.Folders), len(col.Snippets), ui.Accent(args[0])))
			return
		}

		if cfg.BackupDir == "" {
			fatalf("no backup_dir configured; pass an explicit path or run 'sv setup'")
		}
		db := openState(cfg)
		defer db.Close()

		writer := mirror.NewWriter(cfg.BackupDir, db, nil)
		if err := writer.Write(col); err != nil {
			if errors.Is(err, mirror.ErrUnreachable) {
				fatalf("backup directory unreachable: %v", err)
			}
			fatalf("%v", err)
		}
		fmt.Println(ui.Pass("Mirrored %d folders, %d snippets to %s",
			len(col.Folders), len(col.Snippets), ui.Accent(writer.Path())))
	},
}

var backupImportCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Merge a backup file into the collection",
	Long: `Merge a backup file into the collection.

All three historical backup shapes are accepted. The file is merged
last-write-wins against the local collection; a file that fails
validation is rejected wholesale and the collection is untouched.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		st := openStore(cfg)

		merged, err := mirror.ImportInto(st, args[0])
		if err != nil {
			if errors.Is(err, mirror.ErrInvalidFormat) {
				fatalf("not a recognized backup file: %v", err)
			}
			fatalf("%v", err)
		}
		fmt.Println(ui.Pass("Imported: collection now has %d folders, %d snippets",
			len(merged.Folders), len(merged.Snippets)))
	},
}

var backupWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the mirror file and absorb external edits",
	Long: `Watch the mirror file and absorb external edits.

Runs in the foreground until interrupted. Our own mirror writes are
recognized by content hash and skipped; real external changes are
merged into the collection and the mirror is rewritten with the merged
result. Prefer 'sv daemon' for the full loop including remote sync and
the dashboard.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if cfg.BackupDir == "" {
			fatalf("no backup_dir configured; run 'sv setup'")
		}
		st := openStoreBare(cfg)
		db := openState(cfg)
		defer db.Close()

		writer := mirror.NewWriter(cfg.BackupDir, db, nil)
		absorber := mirror.NewAbsorber(st, writer, db, nil)
		watcher, err := mirror.NewWatcher(cfg.BackupDir, 500*time.Millisecond, nil)
		if err != nil {
			fatalf("%v", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if absorbed, err := absorber.Absorb(ctx); err != nil {
			fmt.Fprintln(os.Stderr, ui.Warn("startup absorb failed: %v", err))
		} else if absorbed {
			fmt.Println(ui.Pass("Absorbed mirror edits from downtime"))
		}

		if err := watcher.Start(ctx); err != nil {
			fatalf("%v", err)
		}
		defer watcher.Stop()

		fmt.Println(ui.Pass("Watching %s", ui.Accent(cfg.BackupDir)))
		for {
			select {
			case <-ctx.Done():
				fmt.Println("\nStopped")
				return
			case _, ok := <-watcher.Events():
				if !ok {
					return
				}
				absorbed, err := absorber.Absorb(ctx)
				if err != nil {
					fmt.Fprintln(os.Stderr, ui.Warn("absorb failed: %v", err))
					continue
				}
				if absorbed {
					fmt.Println(ui.Pass("Absorbed external mirror edit"))
				}
			}
		}
	},
}

func init() {
	backupCmd.AddCommand(backupExportCmd, backupImportCmd, backupWatchCmd)
	rootCmd.AddCommand(backupCmd)
}
