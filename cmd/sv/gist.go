package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/snipvault/snipvault/internal/config"
	"github.com/snipvault/snipvault/internal/gist"
	"github.com/snipvault/snipvault/internal/merge"
	"github.com/snipvault/snipvault/internal/ui"
)

var gistCmd = &cobra.Command{
	Use:     "gist",
	GroupID: "sync",
	Short:   "Replicate snippets to private gists",
}

func openChannel(cfg config.Config) (*gist.Channel, func()) {
	if cfg.GistToken == "" {
		fatalf("no gist token configured; set SNIPVAULT_GIST_TOKEN or run 'sv setup'")
	}
	db := openState(cfg)
	client := gist.NewClient(cfg.GistToken)
	return gist.NewChannel(client, db, nil), func() { db.Close() }
}

func reportResults(results []gist.ItemResult) (failed int) {
	for _, r := range results {
		switch r.Action {
		case gist.ActionFailed:
			failed++
			fmt.Fprintln(os.Stderr, ui.Fail("%s: %v", ui.ShortID(r.SnippetID), r.Err))
		case gist.ActionPruned:
			fmt.Println(ui.Warn("%s: pruned (remote document gone)", ui.ShortID(r.SnippetID)))
		default:
			fmt.Println(ui.Pass("%s: %s", ui.ShortID(r.SnippetID), r.Action))
		}
	}
	return failed
}

var gistPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push every snippet to its gist, pruning orphans",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		st := openStore(cfg)
		ch, closeState := openChannel(cfg)
		defer closeState()

		col, err := st.List()
		if err != nil {
			fatalf("%v", err)
		}

		results, err := ch.Push(context.Background(), col)
		failed := reportResults(results)
		if errors.Is(err, gist.ErrAuthInvalid) {
			fatalf("gist token rejected; run 'sv setup' to store a new one")
		}
		if err != nil {
			fatalf("%v", err)
		}
		if failed > 0 {
			fatalf("%d of %d items failed", failed, len(results))
		}
		fmt.Println(ui.Pass("Pushed %d items", len(results)))
	},
}

var gistPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull all gist replicas and merge them into the collection",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		st := openStore(cfg)
		ch, closeState := openChannel(cfg)
		defer closeState()

		local, err := st.List()
		if err != nil {
			fatalf("%v", err)
		}

		pulled, results, err := ch.Pull(context.Background(), local)
		failed := reportResults(results)
		if errors.Is(err, gist.ErrAuthInvalid) {
			fatalf("gist token rejected; run 'sv setup' to store a new one")
		}
		if err != nil {
			fatalf("%v", err)
		}

		if len(pulled.Folders)+len(pulled.Snippets) > 0 {
			merged := merge.Collections(local, pulled)
			if err := st.ReplaceAll(merged); err != nil {
				fatalf("%v", err)
			}
		}
		if failed > 0 {
			fatalf("%d of %d items failed", failed, len(results))
		}
		fmt.Println(ui.Pass("Pulled %d items", len(results)))
	},
}

var gistSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull, merge, then push (full round trip)",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		st := openStore(cfg)
		ch, closeState := openChannel(cfg)
		defer closeState()
		ctx := context.Background()

		local, err := st.List()
		if err != nil {
			fatalf("%v", err)
		}

		pulled, pullResults, err := ch.Pull(ctx, local)
		if errors.Is(err, gist.ErrAuthInvalid) {
			fatalf("gist token rejected; run 'sv setup' to store a new one")
		}
		if err != nil {
			fatalf("%v", err)
		}
		if len(pulled.Folders)+len(pulled.Snippets) > 0 {
			local = merge.Collections(local, pulled)
			if err := st.ReplaceAll(local); err != nil {
				fatalf("%v", err)
			}
		}

		pushResults, err := ch.Push(ctx, local)
		if errors.Is(err, gist.ErrAuthInvalid) {
			fatalf("gist token rejected; run 'sv setup' to store a new one")
		}
		if err != nil {
			fatalf("%v", err)
		}

		failed := reportResults(pullResults) + reportResults(pushResults)
		if failed > 0 {
			fatalf("%d items failed", failed)
		}
		fmt.Println(ui.Pass("Synced: %d pulled, %d pushed", len(pullResults), len(pushResults)))
	},
}

var gistPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete gists whose snippet no longer exists locally",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		st := openStore(cfg)
		ch, closeState := openChannel(cfg)
		defer closeState()

		col, err := st.List()
		if err != nil {
			fatalf("%v", err)
		}

		results, err := ch.Prune(context.Background(), col)
		failed := reportResults(results)
		if errors.Is(err, gist.ErrAuthInvalid) {
			fatalf("gist token rejected; run 'sv setup' to store a new one")
		}
		if err != nil {
			fatalf("%v", err)
		}
		if failed > 0 {
			fatalf("%d items failed", failed)
		}
		fmt.Println(ui.Pass("Pruned %d orphaned gist(s)", len(results)))
	},
}

func init() {
	gistCmd.AddCommand(gistPushCmd, gistPullCmd, gistSyncCmd, gistPruneCmd)
	rootCmd.AddCommand(gistCmd)
}
