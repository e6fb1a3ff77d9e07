// Package daemon runs the long-lived sync loop: it keeps the mirror
// file current on every store write, absorbs out-of-band mirror edits
// as the watcher reports them, and optionally syncs the remote replicas
// on a timer.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/snipvault/snipvault/internal/dashboard"
	"github.com/snipvault/snipvault/internal/gist"
	"github.com/snipvault/snipvault/internal/merge"
	"github.com/snipvault/snipvault/internal/mirror"
	"github.com/snipvault/snipvault/internal/record"
	"github.com/snipvault/snipvault/internal/store"
)

// Config wires the daemon's collaborators. Store is required; the rest
// are optional and switch their feature off when nil.
type Config struct {
	Store *store.Store

	// Mirror support. Writer and Absorber come together with Watcher.
	Writer   *mirror.Writer
	Absorber *mirror.Absorber
	Watcher  *mirror.Watcher

	// Channel enables periodic remote sync when SyncInterval > 0.
	Channel      *gist.Channel
	SyncInterval time.Duration

	// Dashboard receives live broadcasts when non-nil.
	Dashboard *dashboard.Server

	Logger *log.Logger
}

// Daemon coordinates the replicas around the canonical store.
type Daemon struct {
	cfg    Config
	logger *log.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New validates the wiring and returns a daemon ready to Run.
func New(cfg Config) (*Daemon, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if (cfg.Watcher == nil) != (cfg.Absorber == nil) {
		return nil, fmt.Errorf("watcher and absorber must be configured together")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[daemon] ", log.LstdFlags)
	}
	return &Daemon{cfg: cfg, logger: cfg.Logger}, nil
}

// Run starts the sync loop and blocks until ctx is cancelled.
//
// On startup the daemon absorbs any mirror edits that happened while it
// was down, then mirrors the current collection so the backup is never
// stale. Every subsequent store write re-mirrors through the write hook.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Println("Starting daemon")

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	defer cancel()

	if d.cfg.Writer != nil {
		d.cfg.Store.OnWrite(func(col record.Collection) {
			if err := d.cfg.Writer.Write(col); err != nil {
				d.logger.Printf("Warning: mirror write failed: %v", err)
			}
			if d.cfg.Dashboard != nil {
				d.cfg.Dashboard.Broadcast(dashboard.Message{Type: dashboard.MessageTypeCollection})
				d.cfg.Dashboard.BroadcastStats(col)
			}
		})
	}

	if d.cfg.Absorber != nil {
		if err := d.catchUp(ctx); err != nil {
			return err
		}
		if err := d.cfg.Watcher.Start(ctx); err != nil {
			return fmt.Errorf("failed to start mirror watcher: %w", err)
		}
		defer d.cfg.Watcher.Stop()

		d.wg.Add(1)
		go d.watchLoop(ctx)
	}

	if d.cfg.Channel != nil && d.cfg.SyncInterval > 0 {
		d.wg.Add(1)
		go d.remoteSyncLoop(ctx)
	}

	<-ctx.Done()
	d.logger.Println("Shutdown signal received")
	d.wg.Wait()
	d.logger.Println("Daemon stopped")
	return nil
}

// catchUp absorbs mirror edits made while the daemon was down, then
// rewrites the mirror from the current collection.
func (d *Daemon) catchUp(ctx context.Context) error {
	absorbed, err := d.cfg.Absorber.Absorb(ctx)
	if err != nil {
		if errors.Is(err, mirror.ErrInvalidFormat) {
			d.logger.Printf("Warning: mirror file is malformed, leaving it alone: %v", err)
		} else {
			return fmt.Errorf("startup absorb failed: %w", err)
		}
	}
	if absorbed {
		d.logger.Println("Absorbed mirror edits from downtime")
	}

	col, err := d.cfg.Store.List()
	if err != nil {
		return fmt.Errorf("failed to read store: %w", err)
	}
	if err := d.cfg.Writer.Write(col); err != nil {
		d.logger.Printf("Warning: initial mirror write failed: %v", err)
	}
	return nil
}

func (d *Daemon) watchLoop(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-d.cfg.Watcher.Events():
			if !ok {
				return
			}
			absorbed, err := d.cfg.Absorber.Absorb(ctx)
			if err != nil {
				d.logger.Printf("Warning: absorb failed: %v", err)
				continue
			}
			if absorbed {
				d.logger.Println("Absorbed external mirror edit")
				if d.cfg.Dashboard != nil {
					d.cfg.Dashboard.Broadcast(dashboard.Message{Type: dashboard.MessageTypeMirrorAbsorbed})
				}
			}
		}
	}
}

func (d *Daemon) remoteSyncLoop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.SyncRemote(ctx); err != nil {
				if errors.Is(err, gist.ErrAuthInvalid) {
					d.logger.Printf("Remote sync disabled: %v", err)
					return
				}
				d.logger.Printf("Warning: remote sync failed: %v", err)
			}
		}
	}
}

// SyncRemote pulls the remote replicas, merges them into the store, and
// pushes the merged collection back out.
func (d *Daemon) SyncRemote(ctx context.Context) error {
	local, err := d.cfg.Store.List()
	if err != nil {
		return fmt.Errorf("failed to read store: %w", err)
	}

	pulled, pullResults, err := d.cfg.Channel.Pull(ctx, local)
	if err != nil {
		return err
	}
	if len(pulled.Folders)+len(pulled.Snippets) > 0 {
		merged := merge.Collections(local, pulled)
		if err := d.cfg.Store.ReplaceAll(merged); err != nil {
			return fmt.Errorf("failed to apply pulled records: %w", err)
		}
		local = merged
	}

	pushResults, err := d.cfg.Channel.Push(ctx, local)
	if err != nil {
		return err
	}

	if d.cfg.Dashboard != nil {
		d.cfg.Dashboard.BroadcastRemoteSync("pull", len(pullResults), countFailed(pullResults))
		d.cfg.Dashboard.BroadcastRemoteSync("push", len(pushResults), countFailed(pushResults))
	}
	d.logger.Printf("Remote sync complete: %d pulled, %d pushed", len(pullResults), len(pushResults))
	return nil
}

func countFailed(results []gist.ItemResult) int {
	n := 0
	for _, r := range results {
		if r.Action == gist.ActionFailed {
			n++
		}
	}
	return n
}

// Stop cancels a running daemon. Safe to call once Run has started.
func (d *Daemon) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
}
