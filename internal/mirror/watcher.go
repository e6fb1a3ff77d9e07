package mirror

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the backup directory for changes to the mirror file
// and emits a debounced notification per burst of events. Cloud sync
// clients tend to write files in several quick operations; debouncing
// batches those into one absorb.
type Watcher struct {
	dir      string
	target   string
	debounce time.Duration
	logger   *log.Logger

	watcher *fsnotify.Watcher
	events  chan struct{}

	mu      sync.Mutex
	pending time.Time
	running bool
	wg      sync.WaitGroup
	done    chan struct{}
}

// NewWatcher creates a watcher for dir/FileName. The watcher must be
// started with Start before it emits events.
func NewWatcher(dir string, debounce time.Duration, logger *log.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[watch] ", log.LstdFlags)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		dir:      dir,
		target:   filepath.Join(dir, FileName),
		debounce: debounce,
		logger:   logger,
		watcher:  fw,
		events:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}, nil
}

// Events returns the channel that fires after a debounced change to the
// mirror file. The channel is closed when the watcher stops.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Start begins watching. The directory is watched rather than the file
// itself: sync clients replace the file wholesale, which would drop an
// inode-level watch.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("watcher already running")
	}

	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch backup directory %s: %w", w.dir, err)
	}

	w.running = true
	w.wg.Add(2)
	go w.collectEvents(ctx)
	go w.flushLoop(ctx)
	return nil
}

// Stop shuts the watcher down and waits for its goroutines.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)
	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	w.wg.Wait()
	close(w.events)
	return nil
}

func (w *Watcher) collectEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.target {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Printf("Watcher error: %v", err)
		}
	}
}

// flushLoop emits one event once a pending change has been quiet for
// the debounce interval.
func (w *Watcher) flushLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case <-ticker.C:
			w.mu.Lock()
			ready := !w.pending.IsZero() && time.Since(w.pending) >= w.debounce
			if ready {
				w.pending = time.Time{}
			}
			w.mu.Unlock()

			if ready {
				select {
				case w.events <- struct{}{}:
				default:
					// An event is already queued; one absorb covers both.
				}
			}
		}
	}
}
