package mirror

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_EmitsAfterDebounce(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher(dir, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	// A burst of writes should collapse into one event.
	target := filepath.Join(dir, FileName)
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(target, []byte(`[]`), 0600); err != nil {
			t.Fatalf("write: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-w.Events():
	case <-time.After(2 * time.Second):
		t.Fatalf("no event after mirror file change")
	}

	// Quiet period: no further events pending.
	select {
	case <-w.Events():
		// A second queued event is acceptable only right after the
		// burst; anything later means the debounce never settles.
		select {
		case <-w.Events():
			t.Errorf("watcher kept emitting without file changes")
		case <-time.After(200 * time.Millisecond):
		}
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher(dir, 30*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0600)

	select {
	case <-w.Events():
		t.Errorf("watcher fired for an unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_StartTwiceFails(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), 30*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	ctx := context.Background()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	if err := w.Start(ctx); err == nil {
		t.Errorf("second Start() succeeded, want error")
	}
}
