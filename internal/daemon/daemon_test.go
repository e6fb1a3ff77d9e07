package daemon

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/snipvault/snipvault/internal/mirror"
	"github.com/snipvault/snipvault/internal/record"
	"github.com/snipvault/snipvault/internal/store"
)

type memLedger struct {
	mu     sync.Mutex
	hashes map[string]string
}

func newMemLedger() *memLedger {
	return &memLedger{hashes: make(map[string]string)}
}

func (l *memLedger) SetMirrorState(_ context.Context, path, hash string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hashes[path] = hash
	return nil
}

func (l *memLedger) MirrorState(_ context.Context, path string) (string, time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hashes[path], time.Time{}, nil
}

func setupDaemon(t *testing.T) (*Daemon, *store.Store, string) {
	t.Helper()
	dataDir := t.TempDir()
	backupDir := t.TempDir()

	st, err := store.Open(filepath.Join(dataDir, "collection.json"), nil)
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}

	ledger := newMemLedger()
	writer := mirror.NewWriter(backupDir, ledger, nil)
	absorber := mirror.NewAbsorber(st, writer, ledger, nil)
	watcher, err := mirror.NewWatcher(backupDir, 30*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	d, err := New(Config{
		Store:    st,
		Writer:   writer,
		Absorber: absorber,
		Watcher:  watcher,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return d, st, backupDir
}

func TestNew_RequiresStore(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("New() accepted a nil store")
	}
}

func TestNew_WatcherWithoutAbsorberRejected(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "c.json"), nil)
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	w, err := mirror.NewWatcher(t.TempDir(), time.Second, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if _, err := New(Config{Store: st, Watcher: w}); err == nil {
		t.Fatal("New() accepted a watcher with no absorber")
	}
}

func TestRun_MirrorsOnStartupAndOnWrite(t *testing.T) {
	d, st, backupDir := setupDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	mirrorPath := filepath.Join(backupDir, mirror.FileName)
	waitFor(t, func() bool {
		_, err := os.Stat(mirrorPath)
		return err == nil
	}, "initial mirror write")

	// A store write must re-mirror.
	if _, err := st.AddFolder("go", nil); err != nil {
		t.Fatalf("AddFolder() error = %v", err)
	}
	waitFor(t, func() bool {
		data, err := os.ReadFile(mirrorPath)
		return err == nil && containsName(data, "go")
	}, "mirror refresh after store write")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

func TestRun_AbsorbsExternalMirrorEdit(t *testing.T) {
	d, st, backupDir := setupDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	mirrorPath := filepath.Join(backupDir, mirror.FileName)
	waitFor(t, func() bool {
		_, err := os.Stat(mirrorPath)
		return err == nil
	}, "initial mirror write")

	// Give the watcher time to come up before the external edit lands.
	time.Sleep(100 * time.Millisecond)

	// Another machine drops a new backup into the synced directory.
	external := record.Collection{
		Folders: []record.Folder{{ID: "ext-f", Name: "from elsewhere", LastModified: record.NowMillis()}},
	}
	data, err := mirror.Encode(external)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if err := os.WriteFile(mirrorPath, data, 0600); err != nil {
		t.Fatalf("write mirror: %v", err)
	}

	waitFor(t, func() bool {
		col, err := st.List()
		if err != nil {
			return false
		}
		_, ok := col.FolderByID("ext-f")
		return ok
	}, "external edit absorbed into store")
}

func TestRun_AbsorbsDowntimeEditsOnStartup(t *testing.T) {
	d, st, backupDir := setupDaemon(t)

	// Edit lands before the daemon ever runs.
	external := record.Collection{
		Folders: []record.Folder{{ID: "old-f", Name: "while down", LastModified: record.NowMillis()}},
	}
	data, _ := mirror.Encode(external)
	if err := os.WriteFile(filepath.Join(backupDir, mirror.FileName), data, 0600); err != nil {
		t.Fatalf("write mirror: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	waitFor(t, func() bool {
		col, err := st.List()
		if err != nil {
			return false
		}
		_, ok := col.FolderByID("old-f")
		return ok
	}, "downtime edit absorbed on startup")
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func containsName(data []byte, name string) bool {
	var envelope struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return false
	}
	for _, raw := range envelope.Data {
		var rec struct {
			Name string `json:"name"`
		}
		if json.Unmarshal(raw, &rec) == nil && rec.Name == name {
			return true
		}
	}
	return false
}
