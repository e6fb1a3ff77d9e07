package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/snipvault/snipvault/internal/config"
	"github.com/snipvault/snipvault/internal/mirror"
	"github.com/snipvault/snipvault/internal/record"
)

func TestOpenStore_MirrorsEveryMutation(t *testing.T) {
	cfg := config.Config{
		DataDir:   t.TempDir(),
		BackupDir: t.TempDir(),
	}

	st := openStore(cfg)
	f, err := st.AddFolder("go", nil)
	if err != nil {
		t.Fatalf("AddFolder() error = %v", err)
	}
	sn, err := st.AddSnippet("fetch", f.ID)
	if err != nil {
		t.Fatalf("AddSnippet() error = %v", err)
	}

	// Every mutation rewrites the mirror file, not just daemon writes.
	data, err := os.ReadFile(filepath.Join(cfg.BackupDir, mirror.FileName))
	if err != nil {
		t.Fatalf("mirror file missing after mutation: %v", err)
	}
	col, err := mirror.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if _, ok := col.FolderByID(f.ID); !ok {
		t.Errorf("mirror is missing folder %s", f.ID)
	}
	if _, ok := col.SnippetByID(sn.ID); !ok {
		t.Errorf("mirror is missing snippet %s", sn.ID)
	}

	if err := st.Delete(sn.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	data, err = os.ReadFile(filepath.Join(cfg.BackupDir, mirror.FileName))
	if err != nil {
		t.Fatalf("mirror file missing after delete: %v", err)
	}
	col, err = mirror.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if _, ok := col.SnippetByID(sn.ID); ok {
		t.Errorf("deleted snippet %s still present in mirror", sn.ID)
	}
}

func TestOpenStore_NoBackupDirSkipsMirror(t *testing.T) {
	cfg := config.Config{DataDir: t.TempDir()}

	st := openStore(cfg)
	if _, err := st.AddFolder("go", nil); err != nil {
		t.Fatalf("AddFolder() error = %v", err)
	}

	// No state database should appear when mirroring is disabled.
	if _, err := os.Stat(cfg.StatePath()); !os.IsNotExist(err) {
		t.Errorf("state database created without a backup_dir")
	}
}

func TestResolveSnippet_PrefixAndName(t *testing.T) {
	col := record.Collection{
		Snippets: []record.Snippet{
			{ID: "abc123", Name: "fetch"},
			{ID: "abd456", Name: "parse"},
		},
	}

	if s, err := resolveSnippet(col, "abc"); err != nil || s.ID != "abc123" {
		t.Errorf("resolveSnippet(abc) = %v, %v, want abc123", s.ID, err)
	}
	if s, err := resolveSnippet(col, "parse"); err != nil || s.ID != "abd456" {
		t.Errorf("resolveSnippet(parse) = %v, %v, want abd456", s.ID, err)
	}
	if _, err := resolveSnippet(col, "ab"); err == nil {
		t.Errorf("resolveSnippet(ab) accepted an ambiguous prefix")
	}
	if _, err := resolveSnippet(col, "zzz"); err == nil {
		t.Errorf("resolveSnippet(zzz) matched nothing but returned no error")
	}
}
