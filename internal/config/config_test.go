package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DataDir != filepath.Join(dir, "data") {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.AutoSync {
		t.Errorf("AutoSync defaults to true")
	}
	if cfg.SyncInterval != 5*time.Minute {
		t.Errorf("SyncInterval = %v", cfg.SyncInterval)
	}
}

func TestLoad_FileValues(t *testing.T) {
	dir := t.TempDir()
	raw := strings.Join([]string{
		"data_dir: /tmp/sv-data",
		"backup_dir: /tmp/Dropbox/snipvault",
		"auto_sync: true",
		"sync_interval: 90s",
		"dashboard_port: 9911",
	}, "\n")
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(raw), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BackupDir != "/tmp/Dropbox/snipvault" {
		t.Errorf("BackupDir = %q", cfg.BackupDir)
	}
	if !cfg.AutoSync || cfg.SyncInterval != 90*time.Second {
		t.Errorf("sync settings = %v/%v", cfg.AutoSync, cfg.SyncInterval)
	}
	if cfg.DashboardPort != 9911 {
		t.Errorf("DashboardPort = %d", cfg.DashboardPort)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SNIPVAULT_GIST_TOKEN", "env-token")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GistToken != "env-token" {
		t.Errorf("GistToken = %q, want env value", cfg.GistToken)
	}
}

func TestInit_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()

	path, err := Init(dir, Config{DataDir: "/tmp/x"})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	if _, err := Init(dir, Config{}); err == nil {
		t.Errorf("second Init() overwrote existing config")
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := Config{
		DataDir:       "/tmp/sv",
		BackupDir:     "/tmp/mirror",
		AutoSync:      true,
		SyncInterval:  2 * time.Minute,
		DashboardPort: 8822,
	}

	if _, err := Save(dir, in); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.DataDir != in.DataDir || got.BackupDir != in.BackupDir ||
		got.AutoSync != in.AutoSync || got.DashboardPort != in.DashboardPort {
		t.Errorf("round trip mismatch: %+v", got)
	}
}
