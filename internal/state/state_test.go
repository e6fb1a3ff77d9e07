package state

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMapping_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.SetMapping(ctx, "s1", "gist-abc"); err != nil {
		t.Fatalf("SetMapping() error = %v", err)
	}

	got, err := db.Mapping(ctx, "s1")
	if err != nil {
		t.Fatalf("Mapping() error = %v", err)
	}
	if got != "gist-abc" {
		t.Errorf("Mapping(s1) = %q, want gist-abc", got)
	}
}

func TestMapping_Unknown(t *testing.T) {
	db := openTestDB(t)

	got, err := db.Mapping(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Mapping() error = %v", err)
	}
	if got != "" {
		t.Errorf("Mapping(nope) = %q, want empty", got)
	}
}

func TestSetMapping_Upserts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	db.SetMapping(ctx, "s1", "gist-old")
	if err := db.SetMapping(ctx, "s1", "gist-new"); err != nil {
		t.Fatalf("SetMapping() upsert error = %v", err)
	}

	got, _ := db.Mapping(ctx, "s1")
	if got != "gist-new" {
		t.Errorf("Mapping(s1) = %q, want gist-new", got)
	}

	all, err := db.Mappings(ctx)
	if err != nil {
		t.Fatalf("Mappings() error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("Mappings() = %d entries, want 1 after upsert", len(all))
	}
}

func TestDeleteMapping_Idempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	db.SetMapping(ctx, "s1", "gist-abc")
	if err := db.DeleteMapping(ctx, "s1"); err != nil {
		t.Fatalf("DeleteMapping() error = %v", err)
	}
	if err := db.DeleteMapping(ctx, "s1"); err != nil {
		t.Errorf("DeleteMapping() second call error = %v, want nil", err)
	}

	got, _ := db.Mapping(ctx, "s1")
	if got != "" {
		t.Errorf("Mapping(s1) = %q after delete, want empty", got)
	}
}

func TestMirrorState_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	hash, syncedAt, err := db.MirrorState(ctx, "/backup/file.json")
	if err != nil {
		t.Fatalf("MirrorState() error = %v", err)
	}
	if hash != "" || !syncedAt.IsZero() {
		t.Errorf("MirrorState() on fresh db = (%q, %v), want zero values", hash, syncedAt)
	}

	if err := db.SetMirrorState(ctx, "/backup/file.json", "deadbeef"); err != nil {
		t.Fatalf("SetMirrorState() error = %v", err)
	}

	hash, syncedAt, err = db.MirrorState(ctx, "/backup/file.json")
	if err != nil {
		t.Fatalf("MirrorState() error = %v", err)
	}
	if hash != "deadbeef" {
		t.Errorf("MirrorState() hash = %q, want deadbeef", hash)
	}
	if syncedAt.IsZero() {
		t.Errorf("MirrorState() syncedAt is zero, want a timestamp")
	}
}
