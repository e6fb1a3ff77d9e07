// Package state provides the embedded sqlite ledger that tracks
// cross-replica sync state: the snippet-to-gist id mapping and the
// mirror file's last-synced hash.
//
// The ledger is local bookkeeping, not a replica: losing it costs a
// re-push (new gists) and one redundant mirror absorb, never data.
package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB wraps the sqlite connection holding sync-state tables.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens the state database at path. WAL mode keeps
// concurrent reads cheap while the daemon writes.
//
// The caller must Close when done.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping state database: %w", err)
	}

	db := &DB{conn: conn, path: path}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.conn.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := db.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Close checkpoints the WAL and closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}
	err := db.conn.Close()
	db.conn = nil
	if err != nil {
		return fmt.Errorf("failed to close state database: %w", err)
	}
	return nil
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS gist_map (
		snippet_id TEXT PRIMARY KEY,
		gist_id    TEXT NOT NULL,
		pushed_at  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS mirror_state (
		path         TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		synced_at    TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_gist_map_gist ON gist_map(gist_id);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize state schema: %w", err)
	}
	return nil
}

// SetMapping records that a snippet is replicated by a gist.
func (db *DB) SetMapping(ctx context.Context, snippetID, gistID string) error {
	query := `
	INSERT INTO gist_map (snippet_id, gist_id, pushed_at)
	VALUES (?, ?, ?)
	ON CONFLICT(snippet_id) DO UPDATE SET
		gist_id = excluded.gist_id,
		pushed_at = excluded.pushed_at
	`
	_, err := db.conn.ExecContext(ctx, query, snippetID, gistID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record mapping %s -> %s: %w", snippetID, gistID, err)
	}
	return nil
}

// Mapping returns the gist id mapped to a snippet, or "" when none.
func (db *DB) Mapping(ctx context.Context, snippetID string) (string, error) {
	var gistID string
	err := db.conn.QueryRowContext(ctx,
		"SELECT gist_id FROM gist_map WHERE snippet_id = ?", snippetID).Scan(&gistID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up mapping for %s: %w", snippetID, err)
	}
	return gistID, nil
}

// Mappings returns the full snippet-to-gist map.
func (db *DB) Mappings(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT snippet_id, gist_id FROM gist_map")
	if err != nil {
		return nil, fmt.Errorf("failed to query mappings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var snippetID, gistID string
		if err := rows.Scan(&snippetID, &gistID); err != nil {
			return nil, fmt.Errorf("failed to scan mapping: %w", err)
		}
		out[snippetID] = gistID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mappings: %w", err)
	}
	return out, nil
}

// DeleteMapping removes a snippet's mapping. Idempotent.
func (db *DB) DeleteMapping(ctx context.Context, snippetID string) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM gist_map WHERE snippet_id = ?", snippetID)
	if err != nil {
		return fmt.Errorf("failed to delete mapping for %s: %w", snippetID, err)
	}
	return nil
}

// SetMirrorState records the content hash last written to (or absorbed
// from) a mirror file, with the sync time.
func (db *DB) SetMirrorState(ctx context.Context, path, contentHash string) error {
	query := `
	INSERT INTO mirror_state (path, content_hash, synced_at)
	VALUES (?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET
		content_hash = excluded.content_hash,
		synced_at = excluded.synced_at
	`
	_, err := db.conn.ExecContext(ctx, query, path, contentHash, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record mirror state for %s: %w", path, err)
	}
	return nil
}

// MirrorState returns the last-synced content hash and time for a
// mirror path. A zero return means the path has never synced.
func (db *DB) MirrorState(ctx context.Context, path string) (string, time.Time, error) {
	var hash, syncedAt string
	err := db.conn.QueryRowContext(ctx,
		"SELECT content_hash, synced_at FROM mirror_state WHERE path = ?", path).Scan(&hash, &syncedAt)
	if err == sql.ErrNoRows {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to look up mirror state for %s: %w", path, err)
	}

	t, err := time.Parse(time.RFC3339, syncedAt)
	if err != nil {
		return hash, time.Time{}, nil
	}
	return hash, t, nil
}
