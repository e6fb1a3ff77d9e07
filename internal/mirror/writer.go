package mirror

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/snipvault/snipvault/internal/record"
)

// FileName is the mirror file kept inside the configured backup
// directory.
const FileName = "snipvault-backup.json"

// ErrUnreachable indicates the mirror location could not be written.
// Mirroring is best-effort: the originating store mutation has already
// succeeded, so this is reported, not fatal.
var ErrUnreachable = errors.New("mirror unreachable")

// Ledger records what was last written to or absorbed from a mirror
// path. The sqlite state database implements it.
type Ledger interface {
	SetMirrorState(ctx context.Context, path, contentHash string) error
	MirrorState(ctx context.Context, path string) (string, time.Time, error)
}

// Writer keeps the external mirror file synchronized with the canonical
// store. Register Write as a store after-write hook.
type Writer struct {
	path   string
	ledger Ledger
	logger *log.Logger
}

// NewWriter creates a mirror writer targeting dir/FileName.
func NewWriter(dir string, ledger Ledger, logger *log.Logger) *Writer {
	if logger == nil {
		logger = log.New(os.Stderr, "[mirror] ", log.LstdFlags)
	}
	return &Writer{
		path:   filepath.Join(dir, FileName),
		ledger: ledger,
		logger: logger,
	}
}

// Path returns the mirror file location.
func (w *Writer) Path() string {
	return w.path
}

// Write serializes the entire collection into the mirror file and
// records the written content hash so the watcher can recognize its
// own writes. Failures are returned as ErrUnreachable for the caller
// to report; they must never fail the store mutation that triggered
// the mirror.
func (w *Writer) Write(col record.Collection) error {
	data, err := Encode(col)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	tmpPath := w.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrUnreachable, tmpPath, err)
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: renaming into %s: %v", ErrUnreachable, w.path, err)
	}

	if err := w.ledger.SetMirrorState(context.Background(), w.path, HashBytes(data)); err != nil {
		w.logger.Printf("Warning: failed to record mirror hash: %v", err)
	}
	return nil
}

// Export writes the collection as a versioned envelope to an arbitrary
// user-chosen path, outside the watched mirror location.
func Export(col record.Collection, path string) error {
	data, err := Encode(col)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write export %s: %w", path, err)
	}
	return nil
}

// Import reads and decodes a backup file from a user-chosen path. The
// caller is expected to merge the result against the canonical store.
func Import(path string) (record.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return record.Collection{}, fmt.Errorf("failed to read import %s: %w", path, err)
	}
	return Decode(data)
}

// HashBytes returns the hex sha256 of data, the identity used by the
// self-trigger guard.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
