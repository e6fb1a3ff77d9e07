package mirror

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/snipvault/snipvault/internal/merge"
	"github.com/snipvault/snipvault/internal/record"
	"github.com/snipvault/snipvault/internal/store"
)

// Absorber folds external edits of the mirror file back into the
// canonical store.
type Absorber struct {
	store  *store.Store
	writer *Writer
	ledger Ledger
	logger *log.Logger
}

// NewAbsorber wires the absorb path. The writer is used to re-mirror
// the merged collection after a successful absorb.
func NewAbsorber(st *store.Store, writer *Writer, ledger Ledger, logger *log.Logger) *Absorber {
	if logger == nil {
		logger = log.New(os.Stderr, "[mirror] ", log.LstdFlags)
	}
	return &Absorber{store: st, writer: writer, ledger: ledger, logger: logger}
}

// Absorb reads the mirror file, merges it into the canonical store,
// and replaces the store's collection with the result.
//
// Two guards keep the write->watch->merge->write loop from spinning:
// a file whose content hash matches the last mirrored hash is our own
// write and is skipped, and a malformed file is logged and skipped
// without touching the store. Returns true when a merge was applied.
func (a *Absorber) Absorb(ctx context.Context) (bool, error) {
	path := a.writer.Path()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read mirror %s: %w", path, err)
	}

	hash := HashBytes(data)
	lastHash, _, err := a.ledger.MirrorState(ctx, path)
	if err != nil {
		a.logger.Printf("Warning: mirror state lookup failed: %v", err)
	}
	if hash == lastHash {
		// Unchanged since the last sync (usually our own write).
		return false, nil
	}

	incoming, err := Decode(data)
	if err != nil {
		// Never let a corrupt mirror touch the canonical store.
		return false, err
	}

	local, err := a.store.List()
	if err != nil {
		return false, err
	}

	merged := merge.Collections(local, incoming)
	if err := a.store.ReplaceAll(merged); err != nil {
		return false, err
	}

	if err := a.ledger.SetMirrorState(ctx, path, hash); err != nil {
		a.logger.Printf("Warning: failed to record absorbed hash: %v", err)
	}

	// Re-mirror so the file reflects the merged superset. The writer
	// records the new hash, so the resulting watch event is skipped.
	if err := a.writer.Write(merged); err != nil {
		a.logger.Printf("Warning: re-mirror after absorb failed: %v", err)
	}

	a.logger.Printf("Absorbed mirror: %d folders, %d snippets merged",
		len(incoming.Folders), len(incoming.Snippets))
	return true, nil
}

// ImportInto merges a backup file from an arbitrary path into the
// store. Unlike Absorb it has no self-trigger guard; it is the explicit
// import command. Returns the merged collection.
func ImportInto(st *store.Store, path string) (record.Collection, error) {
	incoming, err := Import(path)
	if err != nil {
		return record.Collection{}, err
	}

	local, err := st.List()
	if err != nil {
		return record.Collection{}, err
	}

	merged := merge.Collections(local, incoming)
	if err := st.ReplaceAll(merged); err != nil {
		return record.Collection{}, err
	}
	return merged, nil
}
