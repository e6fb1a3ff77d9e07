package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/snipvault/snipvault/internal/record"
)

// Store is the canonical collection store: a single JSON document
// holding the full folder and snippet collections, read and written
// wholesale.
//
// The store is the one authoritative replica. The backup mirror and the
// remote channel hold derived copies that are only ever reconciled back
// through timestamp comparison.
type Store struct {
	path   string
	logger *log.Logger

	mu     sync.Mutex
	col    record.Collection
	loaded bool

	afterWrite []func(record.Collection)
}

// Open loads the collection file at path, creating an empty store when
// the file does not exist yet.
//
// A file that exists but cannot be parsed or validated fails with
// ErrCorruptCollection; the bad file is left untouched on disk.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "[store] ", log.LstdFlags)
	}

	s := &Store{path: path, logger: logger}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the location of the collection file.
func (s *Store) Path() string {
	return s.path
}

// OnWrite registers a hook invoked with a snapshot after every
// successful mutation. Hooks must not call back into the store; the
// mirror writer and dashboard broadcaster hang off this.
func (s *Store) OnWrite(fn func(record.Collection)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.afterWrite = append(s.afterWrite, fn)
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.col = record.Collection{Folders: []record.Folder{}, Snippets: []record.Snippet{}}
		s.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrStorageUnavailable, s.path, err)
	}

	var col record.Collection
	if err := json.Unmarshal(data, &col); err != nil {
		return fmt.Errorf("%w: parsing %s: %v", ErrCorruptCollection, s.path, err)
	}
	if err := col.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptCollection, err)
	}

	s.col = col
	s.loaded = true
	return nil
}

// List returns a sanitized snapshot of the full collection.
// Sanitization is a read-time normalization: it fills defaults on the
// returned copy and never rewrites the file.
func (s *Store) List() (record.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshotLocked()
	snap.Sanitize()
	return snap, nil
}

// Get returns the folder or snippet with the given id, sanitized.
func (s *Store) Get(id string) (any, error) {
	col, err := s.List()
	if err != nil {
		return nil, err
	}
	if f, ok := col.FolderByID(id); ok {
		return f, nil
	}
	if sn, ok := col.SnippetByID(id); ok {
		return sn, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Put inserts or replaces one record. The record's LastModified is
// taken as-is; callers that intend a mutation must Touch first.
func (s *Store) Put(rec any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snapshotLocked()

	switch r := rec.(type) {
	case record.Folder:
		if err := r.Validate(); err != nil {
			return err
		}
		replaced := false
		for i := range s.col.Folders {
			if s.col.Folders[i].ID == r.ID {
				s.col.Folders[i] = r
				replaced = true
				break
			}
		}
		if !replaced {
			s.col.Folders = append(s.col.Folders, r)
		}
	case record.Snippet:
		if err := r.Validate(); err != nil {
			return err
		}
		replaced := false
		for i := range s.col.Snippets {
			if s.col.Snippets[i].ID == r.ID {
				s.col.Snippets[i] = r
				replaced = true
				break
			}
		}
		if !replaced {
			s.col.Snippets = append(s.col.Snippets, r)
		}
	default:
		return fmt.Errorf("unsupported record type %T", rec)
	}

	return s.persistOrRollbackLocked(prev)
}

// Delete removes the record with the given id. Deleting a folder
// cascades to every snippet whose folderId matches, in the same write.
// Subfolders are not discovered here; recursive deletes walk the tree
// at the command layer.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snapshotLocked()

	for i := range s.col.Folders {
		if s.col.Folders[i].ID != id {
			continue
		}
		s.col.Folders = append(s.col.Folders[:i], s.col.Folders[i+1:]...)

		kept := s.col.Snippets[:0]
		for _, sn := range s.col.Snippets {
			if sn.FolderID != id {
				kept = append(kept, sn)
			}
		}
		s.col.Snippets = kept
		return s.persistOrRollbackLocked(prev)
	}

	for i := range s.col.Snippets {
		if s.col.Snippets[i].ID == id {
			s.col.Snippets = append(s.col.Snippets[:i], s.col.Snippets[i+1:]...)
			return s.persistOrRollbackLocked(prev)
		}
	}

	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// ReplaceAll swaps in a whole new collection. This is the primitive
// used after any merge. The write is atomic: a temp file is renamed
// over the old one, so no reader observes a half-written collection.
func (s *Store) ReplaceAll(col record.Collection) error {
	if err := col.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptCollection, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.col
	s.col = col
	return s.persistOrRollbackLocked(prev)
}

// persistOrRollbackLocked writes the collection to disk, restoring prev
// on failure so a failed mutation leaves nothing behind in memory.
func (s *Store) persistOrRollbackLocked(prev record.Collection) error {
	if err := s.persistLocked(); err != nil {
		s.col = prev
		return err
	}
	return nil
}

// snapshotLocked deep-copies the collection so callers can't alias the
// store's slices.
func (s *Store) snapshotLocked() record.Collection {
	snap := record.Collection{
		Folders:  make([]record.Folder, len(s.col.Folders)),
		Snippets: make([]record.Snippet, len(s.col.Snippets)),
	}
	copy(snap.Folders, s.col.Folders)
	copy(snap.Snippets, s.col.Snippets)
	for i := range snap.Snippets {
		if snap.Snippets[i].Tags != nil {
			tags := make([]string, len(snap.Snippets[i].Tags))
			copy(tags, snap.Snippets[i].Tags)
			snap.Snippets[i].Tags = tags
		}
	}
	return snap
}

// persistLocked writes the in-memory collection to disk atomically via
// temp file + rename, then fires the after-write hooks.
func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.col, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal collection: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: creating %s: %v", ErrStorageUnavailable, dir, err)
		}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrStorageUnavailable, tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: renaming %s: %v", ErrStorageUnavailable, tmpPath, err)
	}

	snap := s.snapshotLocked()
	for _, fn := range s.afterWrite {
		fn(snap)
	}
	return nil
}
