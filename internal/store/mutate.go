package store

import (
	"fmt"

	"github.com/snipvault/snipvault/internal/record"
)

// SnippetUpdate carries the field-level changes of an update operation.
// Nil pointers leave the field untouched.
type SnippetUpdate struct {
	Name     *string
	Code     *string
	Notes    *string
	Language *string
	Tags     *[]string
	FolderID *string
}

// AddFolder creates and stores a new folder. A non-nil parent must
// already exist.
func (s *Store) AddFolder(name string, parentID *string) (record.Folder, error) {
	if parentID != nil {
		if _, err := s.folder(*parentID); err != nil {
			return record.Folder{}, err
		}
	}
	f := record.NewFolder(name, parentID)
	if err := s.Put(f); err != nil {
		return record.Folder{}, err
	}
	return f, nil
}

// AddSnippet creates and stores a new snippet in an existing folder.
func (s *Store) AddSnippet(name, folderID string) (record.Snippet, error) {
	if _, err := s.folder(folderID); err != nil {
		return record.Snippet{}, err
	}
	sn := record.NewSnippet(name, folderID)
	if err := s.Put(sn); err != nil {
		return record.Snippet{}, err
	}
	return sn, nil
}

// RenameFolder changes a folder's display name and advances its stamp.
func (s *Store) RenameFolder(id, name string) (record.Folder, error) {
	f, err := s.folder(id)
	if err != nil {
		return record.Folder{}, err
	}
	f.Name = name
	f.Touch()
	return f, s.Put(f)
}

// MoveFolder re-parents a folder. Moves that would make the folder its
// own ancestor are rejected with ErrCycle before anything is written.
func (s *Store) MoveFolder(id string, newParent *string) (record.Folder, error) {
	f, err := s.folder(id)
	if err != nil {
		return record.Folder{}, err
	}

	if newParent != nil {
		if *newParent == id {
			return record.Folder{}, fmt.Errorf("%w: %s into itself", ErrCycle, id)
		}
		if _, err := s.folder(*newParent); err != nil {
			return record.Folder{}, err
		}
		col, err := s.List()
		if err != nil {
			return record.Folder{}, err
		}
		if isAncestor(col.Folders, id, *newParent) {
			return record.Folder{}, fmt.Errorf("%w: %s is an ancestor of %s", ErrCycle, id, *newParent)
		}
	}

	f.ParentID = newParent
	f.Touch()
	return f, s.Put(f)
}

// UpdateSnippet applies a field-level update as a read-modify-write of
// the full record. Any applied change advances LastModified.
func (s *Store) UpdateSnippet(id string, upd SnippetUpdate) (record.Snippet, error) {
	sn, err := s.snippet(id)
	if err != nil {
		return record.Snippet{}, err
	}

	if upd.Name != nil {
		sn.Name = *upd.Name
	}
	if upd.Code != nil {
		sn.Code = *upd.Code
	}
	if upd.Notes != nil {
		sn.Notes = *upd.Notes
	}
	if upd.Language != nil {
		sn.Language = *upd.Language
	}
	if upd.Tags != nil {
		sn.Tags = *upd.Tags
	}
	if upd.FolderID != nil {
		if _, err := s.folder(*upd.FolderID); err != nil {
			return record.Snippet{}, err
		}
		sn.FolderID = *upd.FolderID
	}

	sn.Touch()
	return sn, s.Put(sn)
}

// MoveSnippet re-homes a snippet into another existing folder.
func (s *Store) MoveSnippet(id, folderID string) (record.Snippet, error) {
	return s.UpdateSnippet(id, SnippetUpdate{FolderID: &folderID})
}

// DeleteFolder removes a folder and, in the same logical operation,
// every snippet it directly owns.
func (s *Store) DeleteFolder(id string) error {
	if _, err := s.folder(id); err != nil {
		return err
	}
	return s.Delete(id)
}

// DeleteSnippet removes a single snippet.
func (s *Store) DeleteSnippet(id string) error {
	if _, err := s.snippet(id); err != nil {
		return err
	}
	return s.Delete(id)
}

func (s *Store) folder(id string) (record.Folder, error) {
	col, err := s.List()
	if err != nil {
		return record.Folder{}, err
	}
	f, ok := col.FolderByID(id)
	if !ok {
		return record.Folder{}, fmt.Errorf("%w: folder %s", ErrNotFound, id)
	}
	return f, nil
}

func (s *Store) snippet(id string) (record.Snippet, error) {
	col, err := s.List()
	if err != nil {
		return record.Snippet{}, err
	}
	sn, ok := col.SnippetByID(id)
	if !ok {
		return record.Snippet{}, fmt.Errorf("%w: snippet %s", ErrNotFound, id)
	}
	return sn, nil
}

// isAncestor reports whether candidate is an ancestor of folderID in
// the parent graph. The walk is bounded by a visited set, so even
// pathological cyclic data terminates.
func isAncestor(folders []record.Folder, candidate, folderID string) bool {
	parents := make(map[string]*string, len(folders))
	for _, f := range folders {
		parents[f.ID] = f.ParentID
	}

	visited := make(map[string]bool)
	cur := folderID
	for {
		if visited[cur] {
			return false
		}
		visited[cur] = true

		p, ok := parents[cur]
		if !ok || p == nil {
			return false
		}
		if *p == candidate {
			return true
		}
		cur = *p
	}
}
