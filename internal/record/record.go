package record

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultLanguage is the sentinel language used when a snippet does not
// name a syntax for display.
const DefaultLanguage = "plaintext"

// Folder is a container in the snippet hierarchy. Folders form a tree
// through ParentID; a nil ParentID marks a root-level folder.
//
// The structure is flat and last-write-wins friendly: every field can be
// replaced wholesale, and LastModified resolves conflicts between
// replicas.
type Folder struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	ParentID     *string `json:"parentId"`
	Order        *int    `json:"order,omitempty"`
	LastModified int64   `json:"lastModified"` // milliseconds since epoch
}

// Snippet is a named text blob owned by exactly one folder.
type Snippet struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Code         string   `json:"code"`
	Notes        string   `json:"notes"`
	Language     string   `json:"language"`
	Tags         []string `json:"tags"`
	FolderID     string   `json:"folderId"`
	LastModified int64    `json:"lastModified"`
}

// Collection is a full snapshot of both record kinds. It is the unit of
// storage, merging, and mirroring.
type Collection struct {
	Folders  []Folder  `json:"folders"`
	Snippets []Snippet `json:"snippets"`
}

// NowMillis returns the current wall-clock time in milliseconds since
// epoch, the unit used by LastModified.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// NewFolder creates a folder with a fresh id and a current timestamp.
func NewFolder(name string, parentID *string) Folder {
	return Folder{
		ID:           uuid.NewString(),
		Name:         name,
		ParentID:     parentID,
		LastModified: NowMillis(),
	}
}

// NewSnippet creates a snippet with a fresh id, defaulted metadata, and
// a current timestamp.
func NewSnippet(name, folderID string) Snippet {
	return Snippet{
		ID:           uuid.NewString(),
		Name:         name,
		Language:     DefaultLanguage,
		Tags:         []string{},
		FolderID:     folderID,
		LastModified: NowMillis(),
	}
}

// Validate checks the invariants every stored folder must satisfy.
func (f *Folder) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("folder id is required")
	}
	if f.Name == "" {
		return fmt.Errorf("folder %s: name is required", f.ID)
	}
	return nil
}

// Validate checks the invariants every stored snippet must satisfy.
func (s *Snippet) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("snippet id is required")
	}
	if s.Name == "" {
		return fmt.Errorf("snippet %s: name is required", s.ID)
	}
	if s.FolderID == "" {
		return fmt.Errorf("snippet %s: folderId is required", s.ID)
	}
	return nil
}

// Sanitize fills defaults for fields that older replicas may omit.
// It is idempotent and is applied at read time only; it never counts as
// a content mutation and must not advance LastModified on records that
// already carry one.
func (s *Snippet) Sanitize() {
	if s.Language == "" {
		s.Language = DefaultLanguage
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	if s.LastModified == 0 {
		s.LastModified = NowMillis()
	}
}

// Sanitize fills defaults for folders read from older replicas.
func (f *Folder) Sanitize() {
	if f.LastModified == 0 {
		f.LastModified = NowMillis()
	}
}

// Touch advances LastModified to the current time. The stamp never moves
// backwards, so a record observed at one replica is monotonic even when
// the wall clock is skewed.
func (f *Folder) Touch() {
	if now := NowMillis(); now > f.LastModified {
		f.LastModified = now
	} else {
		f.LastModified++
	}
}

// Touch advances LastModified to the current time, monotonically.
func (s *Snippet) Touch() {
	if now := NowMillis(); now > s.LastModified {
		s.LastModified = now
	} else {
		s.LastModified++
	}
}

// HasTag reports whether the snippet carries the given tag. Tags are a
// set: order and duplicates are not meaningful.
func (s *Snippet) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Sanitize normalizes every record in the collection in place.
func (c *Collection) Sanitize() {
	for i := range c.Folders {
		c.Folders[i].Sanitize()
	}
	for i := range c.Snippets {
		c.Snippets[i].Sanitize()
	}
}

// Validate checks every record in the collection.
func (c *Collection) Validate() error {
	for i := range c.Folders {
		if err := c.Folders[i].Validate(); err != nil {
			return err
		}
	}
	for i := range c.Snippets {
		if err := c.Snippets[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// FolderByID returns the folder with the given id, if present.
func (c *Collection) FolderByID(id string) (Folder, bool) {
	for _, f := range c.Folders {
		if f.ID == id {
			return f, true
		}
	}
	return Folder{}, false
}

// SnippetByID returns the snippet with the given id, if present.
func (c *Collection) SnippetByID(id string) (Snippet, bool) {
	for _, s := range c.Snippets {
		if s.ID == id {
			return s, true
		}
	}
	return Snippet{}, false
}
